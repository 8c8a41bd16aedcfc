package handler

import (
	"fmt"
	"net/http"
	"time"

	"rental-agreements-go/internal/api"
	"rental-agreements-go/internal/models"

	"github.com/shopspring/decimal"
)

type createAgreementRequest struct {
	TenantId        string          `json:"tenant_id"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	Terms           string          `json:"terms"`
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", api.ErrValidation, field)
	}
	return t, nil
}

func (h *Handler) CreateAgreement(w http.ResponseWriter, r *http.Request) {
	var req createAgreementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	agreement, err := h.svc.CreateAgreement(r.Context(), caller(r), api.CreateAgreementInput{
		PropertyId:      pathId(r),
		TenantId:        req.TenantId,
		StartDate:       start,
		EndDate:         end,
		MonthlyRent:     req.MonthlyRent,
		SecurityDeposit: req.SecurityDeposit,
		Terms:           req.Terms,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.ToAgreementView(agreement))
}

func (h *Handler) ListAgreements(w http.ResponseWriter, r *http.Request) {
	agreements, err := h.svc.ListAgreements(r.Context(), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]models.AgreementView, 0, len(agreements))
	for i := range agreements {
		views = append(views, models.ToAgreementView(&agreements[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) GetAgreement(w http.ResponseWriter, r *http.Request) {
	agreement, err := h.svc.GetAgreement(r.Context(), pathId(r), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ToAgreementView(agreement))
}

func (h *Handler) SignAgreement(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SignAgreement(r.Context(), pathId(r), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	body := models.SignResult{
		Agreement: models.ToAgreementView(result.Agreement),
		Activated: result.Activated,
	}
	if result.Payment != nil {
		payment := models.ToPaymentView(result.Payment)
		body.Payment = &payment
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) CompleteAgreement(w http.ResponseWriter, r *http.Request) {
	agreement, err := h.svc.CompleteAgreement(r.Context(), pathId(r), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ToAgreementView(agreement))
}

func (h *Handler) TerminateAgreement(w http.ResponseWriter, r *http.Request) {
	agreement, err := h.svc.TerminateAgreement(r.Context(), pathId(r), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ToAgreementView(agreement))
}

func (h *Handler) DeleteAgreement(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAgreement(r.Context(), pathId(r), caller(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
