package handler

import (
	"io"
	"net/http"

	"rental-agreements-go/internal/gateway"
	"rental-agreements-go/internal/models"
)

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.ListPayments(r.Context(), pathId(r), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]models.PaymentView, 0, len(payments))
	for i := range payments {
		views = append(views, models.ToPaymentView(&payments[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// CreatePaymentIntent answers 402 with the failure payload when the gateway
// refuses the intent.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CreatePaymentIntent(r.Context(), pathId(r), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !result.Success {
		writeJSON(w, http.StatusPaymentRequired, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) MarkPaymentSucceeded(w http.ResponseWriter, r *http.Request) {
	payment, err := h.svc.MarkPaymentSucceeded(r.Context(), pathId(r), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ToPaymentView(payment))
}

func (h *Handler) MarkPaymentFailed(w http.ResponseWriter, r *http.Request) {
	payment, err := h.svc.MarkPaymentFailed(r.Context(), pathId(r), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ToPaymentView(payment))
}

// GatewayWebhook authenticates by signature rather than bearer token. The raw
// body is passed through untouched since the signature covers its bytes.
func (h *Handler) GatewayWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "payload too large"})
		return
	}

	result, err := h.svc.HandleGatewayEvent(r.Context(), payload, r.Header.Get(gateway.SignatureHeaderName))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
