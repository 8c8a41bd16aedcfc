package handler

import (
	"net/http"

	"rental-agreements-go/internal/api"
	"rental-agreements-go/internal/auth"

	"github.com/gorilla/mux"
)

// maxBodyBytes caps JSON and webhook request bodies
const maxBodyBytes = 1 << 20

// Handler exposes RentalService over HTTP
type Handler struct {
	svc    *api.RentalService
	tokens *auth.TokenManager
}

func New(svc *api.RentalService, tokens *auth.TokenManager) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// Router registers every route. Everything except login, the gateway webhook
// and the health check requires a bearer token.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/webhooks/gateway", h.GatewayWebhook).Methods(http.MethodPost)

	p := r.NewRoute().Subrouter()
	p.Use(h.tokens.Middleware)

	p.HandleFunc("/properties", h.CreateProperty).Methods(http.MethodPost)
	p.HandleFunc("/properties/{id}/agreements", h.CreateAgreement).Methods(http.MethodPost)

	p.HandleFunc("/agreements", h.ListAgreements).Methods(http.MethodGet)
	p.HandleFunc("/agreements/{id}", h.GetAgreement).Methods(http.MethodGet)
	p.HandleFunc("/agreements/{id}", h.DeleteAgreement).Methods(http.MethodDelete)
	p.HandleFunc("/agreements/{id}/sign", h.SignAgreement).Methods(http.MethodPost)
	p.HandleFunc("/agreements/{id}/complete", h.CompleteAgreement).Methods(http.MethodPost)
	p.HandleFunc("/agreements/{id}/terminate", h.TerminateAgreement).Methods(http.MethodPost)
	p.HandleFunc("/agreements/{id}/payments", h.ListPayments).Methods(http.MethodGet)

	p.HandleFunc("/payments/{id}/create-intent", h.CreatePaymentIntent).Methods(http.MethodPost)
	p.HandleFunc("/payments/{id}/success", h.MarkPaymentSucceeded).Methods(http.MethodPost)
	p.HandleFunc("/payments/{id}/failed", h.MarkPaymentFailed).Methods(http.MethodPost)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
