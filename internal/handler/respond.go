package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rental-agreements-go/internal/api"
	"rental-agreements-go/internal/auth"
	"rental-agreements-go/internal/gateway"
	"rental-agreements-go/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNotParty), errors.Is(err, api.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrConcurrentModification),
		errors.Is(err, store.ErrDuplicatePayment),
		errors.Is(err, store.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, api.ErrValidation), errors.Is(err, gateway.ErrInvalidSignature),
		errors.Is(err, gateway.ErrMalformedEvent):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", api.ErrValidation, err)
	}
	return nil
}

// caller returns the authenticated user id set by the token middleware
func caller(r *http.Request) string {
	id, _ := auth.IdentityFromContext(r.Context())
	return id.UserId
}

func pathId(r *http.Request) string {
	return mux.Vars(r)["id"]
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		zap.L().Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
