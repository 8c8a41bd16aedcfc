package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-agreements-go/internal/cache"
	"rental-agreements-go/internal/gateway"
	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("operation not permitted for this user")
	ErrInvariantViolation = errors.New("agreement invariant violated")
)

// maxWriteAttempts bounds retries after ErrConcurrentModification
const maxWriteAttempts = 3

// RentalService coordinates agreements, payments and the payment gateway.
type RentalService struct {
	store   store.RentalStore
	gateway gateway.Gateway
	intents cache.IntentCache
	ledger  store.PaymentLedger
	cfg     models.GatewayConfig
	now     func() time.Time
}

// NewRentalService wires the service. intents and ledger may be nil.
func NewRentalService(
	st store.RentalStore,
	gw gateway.Gateway,
	intents cache.IntentCache,
	ledger store.PaymentLedger,
	cfg models.GatewayConfig,
) *RentalService {
	if intents == nil {
		intents = cache.Noop{}
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &RentalService{
		store:   st,
		gateway: gw,
		intents: intents,
		ledger:  ledger,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *RentalService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// withRetry re-runs op while it reports a concurrent modification.
func withRetry[T any](op func() (T, error)) (T, error) {
	var result T
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		result, err = op()
		if !errors.Is(err, store.ErrConcurrentModification) {
			return result, err
		}
	}
	return result, err
}
