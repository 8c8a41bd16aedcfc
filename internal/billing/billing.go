package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"go.uber.org/zap"
)

// ANSI color helpers for console output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
)

// Config contains configuration for Worker
type Config struct {
	Store           store.RentalStore
	PollingInterval time.Duration
	LeadTime        time.Duration
}

// Summary counts what one billing run changed
type Summary struct {
	PaymentsCreated     int
	AgreementsCompleted int
	Failures            int
}

// Worker issues recurring rent payments for active agreements and completes
// agreements whose end date has passed.
type Worker struct {
	store           store.RentalStore
	pollingInterval time.Duration
	leadTime        time.Duration
	now             func() time.Time

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewWorker(cfg Config) *Worker {
	return &Worker{
		store:           cfg.Store,
		pollingInterval: cfg.PollingInterval,
		leadTime:        cfg.LeadTime,
		now:             time.Now,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start runs one billing pass immediately and then one per polling interval.
func (w *Worker) Start(ctx context.Context) error {
	if w.pollingInterval <= 0 {
		return fmt.Errorf("billing polling interval must be positive, got %v", w.pollingInterval)
	}
	if w.leadTime < 0 {
		return fmt.Errorf("billing lead time cannot be negative, got %v", w.leadTime)
	}

	go w.pollLoop(ctx)

	zap.L().Info("Billing worker started",
		zap.Duration("polling_interval", w.pollingInterval),
		zap.Duration("lead_time", w.leadTime))
	return nil
}

// Stop gracefully stops the billing worker
func (w *Worker) Stop() {
	zap.L().Info("Stopping billing worker")
	close(w.stopChan)
	<-w.doneChan
	zap.L().Info("Billing worker stopped")
}

func (w *Worker) pollLoop(ctx context.Context) {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.pollingInterval)
	defer ticker.Stop()

	w.runLogged(ctx)

	for {
		select {
		case <-ticker.C:
			w.runLogged(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) runLogged(ctx context.Context) {
	summary, err := w.RunOnce(ctx)
	if err != nil {
		fmt.Printf("%s[%s] Billing run failed: %s%s\n", colorRed, w.now().Format("15:04:05"), err, colorReset)
		zap.L().Error("Billing run failed", zap.Error(err))
		return
	}

	color := colorCyan
	if summary.Failures > 0 {
		color = colorYellow
	}
	fmt.Printf("%s[%s] Billing run: %d payments created, %d agreements completed, %d failures%s\n",
		color, w.now().Format("15:04:05"), summary.PaymentsCreated, summary.AgreementsCompleted, summary.Failures, colorReset)
}

// RunOnce performs a single billing pass over all active agreements.
func (w *Worker) RunOnce(ctx context.Context) (Summary, error) {
	agreements, err := w.store.ListAgreementsByStatus(ctx, models.AgreementActive)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list active agreements: %w", err)
	}

	today := dateOf(w.now())
	horizon := today.Add(w.leadTime)

	var summary Summary
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, agreement := range agreements {
		wg.Add(1)

		go func(a models.RentalAgreement) {
			defer wg.Done()

			created, completed, err := w.billAgreement(ctx, a, today, horizon)

			mu.Lock()
			defer mu.Unlock()
			summary.PaymentsCreated += created
			if completed {
				summary.AgreementsCompleted++
			}
			if err != nil {
				summary.Failures++
				zap.L().Error("Failed to bill agreement",
					zap.String("agreement_id", a.Id),
					zap.Error(err))
			}
		}(agreement)
	}

	wg.Wait()

	zap.L().Info("Billing run finished",
		zap.Int("agreements", len(agreements)),
		zap.Int("payments_created", summary.PaymentsCreated),
		zap.Int("agreements_completed", summary.AgreementsCompleted),
		zap.Int("failures", summary.Failures))
	return summary, nil
}

func (w *Worker) billAgreement(ctx context.Context, a models.RentalAgreement, today, horizon time.Time) (int, bool, error) {
	created := 0
	for _, due := range recurringDueDates(a.StartDate, a.EndDate, horizon) {
		payment, err := w.store.CreatePayment(ctx, store.CreatePaymentParams{
			RentalAgreementId: a.Id,
			Kind:              models.PaymentKindRecurring,
			Amount:            a.MonthlyRent,
			PaymentMethod:     models.PaymentMethodCard,
			PaymentDate:       today,
			DueDate:           due,
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicatePayment) {
				continue
			}
			if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
				// closed or deleted since it was listed
				zap.L().Info("Agreement no longer active, skipping",
					zap.String("agreement_id", a.Id),
					zap.Error(err))
				return created, false, nil
			}
			return created, false, fmt.Errorf("failed to create payment due %s: %w", due.Format(models.DateLayout), err)
		}
		created++
		fmt.Printf("  %s✓ agreement %s: %s due %s%s\n",
			colorGreen, a.Id, payment.Amount.StringFixed(2), due.Format(models.DateLayout), colorReset)
	}

	if !a.EndDate.Before(today) {
		return created, false, nil
	}

	_, err := w.store.TransitionAgreement(ctx, a.Id, []string{models.AgreementActive}, models.AgreementCompleted)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrConcurrentModification) {
			// closed by a party in the meantime
			return created, false, nil
		}
		return created, false, fmt.Errorf("failed to complete agreement: %w", err)
	}
	fmt.Printf("  %s✓ agreement %s completed (ended %s)%s\n",
		colorGreen, a.Id, a.EndDate.Format(models.DateLayout), colorReset)
	return created, true, nil
}
