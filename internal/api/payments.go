package api

import (
	"context"
	"errors"
	"fmt"

	"rental-agreements-go/internal/cache"
	"rental-agreements-go/internal/gateway"
	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"go.uber.org/zap"
)

// ListPayments returns the payment ledger of an agreement to one of its parties.
func (s *RentalService) ListPayments(ctx context.Context, agreementId, userId string) ([]models.Payment, error) {
	if _, err := s.GetAgreement(ctx, agreementId, userId); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, agreementId)
}

// paymentForParty loads a payment and its agreement, checking that userId is a party.
func (s *RentalService) paymentForParty(ctx context.Context, paymentId, userId string) (*models.Payment, *models.RentalAgreement, error) {
	payment, err := s.store.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, nil, err
	}
	agreement, err := s.store.GetAgreement(ctx, payment.RentalAgreementId)
	if err != nil {
		return nil, nil, err
	}
	if !agreement.IsParty(userId) {
		return nil, nil, fmt.Errorf("user %s on payment %s: %w", userId, paymentId, store.ErrNotParty)
	}
	return payment, agreement, nil
}

// CreatePaymentIntent asks the gateway for a client secret to pay a pending
// payment. Gateway failures are reported in the result, not as errors, and
// leave the payment pending.
func (s *RentalService) CreatePaymentIntent(ctx context.Context, paymentId, userId string) (*models.PaymentIntentResult, error) {
	zap.L().Info("Creating payment intent",
		zap.String("payment_id", paymentId),
		zap.String("user_id", userId))

	payment, _, err := s.paymentForParty(ctx, paymentId, userId)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentPending {
		return nil, fmt.Errorf("payment %s is %s: %w", paymentId, payment.Status, store.ErrInvalidTransition)
	}

	cached, err := s.intents.Get(ctx, paymentId)
	switch {
	case err == nil:
		zap.L().Debug("Reusing cached payment intent",
			zap.String("payment_id", paymentId),
			zap.String("intent_id", cached.IntentId))
		return &models.PaymentIntentResult{
			Success:      true,
			PaymentId:    paymentId,
			ClientSecret: cached.ClientSecret,
			Cached:       true,
		}, nil
	case !errors.Is(err, cache.ErrMiss):
		zap.L().Warn("Intent cache unavailable", zap.String("payment_id", paymentId), zap.Error(err))
	}

	amountMinor, err := gateway.MinorUnits(payment.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	intent, err := s.gateway.CreateIntent(gatewayCtx, amountMinor, s.cfg.Currency, map[string]string{
		"payment_id": paymentId,
		"user_id":    userId,
	})
	if err != nil {
		zap.L().Warn("Gateway could not create payment intent",
			zap.String("payment_id", paymentId),
			zap.Int64("amount_minor", amountMinor),
			zap.Error(err))
		return &models.PaymentIntentResult{
			Success:   false,
			PaymentId: paymentId,
			Error:     err.Error(),
		}, nil
	}

	if err := s.intents.Set(ctx, paymentId, cache.Intent{IntentId: intent.ID, ClientSecret: intent.ClientSecret}); err != nil {
		zap.L().Warn("Failed to cache payment intent", zap.String("payment_id", paymentId), zap.Error(err))
	}

	return &models.PaymentIntentResult{
		Success:      true,
		PaymentId:    paymentId,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// MarkPaymentSucceeded records a successful checkout reported by the client.
func (s *RentalService) MarkPaymentSucceeded(ctx context.Context, paymentId, userId string) (*models.Payment, error) {
	return s.markPayment(ctx, paymentId, userId, models.PaymentCompleted)
}

// MarkPaymentFailed records a failed checkout reported by the client.
func (s *RentalService) MarkPaymentFailed(ctx context.Context, paymentId, userId string) (*models.Payment, error) {
	return s.markPayment(ctx, paymentId, userId, models.PaymentFailed)
}

func (s *RentalService) markPayment(ctx context.Context, paymentId, userId, status string) (*models.Payment, error) {
	zap.L().Info("Payment outcome reported by client",
		zap.String("payment_id", paymentId),
		zap.String("user_id", userId),
		zap.String("status", status))

	_, agreement, err := s.paymentForParty(ctx, paymentId, userId)
	if err != nil {
		return nil, err
	}

	payment, changed, err := s.store.ApplyPaymentOutcome(ctx, store.PaymentOutcomeParams{
		PaymentId: paymentId,
		Status:    status,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			zap.L().Warn("Stale payment outcome rejected",
				zap.String("payment_id", paymentId),
				zap.String("requested_status", status))
		}
		return nil, err
	}

	if changed {
		s.afterOutcome(ctx, payment, agreement)
	}
	return payment, nil
}

// afterOutcome drops the cached intent and mirrors settled rent to the ledger.
// Neither step can fail the request.
func (s *RentalService) afterOutcome(ctx context.Context, payment *models.Payment, agreement *models.RentalAgreement) {
	if err := s.intents.Delete(ctx, payment.Id); err != nil {
		zap.L().Warn("Failed to drop cached intent", zap.String("payment_id", payment.Id), zap.Error(err))
	}

	if s.ledger == nil {
		return
	}

	params := store.LedgerPaymentParams{
		PaymentId:     payment.Id,
		AgreementId:   agreement.Id,
		LandlordId:    agreement.LandlordId,
		TenantId:      agreement.TenantId,
		Amount:        payment.Amount,
		Currency:      s.cfg.Currency,
		TransactionId: payment.TransactionId,
	}

	var err error
	switch payment.Status {
	case models.PaymentCompleted:
		err = s.ledger.RecordPaymentCompleted(ctx, params)
	case models.PaymentRefunded:
		err = s.ledger.RecordPaymentRefunded(ctx, params)
	}
	if err != nil {
		zap.L().Error("Failed to mirror payment to ledger",
			zap.String("payment_id", payment.Id),
			zap.String("status", payment.Status),
			zap.Error(err))
	}
}
