package api

import (
	"context"
	"errors"
	"fmt"

	"rental-agreements-go/internal/gateway"
	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"go.uber.org/zap"
)

var eventStatus = map[string]string{
	gateway.EventIntentSucceeded: models.PaymentCompleted,
	gateway.EventIntentFailed:    models.PaymentFailed,
	gateway.EventChargeRefunded:  models.PaymentRefunded,
}

// HandleGatewayEvent verifies and applies a signed gateway notification.
// Redelivered events are acknowledged without being applied again.
func (s *RentalService) HandleGatewayEvent(ctx context.Context, payload []byte, signatureHeader string) (*models.WebhookResult, error) {
	event, err := gateway.ParseWebhook(payload, signatureHeader, s.cfg.WebhookSecret, s.cfg.WebhookTolerance, s.now())
	if err != nil {
		zap.L().Warn("Rejected gateway webhook", zap.Error(err))
		return nil, err
	}

	result := &models.WebhookResult{
		EventId:   event.ID,
		Type:      event.Type,
		PaymentId: event.PaymentId(),
	}
	eventParams := store.GatewayEventParams{
		EventId:   event.ID,
		Type:      event.Type,
		PaymentId: event.PaymentId(),
	}

	status, known := eventStatus[event.Type]
	if !known || result.PaymentId == "" {
		zap.L().Debug("Ignoring gateway event",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type))
		result.Ignored = true
		return s.recordOnly(ctx, result, eventParams)
	}

	zap.L().Info("Processing gateway event",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("payment_id", result.PaymentId),
		zap.String("intent_id", event.IntentId()))

	payment, changed, err := s.store.ApplyPaymentOutcome(ctx, store.PaymentOutcomeParams{
		PaymentId:     result.PaymentId,
		Status:        status,
		TransactionId: event.IntentId(),
		Event:         &eventParams,
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDuplicateEvent):
		zap.L().Info("Duplicate gateway event", zap.String("event_id", event.ID))
		result.Duplicate = true
		return result, nil
	case errors.Is(err, store.ErrInvalidTransition), errors.Is(err, store.ErrNotFound):
		// Acknowledge so the gateway stops redelivering
		zap.L().Warn("Gateway event cannot be applied",
			zap.String("event_id", event.ID),
			zap.String("payment_id", result.PaymentId),
			zap.Error(err))
		result.Ignored = true
		return s.recordOnly(ctx, result, eventParams)
	default:
		return nil, fmt.Errorf("failed to apply gateway event %s: %w", event.ID, err)
	}

	result.Status = payment.Status
	if changed {
		agreement, err := s.store.GetAgreement(ctx, payment.RentalAgreementId)
		if err != nil {
			zap.L().Error("Failed to load agreement for settled payment",
				zap.String("payment_id", payment.Id),
				zap.Error(err))
		} else {
			s.afterOutcome(ctx, payment, agreement)
		}
	}
	return result, nil
}

func (s *RentalService) recordOnly(ctx context.Context, result *models.WebhookResult, params store.GatewayEventParams) (*models.WebhookResult, error) {
	if err := s.store.RecordGatewayEvent(ctx, params); err != nil {
		if errors.Is(err, store.ErrDuplicateEvent) {
			result.Duplicate = true
			return result, nil
		}
		return nil, err
	}
	return result, nil
}
