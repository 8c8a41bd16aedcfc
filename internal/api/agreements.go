package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAgreementInput is what a landlord submits to draft an agreement.
// A zero MonthlyRent falls back to the property's listed price.
type CreateAgreementInput struct {
	PropertyId      string
	TenantId        string
	StartDate       time.Time
	EndDate         time.Time
	MonthlyRent     decimal.Decimal
	SecurityDeposit decimal.Decimal
	Terms           string
}

// CreateAgreement drafts an agreement between the property's landlord and a tenant.
func (s *RentalService) CreateAgreement(ctx context.Context, landlordId string, input CreateAgreementInput) (*models.RentalAgreement, error) {
	zap.L().Info("Creating agreement",
		zap.String("landlord_id", landlordId),
		zap.String("property_id", input.PropertyId),
		zap.String("tenant_id", input.TenantId))

	property, err := s.store.GetPropertyById(ctx, input.PropertyId)
	if err != nil {
		return nil, err
	}
	if property.LandlordId != landlordId {
		return nil, fmt.Errorf("property %s belongs to another landlord: %w", property.Id, ErrForbidden)
	}

	tenant, err := s.store.GetUserById(ctx, input.TenantId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, validationError("tenant %s does not exist", input.TenantId)
		}
		return nil, err
	}
	if tenant.Role != models.RoleTenant {
		return nil, validationError("user %s is not a tenant", tenant.Id)
	}
	if tenant.Id == landlordId {
		return nil, validationError("landlord and tenant must be different users")
	}

	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, validationError("start and end dates are required")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, validationError("end date must be after start date")
	}

	rent := input.MonthlyRent
	if rent.IsZero() {
		rent = property.MonthlyPrice
	}
	if !rent.IsPositive() {
		return nil, validationError("monthly rent must be positive")
	}
	if !rent.Equal(rent.Round(2)) {
		return nil, validationError("monthly rent %s has more than two decimal places", rent)
	}
	if input.SecurityDeposit.IsNegative() {
		return nil, validationError("security deposit cannot be negative")
	}

	return s.store.CreateAgreement(ctx, store.CreateAgreementParams{
		PropertyId:      property.Id,
		LandlordId:      landlordId,
		TenantId:        tenant.Id,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		MonthlyRent:     rent,
		SecurityDeposit: input.SecurityDeposit,
		Terms:           input.Terms,
	})
}

// GetAgreement returns the agreement if userId is one of its parties.
func (s *RentalService) GetAgreement(ctx context.Context, agreementId, userId string) (*models.RentalAgreement, error) {
	agreement, err := s.store.GetAgreement(ctx, agreementId)
	if err != nil {
		return nil, err
	}
	if !agreement.IsParty(userId) {
		return nil, fmt.Errorf("user %s on agreement %s: %w", userId, agreementId, store.ErrNotParty)
	}
	return agreement, nil
}

func (s *RentalService) ListAgreements(ctx context.Context, userId string) ([]models.RentalAgreement, error) {
	return s.store.ListAgreementsForUser(ctx, userId)
}

// SignAgreement records userId's signature. The second distinct signature
// activates the agreement and creates its initial pending payment.
func (s *RentalService) SignAgreement(ctx context.Context, agreementId, userId string) (*store.SignAgreementResult, error) {
	zap.L().Info("Signing agreement",
		zap.String("agreement_id", agreementId),
		zap.String("user_id", userId))

	result, err := withRetry(func() (*store.SignAgreementResult, error) {
		return s.store.SignAgreement(ctx, agreementId, userId, s.now())
	})
	if err != nil {
		if errors.Is(err, store.ErrNotParty) {
			zap.L().Warn("Signature rejected: user is not a party",
				zap.String("agreement_id", agreementId),
				zap.String("user_id", userId))
		}
		return nil, err
	}

	if result.Agreement.Status == models.AgreementActive && !result.Agreement.IsFullySigned() {
		zap.L().Error("Active agreement is missing a signature",
			zap.String("agreement_id", agreementId),
			zap.Bool("signed_by_landlord", result.Agreement.SignedByLandlord),
			zap.Bool("signed_by_tenant", result.Agreement.SignedByTenant))
		return nil, fmt.Errorf("agreement %s: %w", agreementId, ErrInvariantViolation)
	}

	if result.Activated {
		zap.L().Info("Agreement activated",
			zap.String("agreement_id", agreementId),
			zap.String("initial_payment_id", result.Payment.Id),
			zap.String("amount", result.Payment.Amount.String()))
	}
	return result, nil
}

// CompleteAgreement lets the landlord close an active agreement.
func (s *RentalService) CompleteAgreement(ctx context.Context, agreementId, userId string) (*models.RentalAgreement, error) {
	agreement, err := s.GetAgreement(ctx, agreementId, userId)
	if err != nil {
		return nil, err
	}
	if agreement.LandlordId != userId {
		return nil, fmt.Errorf("only the landlord can complete agreement %s: %w", agreementId, ErrForbidden)
	}

	return withRetry(func() (*models.RentalAgreement, error) {
		return s.store.TransitionAgreement(ctx, agreementId,
			[]string{models.AgreementActive}, models.AgreementCompleted)
	})
}

// TerminateAgreement lets either party end an agreement that is not yet closed.
func (s *RentalService) TerminateAgreement(ctx context.Context, agreementId, userId string) (*models.RentalAgreement, error) {
	if _, err := s.GetAgreement(ctx, agreementId, userId); err != nil {
		return nil, err
	}

	return withRetry(func() (*models.RentalAgreement, error) {
		return s.store.TransitionAgreement(ctx, agreementId,
			[]string{models.AgreementDraft, models.AgreementPending, models.AgreementActive},
			models.AgreementTerminated)
	})
}

// DeleteAgreement lets the landlord remove an agreement that is not active.
// Its payments are removed with it.
func (s *RentalService) DeleteAgreement(ctx context.Context, agreementId, userId string) error {
	agreement, err := s.GetAgreement(ctx, agreementId, userId)
	if err != nil {
		return err
	}
	if agreement.LandlordId != userId {
		return fmt.Errorf("only the landlord can delete agreement %s: %w", agreementId, ErrForbidden)
	}
	if agreement.Status == models.AgreementActive {
		return fmt.Errorf("agreement %s is active: %w", agreementId, store.ErrInvalidTransition)
	}
	return s.store.DeleteAgreement(ctx, agreementId)
}
