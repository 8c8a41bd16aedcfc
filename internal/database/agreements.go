package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanAgreement(row rowScanner) (*models.RentalAgreement, error) {
	var a models.RentalAgreement
	var startDate, endDate, rent, deposit string
	var signedAt sql.NullTime

	err := row.Scan(
		&a.Id, &a.PropertyId, &a.LandlordId, &a.TenantId, &startDate, &endDate,
		&rent, &deposit, &a.Terms, &a.Status,
		&a.SignedByLandlord, &a.SignedByTenant, &signedAt, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if a.StartDate, err = parseDate("start date", startDate); err != nil {
		return nil, err
	}
	if a.EndDate, err = parseDate("end date", endDate); err != nil {
		return nil, err
	}
	if a.MonthlyRent, err = parseDecimal("monthly rent", rent); err != nil {
		return nil, err
	}
	if a.SecurityDeposit, err = parseDecimal("security deposit", deposit); err != nil {
		return nil, err
	}
	if signedAt.Valid {
		t := signedAt.Time
		a.SignedAt = &t
	}
	return &a, nil
}

func (s *Service) CreateAgreement(ctx context.Context, params store.CreateAgreementParams) (*models.RentalAgreement, error) {
	if params.LandlordId == params.TenantId {
		return nil, fmt.Errorf("landlord and tenant must be different users")
	}
	if !params.EndDate.After(params.StartDate) {
		return nil, fmt.Errorf("end date %s must be after start date %s",
			params.EndDate.Format(models.DateLayout), params.StartDate.Format(models.DateLayout))
	}
	if !params.MonthlyRent.IsPositive() {
		return nil, fmt.Errorf("monthly rent must be positive, got %s", params.MonthlyRent)
	}
	if params.SecurityDeposit.IsNegative() {
		return nil, fmt.Errorf("security deposit cannot be negative, got %s", params.SecurityDeposit)
	}

	agreementId := uuid.New().String()
	zap.L().Info("Creating rental agreement",
		zap.String("id", agreementId),
		zap.String("property_id", params.PropertyId),
		zap.String("landlord_id", params.LandlordId),
		zap.String("tenant_id", params.TenantId),
		zap.String("monthly_rent", params.MonthlyRent.String()))

	_, err := s.db.ExecContext(ctx, queryInsertAgreement,
		agreementId,
		params.PropertyId,
		params.LandlordId,
		params.TenantId,
		params.StartDate.Format(models.DateLayout),
		params.EndDate.Format(models.DateLayout),
		params.MonthlyRent.String(),
		params.SecurityDeposit.String(),
		params.Terms,
		models.AgreementDraft)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("property or party does not exist: %w", store.ErrNotFound)
		}
		zap.L().Error("Failed to insert agreement", zap.Error(err))
		return nil, fmt.Errorf("unable to insert agreement: %w", err)
	}

	return s.GetAgreement(ctx, agreementId)
}

func (s *Service) GetAgreement(ctx context.Context, agreementId string) (*models.RentalAgreement, error) {
	agreement, err := scanAgreement(s.db.QueryRowContext(ctx, queryGetAgreement, agreementId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("agreement %s: %w", agreementId, store.ErrNotFound)
		}
		zap.L().Error("Failed to query agreement", zap.String("agreement_id", agreementId), zap.Error(err))
		return nil, fmt.Errorf("unable to query agreement: %w", err)
	}
	return agreement, nil
}

func (s *Service) ListAgreementsForUser(ctx context.Context, userId string) ([]models.RentalAgreement, error) {
	return s.listAgreements(ctx, queryListAgreementsForUser, userId, userId)
}

func (s *Service) ListAgreementsByStatus(ctx context.Context, status string) ([]models.RentalAgreement, error) {
	return s.listAgreements(ctx, queryListAgreementsByStatus, status)
}

func (s *Service) listAgreements(ctx context.Context, query string, args ...any) ([]models.RentalAgreement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		zap.L().Error("Failed to query agreements", zap.Error(err))
		return nil, fmt.Errorf("unable to query agreements: %w", err)
	}
	defer closeRows(rows)

	var agreements []models.RentalAgreement
	for rows.Next() {
		agreement, err := scanAgreement(rows)
		if err != nil {
			zap.L().Error("Failed to scan agreement row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan agreement row: %w", err)
		}
		agreements = append(agreements, *agreement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agreement rows: %w", err)
	}
	return agreements, nil
}

// SignAgreement records the caller's signature. The read, the conditional
// update and the initial payment insert share one immediate transaction,
// so two concurrent signers cannot both observe the half-signed state.
func (s *Service) SignAgreement(ctx context.Context, agreementId, userId string, now time.Time) (*store.SignAgreementResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Error("Failed to rollback transaction", zap.Error(err))
		}
	}()

	agreement, err := scanAgreement(tx.QueryRowContext(ctx, queryGetAgreement, agreementId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("agreement %s: %w", agreementId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to read agreement: %w", err)
	}

	if !agreement.IsParty(userId) {
		return nil, fmt.Errorf("user %s on agreement %s: %w", userId, agreementId, store.ErrNotParty)
	}
	if agreement.Status == models.AgreementCompleted || agreement.Status == models.AgreementTerminated {
		return nil, fmt.Errorf("cannot sign %s agreement: %w", agreement.Status, store.ErrInvalidTransition)
	}

	signedByLandlord := agreement.SignedByLandlord || userId == agreement.LandlordId
	signedByTenant := agreement.SignedByTenant || userId == agreement.TenantId

	// Repeat signature: nothing to write
	if signedByLandlord == agreement.SignedByLandlord && signedByTenant == agreement.SignedByTenant {
		zap.L().Debug("Signature already recorded",
			zap.String("agreement_id", agreementId),
			zap.String("user_id", userId))
		return &store.SignAgreementResult{Agreement: agreement}, nil
	}

	status := agreement.Status
	signedAt := agreement.SignedAt
	activated := false
	if signedByLandlord && signedByTenant {
		status = models.AgreementActive
		signedAt = &now
		activated = true
	} else if status == models.AgreementDraft {
		status = models.AgreementPending
	}

	result, err := tx.ExecContext(ctx, queryUpdateAgreementSignatures,
		signedByLandlord, signedByTenant, status, signedAt, agreementId, agreement.Version)
	if err != nil {
		return nil, fmt.Errorf("unable to update signatures: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("agreement %s version %d: %w", agreementId, agreement.Version, store.ErrConcurrentModification)
	}

	var payment *models.Payment
	if activated {
		payment = &models.Payment{
			Id:                uuid.New().String(),
			RentalAgreementId: agreementId,
			Kind:              models.PaymentKindInitial,
			Amount:            agreement.MonthlyRent,
			PaymentMethod:     models.PaymentMethodCard,
			Status:            models.PaymentPending,
			PaymentDate:       truncateToDate(now),
			DueDate:           agreement.StartDate,
		}
		if err := insertPayment(ctx, tx, payment); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	agreement.SignedByLandlord = signedByLandlord
	agreement.SignedByTenant = signedByTenant
	agreement.Status = status
	agreement.SignedAt = signedAt
	agreement.Version++

	zap.L().Info("Agreement signed",
		zap.String("agreement_id", agreementId),
		zap.String("user_id", userId),
		zap.String("status", status),
		zap.Bool("activated", activated))

	return &store.SignAgreementResult{
		Agreement: agreement,
		Payment:   payment,
		Activated: activated,
		Changed:   true,
	}, nil
}

// TransitionAgreement moves an agreement from one of the allowed statuses to
// the target status. Activation only happens through SignAgreement.
func (s *Service) TransitionAgreement(ctx context.Context, agreementId string, from []string, to string) (*models.RentalAgreement, error) {
	if to == models.AgreementActive {
		return nil, fmt.Errorf("activation requires both signatures: %w", store.ErrInvalidTransition)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Error("Failed to rollback transaction", zap.Error(err))
		}
	}()

	agreement, err := scanAgreement(tx.QueryRowContext(ctx, queryGetAgreement, agreementId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("agreement %s: %w", agreementId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to read agreement: %w", err)
	}

	if !slices.Contains(from, agreement.Status) {
		return nil, fmt.Errorf("agreement %s is %s, cannot become %s: %w",
			agreementId, agreement.Status, to, store.ErrInvalidTransition)
	}

	result, err := tx.ExecContext(ctx, queryUpdateAgreementStatus, to, agreementId, agreement.Version)
	if err != nil {
		return nil, fmt.Errorf("unable to update agreement status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("agreement %s version %d: %w", agreementId, agreement.Version, store.ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Agreement status changed",
		zap.String("agreement_id", agreementId),
		zap.String("from", agreement.Status),
		zap.String("to", to))

	agreement.Status = to
	agreement.Version++
	return agreement, nil
}

// DeleteAgreement removes the agreement and, through the foreign key cascade,
// all of its payments.
func (s *Service) DeleteAgreement(ctx context.Context, agreementId string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteAgreement, agreementId)
	if err != nil {
		zap.L().Error("Failed to delete agreement", zap.String("agreement_id", agreementId), zap.Error(err))
		return fmt.Errorf("unable to delete agreement: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("agreement %s: %w", agreementId, store.ErrNotFound)
	}

	zap.L().Info("Agreement deleted", zap.String("agreement_id", agreementId))
	return nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
