package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var amount, paymentDate, dueDate string

	err := row.Scan(&p.Id, &p.RentalAgreementId, &p.Kind, &amount, &p.PaymentMethod, &p.Status,
		&p.TransactionId, &paymentDate, &dueDate, &p.ReceiptUrl, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if p.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}
	if p.PaymentDate, err = parseDate("payment date", paymentDate); err != nil {
		return nil, err
	}
	if p.DueDate, err = parseDate("due date", dueDate); err != nil {
		return nil, err
	}
	return &p, nil
}

func paymentArgs(p *models.Payment) []any {
	return []any{
		p.Id,
		p.RentalAgreementId,
		p.Kind,
		p.Amount.String(),
		p.PaymentMethod,
		p.Status,
		p.PaymentDate.Format(models.DateLayout),
		p.DueDate.Format(models.DateLayout),
	}
}

func insertPayment(ctx context.Context, db execer, p *models.Payment) error {
	_, err := db.ExecContext(ctx, queryInsertPayment, paymentArgs(p)...)
	if err != nil {
		return insertPaymentError(p, err)
	}
	return nil
}

// insertPaymentIfActive inserts p only while its agreement is active, in the
// same statement, so a concurrent termination cannot slip in between.
func insertPaymentIfActive(ctx context.Context, db execer, p *models.Payment) (bool, error) {
	result, err := db.ExecContext(ctx, queryInsertPaymentIfActive, append(paymentArgs(p), p.RentalAgreementId)...)
	if err != nil {
		return false, insertPaymentError(p, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func insertPaymentError(p *models.Payment, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s payment for agreement %s due %s: %w",
			p.Kind, p.RentalAgreementId, p.DueDate.Format(models.DateLayout), store.ErrDuplicatePayment)
	case isForeignKeyViolation(err):
		return fmt.Errorf("agreement %s: %w", p.RentalAgreementId, store.ErrNotFound)
	}
	zap.L().Error("Failed to insert payment", zap.String("agreement_id", p.RentalAgreementId), zap.Error(err))
	return fmt.Errorf("unable to insert payment: %w", err)
}

// CreatePayment adds a pending payment to an active agreement. Agreements in
// any other status are rejected with ErrInvalidTransition.
func (s *Service) CreatePayment(ctx context.Context, params store.CreatePaymentParams) (*models.Payment, error) {
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive, got %s", params.Amount)
	}

	method := params.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCard
	}

	payment := &models.Payment{
		Id:                uuid.New().String(),
		RentalAgreementId: params.RentalAgreementId,
		Kind:              params.Kind,
		Amount:            params.Amount,
		PaymentMethod:     method,
		Status:            models.PaymentPending,
		PaymentDate:       truncateToDate(params.PaymentDate),
		DueDate:           truncateToDate(params.DueDate),
	}
	inserted, err := insertPaymentIfActive(ctx, s.db, payment)
	if err != nil {
		return nil, err
	}
	if !inserted {
		agreement, err := s.GetAgreement(ctx, payment.RentalAgreementId)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("agreement %s is %s, cannot take payments: %w",
			agreement.Id, agreement.Status, store.ErrInvalidTransition)
	}

	zap.L().Info("Payment created",
		zap.String("payment_id", payment.Id),
		zap.String("agreement_id", payment.RentalAgreementId),
		zap.String("kind", payment.Kind),
		zap.String("amount", payment.Amount.String()),
		zap.String("due_date", payment.DueDate.Format(models.DateLayout)))

	return s.GetPayment(ctx, payment.Id)
}

func (s *Service) GetPayment(ctx context.Context, paymentId string) (*models.Payment, error) {
	payment, err := scanPayment(s.db.QueryRowContext(ctx, queryGetPayment, paymentId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", paymentId, store.ErrNotFound)
		}
		zap.L().Error("Failed to query payment", zap.String("payment_id", paymentId), zap.Error(err))
		return nil, fmt.Errorf("unable to query payment: %w", err)
	}
	return payment, nil
}

func (s *Service) ListPayments(ctx context.Context, agreementId string) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, queryListPayments, agreementId)
	if err != nil {
		zap.L().Error("Failed to query payments", zap.String("agreement_id", agreementId), zap.Error(err))
		return nil, fmt.Errorf("unable to query payments: %w", err)
	}
	defer closeRows(rows)

	var payments []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			zap.L().Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan payment row: %w", err)
		}
		payments = append(payments, *payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}

// ApplyPaymentOutcome moves a payment to the reported status. Re-applying
// the current status reports changed=false and only fills in a missing
// transaction id.
func (s *Service) ApplyPaymentOutcome(ctx context.Context, params store.PaymentOutcomeParams) (*models.Payment, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Error("Failed to rollback transaction", zap.Error(err))
		}
	}()

	payment, err := scanPayment(tx.QueryRowContext(ctx, queryGetPayment, params.PaymentId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("payment %s: %w", params.PaymentId, store.ErrNotFound)
		}
		return nil, false, fmt.Errorf("unable to read payment: %w", err)
	}

	if params.Event != nil {
		if err := insertGatewayEvent(ctx, tx, *params.Event); err != nil {
			return nil, false, err
		}
	}

	if payment.Status == params.Status {
		zap.L().Debug("Payment already in requested status",
			zap.String("payment_id", payment.Id),
			zap.String("status", payment.Status))
		filled := false
		if params.TransactionId != "" && payment.TransactionId == "" {
			if _, err := tx.ExecContext(ctx, queryFillPaymentTransactionId, params.TransactionId, payment.Id); err != nil {
				return nil, false, fmt.Errorf("unable to set payment transaction id: %w", err)
			}
			payment.TransactionId = params.TransactionId
			filled = true
		}
		if params.Event != nil || filled {
			if err := tx.Commit(); err != nil {
				return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
			}
		}
		if filled {
			zap.L().Info("Payment transaction id recorded",
				zap.String("payment_id", payment.Id),
				zap.String("transaction_id", payment.TransactionId))
		}
		return payment, false, nil
	}

	if !models.CanTransitionPayment(payment.Status, params.Status) {
		return nil, false, fmt.Errorf("payment %s is %s, cannot become %s: %w",
			payment.Id, payment.Status, params.Status, store.ErrInvalidTransition)
	}

	result, err := tx.ExecContext(ctx, queryUpdatePaymentStatus,
		params.Status, params.TransactionId, params.TransactionId, payment.Id, payment.Status)
	if err != nil {
		return nil, false, fmt.Errorf("unable to update payment status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, false, fmt.Errorf("payment %s: %w", payment.Id, store.ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Payment status changed",
		zap.String("payment_id", payment.Id),
		zap.String("from", payment.Status),
		zap.String("to", params.Status),
		zap.String("transaction_id", params.TransactionId))

	payment.Status = params.Status
	if params.TransactionId != "" {
		payment.TransactionId = params.TransactionId
	}
	return payment, true, nil
}

// RecordGatewayEvent stores a webhook event id. A second delivery of the same
// id returns ErrDuplicateEvent.
func (s *Service) RecordGatewayEvent(ctx context.Context, params store.GatewayEventParams) error {
	return insertGatewayEvent(ctx, s.db, params)
}

func insertGatewayEvent(ctx context.Context, db execer, params store.GatewayEventParams) error {
	_, err := db.ExecContext(ctx, queryInsertGatewayEvent, params.EventId, params.Type, params.PaymentId)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("event %s: %w", params.EventId, store.ErrDuplicateEvent)
		}
		zap.L().Error("Failed to record gateway event", zap.String("event_id", params.EventId), zap.Error(err))
		return fmt.Errorf("unable to record gateway event: %w", err)
	}
	return nil
}
