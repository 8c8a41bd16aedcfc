package store

import (
	"context"
	"errors"
	"time"

	"rental-agreements-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across backend implementations.
var (
	ErrNotFound               = errors.New("not found")
	ErrNotParty               = errors.New("user is not a party to the agreement")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrDuplicatePayment       = errors.New("duplicate payment")
	ErrDuplicateEvent         = errors.New("duplicate gateway event")
	ErrDuplicateUser          = errors.New("user already exists")
)

// CreateUserParams contains the parameters for registering a user.
type CreateUserParams struct {
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

// CreatePropertyParams contains the parameters for listing a property.
type CreatePropertyParams struct {
	LandlordId   string
	Title        string
	Address      string
	City         string
	MonthlyPrice decimal.Decimal
}

// CreateAgreementParams contains the parameters for drafting an agreement.
type CreateAgreementParams struct {
	PropertyId      string
	LandlordId      string
	TenantId        string
	StartDate       time.Time
	EndDate         time.Time
	MonthlyRent     decimal.Decimal
	SecurityDeposit decimal.Decimal
	Terms           string
}

// CreatePaymentParams contains the parameters for adding a payment to an agreement.
type CreatePaymentParams struct {
	RentalAgreementId string
	Kind              string
	Amount            decimal.Decimal
	PaymentMethod     string
	PaymentDate       time.Time
	DueDate           time.Time
}

// SignAgreementResult carries the outcome of applying one signature.
// Payment is set only when this signature activated the agreement.
type SignAgreementResult struct {
	Agreement *models.RentalAgreement
	Payment   *models.Payment
	Activated bool
	Changed   bool
}

// PaymentOutcomeParams describes a payment status change reported by the gateway.
// When Event is set it is recorded in the same transaction as the status change,
// and a redelivered event fails with ErrDuplicateEvent.
type PaymentOutcomeParams struct {
	PaymentId     string
	Status        string
	TransactionId string
	Event         *GatewayEventParams
}

// GatewayEventParams identifies a processed webhook delivery.
type GatewayEventParams struct {
	EventId   string
	Type      string
	PaymentId string
}

// LedgerPaymentParams describes a rent movement mirrored to an external ledger.
type LedgerPaymentParams struct {
	PaymentId     string
	AgreementId   string
	LandlordId    string
	TenantId      string
	Amount        decimal.Decimal
	Currency      string
	TransactionId string
}

// PaymentLedger mirrors settled rent into a double-entry ledger. Posting the
// same payment twice must be a no-op.
type PaymentLedger interface {
	RecordPaymentCompleted(ctx context.Context, params LedgerPaymentParams) error
	RecordPaymentRefunded(ctx context.Context, params LedgerPaymentParams) error
}

// RentalStore defines the contract the storage backend must satisfy.
type RentalStore interface {
	// --- Users ---
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// --- Properties ---
	CreateProperty(ctx context.Context, params CreatePropertyParams) (*models.Property, error)
	GetPropertyById(ctx context.Context, propertyId string) (*models.Property, error)

	// --- Agreements ---
	CreateAgreement(ctx context.Context, params CreateAgreementParams) (*models.RentalAgreement, error)
	GetAgreement(ctx context.Context, agreementId string) (*models.RentalAgreement, error)
	ListAgreementsForUser(ctx context.Context, userId string) ([]models.RentalAgreement, error)
	ListAgreementsByStatus(ctx context.Context, status string) ([]models.RentalAgreement, error)
	SignAgreement(ctx context.Context, agreementId, userId string, now time.Time) (*SignAgreementResult, error)
	TransitionAgreement(ctx context.Context, agreementId string, from []string, to string) (*models.RentalAgreement, error)
	DeleteAgreement(ctx context.Context, agreementId string) error

	// --- Payments ---
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentId string) (*models.Payment, error)
	ListPayments(ctx context.Context, agreementId string) ([]models.Payment, error)
	ApplyPaymentOutcome(ctx context.Context, params PaymentOutcomeParams) (*models.Payment, bool, error)
	RecordGatewayEvent(ctx context.Context, params GatewayEventParams) error

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
