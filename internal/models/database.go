package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleLandlord = "landlord"
	RoleTenant   = "tenant"
)

// Agreement statuses
const (
	AgreementDraft      = "draft"
	AgreementPending    = "pending"
	AgreementActive     = "active"
	AgreementCompleted  = "completed"
	AgreementTerminated = "terminated"
)

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Payment methods
const (
	PaymentMethodCard         = "card"
	PaymentMethodWallet       = "wallet"
	PaymentMethodBankTransfer = "bank_transfer"
)

// Payment kinds. At most one initial payment exists per agreement and at
// most one recurring payment per agreement and due date.
const (
	PaymentKindInitial   = "initial"
	PaymentKindRecurring = "recurring"
	PaymentKindManual    = "manual"
)

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

// User represents a landlord or tenant account
type User struct {
	Id           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Property is a listing owned by a landlord
type Property struct {
	Id           string          `db:"id"`
	LandlordId   string          `db:"landlord_id"`
	Title        string          `db:"title"`
	Address      string          `db:"address"`
	City         string          `db:"city"`
	MonthlyPrice decimal.Decimal `db:"monthly_price"`
	CreatedAt    time.Time       `db:"created_at"`
}

// RentalAgreement is a lease between the landlord and a tenant of a property
type RentalAgreement struct {
	Id               string          `db:"id"`
	PropertyId       string          `db:"property_id"`
	LandlordId       string          `db:"landlord_id"`
	TenantId         string          `db:"tenant_id"`
	StartDate        time.Time       `db:"start_date"`
	EndDate          time.Time       `db:"end_date"`
	MonthlyRent      decimal.Decimal `db:"monthly_rent"`
	SecurityDeposit  decimal.Decimal `db:"security_deposit"`
	Terms            string          `db:"terms"`
	Status           string          `db:"status"`
	SignedByLandlord bool            `db:"signed_by_landlord"`
	SignedByTenant   bool            `db:"signed_by_tenant"`
	SignedAt         *time.Time      `db:"signed_at"`
	Version          int64           `db:"version"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// IsFullySigned reports whether both parties have signed
func (a *RentalAgreement) IsFullySigned() bool {
	return a.SignedByLandlord && a.SignedByTenant
}

// IsParty reports whether userId is the landlord or the tenant of the agreement
func (a *RentalAgreement) IsParty(userId string) bool {
	return userId != "" && (userId == a.LandlordId || userId == a.TenantId)
}

// Payment is a single rent charge belonging to an agreement
type Payment struct {
	Id                string          `db:"id"`
	RentalAgreementId string          `db:"rental_agreement_id"`
	Kind              string          `db:"kind"`
	Amount            decimal.Decimal `db:"amount"`
	PaymentMethod     string          `db:"payment_method"`
	Status            string          `db:"status"`
	TransactionId     string          `db:"transaction_id"`
	PaymentDate       time.Time       `db:"payment_date"`
	DueDate           time.Time       `db:"due_date"`
	ReceiptUrl        string          `db:"receipt_url"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

var paymentTransitions = map[string][]string{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
}

// CanTransitionPayment reports whether a payment may move from one status to another
func CanTransitionPayment(from, to string) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
