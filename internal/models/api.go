package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgreementView is the JSON representation of a rental agreement
type AgreementView struct {
	Id               string          `json:"id"`
	PropertyId       string          `json:"property_id"`
	LandlordId       string          `json:"landlord_id"`
	TenantId         string          `json:"tenant_id"`
	StartDate        string          `json:"start_date"`
	EndDate          string          `json:"end_date"`
	MonthlyRent      decimal.Decimal `json:"monthly_rent"`
	SecurityDeposit  decimal.Decimal `json:"security_deposit"`
	Terms            string          `json:"terms"`
	Status           string          `json:"status"`
	SignedByLandlord bool            `json:"signed_by_landlord"`
	SignedByTenant   bool            `json:"signed_by_tenant"`
	SignedAt         *time.Time      `json:"signed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// PaymentView is the JSON representation of a payment
type PaymentView struct {
	Id                string          `json:"id"`
	RentalAgreementId string          `json:"rental_agreement_id"`
	Kind              string          `json:"kind"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentMethod     string          `json:"payment_method"`
	Status            string          `json:"status"`
	TransactionId     string          `json:"transaction_id,omitempty"`
	PaymentDate       string          `json:"payment_date"`
	DueDate           string          `json:"due_date"`
	ReceiptUrl        string          `json:"receipt_url,omitempty"`
}

// SignResult is returned by a sign request
type SignResult struct {
	Agreement AgreementView `json:"agreement"`
	Activated bool          `json:"activated"`
	Payment   *PaymentView  `json:"payment,omitempty"`
}

// PaymentIntentResult represents the result of a create-intent request.
// Gateway failures are reported here rather than as errors.
type PaymentIntentResult struct {
	Success      bool   `json:"success"`
	PaymentId    string `json:"payment_id,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Cached       bool   `json:"cached,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ToAgreementView converts a stored agreement for the wire
func ToAgreementView(a *RentalAgreement) AgreementView {
	return AgreementView{
		Id:               a.Id,
		PropertyId:       a.PropertyId,
		LandlordId:       a.LandlordId,
		TenantId:         a.TenantId,
		StartDate:        a.StartDate.Format(DateLayout),
		EndDate:          a.EndDate.Format(DateLayout),
		MonthlyRent:      a.MonthlyRent,
		SecurityDeposit:  a.SecurityDeposit,
		Terms:            a.Terms,
		Status:           a.Status,
		SignedByLandlord: a.SignedByLandlord,
		SignedByTenant:   a.SignedByTenant,
		SignedAt:         a.SignedAt,
		CreatedAt:        a.CreatedAt,
	}
}

// ToPaymentView converts a stored payment for the wire
func ToPaymentView(p *Payment) PaymentView {
	return PaymentView{
		Id:                p.Id,
		RentalAgreementId: p.RentalAgreementId,
		Kind:              p.Kind,
		Amount:            p.Amount,
		PaymentMethod:     p.PaymentMethod,
		Status:            p.Status,
		TransactionId:     p.TransactionId,
		PaymentDate:       p.PaymentDate.Format(DateLayout),
		DueDate:           p.DueDate.Format(DateLayout),
		ReceiptUrl:        p.ReceiptUrl,
	}
}

// WebhookResult reports how a gateway event was handled
type WebhookResult struct {
	EventId   string `json:"event_id"`
	Type      string `json:"type"`
	PaymentId string `json:"payment_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
}
