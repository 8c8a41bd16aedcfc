package formance

import (
	"math/big"
	"testing"

	"rental-agreements-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestFormanceAsset(t *testing.T) {
	tests := []struct {
		currency string
		want     string
	}{
		{"usd", "USD/2"},
		{"EUR", "EUR/2"},
		{"jpy", "JPY/0"},
		{"XYZ", "XYZ/2"}, // default precision
	}
	for _, tt := range tests {
		if got := formanceAsset(tt.currency); got != tt.want {
			t.Errorf("formanceAsset(%q) = %q, want %q", tt.currency, got, tt.want)
		}
	}
}

func TestBigIntToDecimal(t *testing.T) {
	// 150_000 cents = 1500.00
	result := bigIntToDecimal(big.NewInt(150_000), "usd")
	if !result.Equal(decimal.NewFromFloat(1500.00)) {
		t.Errorf("expected 1500.00, got %s", result.String())
	}

	result = bigIntToDecimal(big.NewInt(1500), "JPY")
	if !result.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected 1500, got %s", result.String())
	}

	// nil should return zero
	result = bigIntToDecimal(nil, "usd")
	if !result.IsZero() {
		t.Errorf("expected 0, got %s", result.String())
	}
}

func TestVolumeBalance(t *testing.T) {
	vols := map[string]shared.V2Volume{
		"USD/2": {Input: big.NewInt(300_000), Output: big.NewInt(150_000)},
	}
	if got := volumeBalance(vols, "USD/2"); got.Cmp(big.NewInt(150_000)) != 0 {
		t.Errorf("expected 150000, got %s", got)
	}
	if got := volumeBalance(vols, "EUR/2"); got != nil {
		t.Errorf("expected nil for missing asset, got %s", got)
	}
}

func TestRentVars(t *testing.T) {
	vars := rentVars(store.LedgerPaymentParams{
		PaymentId:     "pay-1",
		AgreementId:   "agr-1",
		LandlordId:    "landlord-1",
		TenantId:      "tenant-1",
		Amount:        decimal.NewFromFloat(1500.00),
		Currency:      "usd",
		TransactionId: "pi_1",
	})

	want := map[string]string{
		"asset":        "USD/2",
		"amount":       "150000",
		"tenant_id":    "tenant-1",
		"landlord_id":  "landlord-1",
		"payment_id":   "pay-1",
		"agreement_id": "agr-1",
		"gateway_ref":  "pi_1",
	}
	for key, value := range want {
		if vars[key] != value {
			t.Errorf("vars[%q] = %q, want %q", key, vars[key], value)
		}
	}
}

func TestAccountPaths(t *testing.T) {
	if got := tenantAccount("t1"); got != "tenants:t1" {
		t.Errorf("tenantAccount = %q", got)
	}
	if got := landlordRentAccount("l1"); got != "landlords:l1:rent" {
		t.Errorf("landlordRentAccount = %q", got)
	}
}

func TestIsConflictError(t *testing.T) {
	// nil error should not be a conflict
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
}
