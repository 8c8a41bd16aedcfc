package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Gateway creates payment intents with an external card processor.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
}

// Intent is the processor-side handle for a single charge attempt.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Error is returned for declines, API errors and transport failures.
// StatusCode is zero when no response was received.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

// MinorUnits converts an amount to integer cents. Amounts with more than two
// decimal places are rejected rather than rounded.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount cannot be negative: %s", amount)
	}

	shifted := amount.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", amount)
	}
	return shifted.IntPart(), nil
}
