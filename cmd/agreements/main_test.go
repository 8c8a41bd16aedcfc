package main

import (
	"context"
	"errors"
	"testing"

	"rental-agreements-go/internal/common"
	"rental-agreements-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRentLedger struct {
	received map[string]decimal.Decimal
	paid     map[string]decimal.Decimal
	err      error
}

func (l *fakeRentLedger) GetLandlordRentReceived(ctx context.Context, landlordId, currency string) (decimal.Decimal, error) {
	return l.received[landlordId], l.err
}

func (l *fakeRentLedger) GetTenantRentPaid(ctx context.Context, tenantId, currency string) (decimal.Decimal, error) {
	return l.paid[tenantId], l.err
}

func TestLedgerTotal(t *testing.T) {
	ctx := context.Background()
	ledger := &fakeRentLedger{
		received: map[string]decimal.Decimal{"landlord-1": decimal.NewFromInt(3000)},
		paid:     map[string]decimal.Decimal{"tenant-1": decimal.NewFromInt(1500)},
	}

	label, amount, err := ledgerTotal(ctx, common.UserInfo{Id: "landlord-1", Role: models.RoleLandlord}, ledger, "USD")
	require.NoError(t, err)
	assert.Equal(t, "Rent received", label)
	assert.True(t, amount.Equal(decimal.NewFromInt(3000)))

	label, amount, err = ledgerTotal(ctx, common.UserInfo{Id: "tenant-1", Role: models.RoleTenant}, ledger, "USD")
	require.NoError(t, err)
	assert.Equal(t, "Rent paid", label)
	assert.True(t, amount.Equal(decimal.NewFromInt(1500)))

	ledger.err = errors.New("stack unreachable")
	_, _, err = ledgerTotal(ctx, common.UserInfo{Id: "tenant-1", Role: models.RoleTenant}, ledger, "USD")
	assert.Error(t, err)
}

func TestFormatTransactionId(t *testing.T) {
	assert.Equal(t, "none", formatTransactionId(""))
	assert.Equal(t, "pi_1", formatTransactionId("pi_1"))
	assert.Equal(t, "pi_12345...", formatTransactionId("pi_123456789"))
}
