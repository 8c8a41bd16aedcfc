package formance

import (
	"context"
	"math/big"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetLandlordRentReceived returns the net rent a landlord has received in
// the given currency, refunds deducted.
func (s *Service) GetLandlordRentReceived(ctx context.Context, landlordId, currency string) (decimal.Decimal, error) {
	vols, err := s.getAccountVolumes(ctx, landlordRentAccount(landlordId))
	if err != nil {
		return decimal.Zero, err
	}
	return bigIntToDecimal(volumeBalance(vols, formanceAsset(currency)), currency), nil
}

// GetTenantRentPaid returns the net rent a tenant has paid in the given currency.
func (s *Service) GetTenantRentPaid(ctx context.Context, tenantId, currency string) (decimal.Decimal, error) {
	vols, err := s.getAccountVolumes(ctx, tenantAccount(tenantId))
	if err != nil {
		return decimal.Zero, err
	}
	// Tenant accounts run an overdraft equal to what they paid
	return bigIntToDecimal(volumeBalance(vols, formanceAsset(currency)), currency).Neg(), nil
}

// getAccountVolumes fetches volumes for a single account via GetAccount (clean GET).
func (s *Service) getAccountVolumes(ctx context.Context, address string) (map[string]shared.V2Volume, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		zap.L().Warn("Failed to get account volumes", zap.String("address", address), zap.Error(err))
		return nil, err
	}
	return resp.V2AccountResponse.Data.Volumes, nil
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

// bigIntToDecimal converts a *big.Int in minor units to a decimal amount.
func bigIntToDecimal(raw *big.Int, currency string) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(precisionFor(currency)))
}
