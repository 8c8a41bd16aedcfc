package formance

import (
	"context"
	"fmt"

	"rental-agreements-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Numscript templates. All metadata is set inside the script via
// set_tx_meta() so each Formance transaction is self-describing.

const numscriptRentReceived = `vars {
  asset $asset
  number $amount
  account $tenant_id
  account $landlord_id
  string $payment_id
  string $agreement_id
  string $gateway_ref
}

send [$asset $amount] (
  source = @tenants:$tenant_id allowing unbounded overdraft
  destination = @landlords:$landlord_id:rent
)

set_tx_meta("event_type", "rent_received")
set_tx_meta("payment_id", $payment_id)
set_tx_meta("agreement_id", $agreement_id)
set_tx_meta("gateway_ref", $gateway_ref)
`

const numscriptRentRefunded = `vars {
  asset $asset
  number $amount
  account $tenant_id
  account $landlord_id
  string $payment_id
  string $agreement_id
  string $gateway_ref
}

send [$asset $amount] (
  source = @landlords:$landlord_id:rent allowing unbounded overdraft
  destination = @tenants:$tenant_id
)

set_tx_meta("event_type", "rent_refunded")
set_tx_meta("payment_id", $payment_id)
set_tx_meta("agreement_id", $agreement_id)
set_tx_meta("gateway_ref", $gateway_ref)
`

// RecordPaymentCompleted posts a completed rent payment from the tenant to the
// landlord. The payment id is the transaction reference, so replays are no-ops.
func (s *Service) RecordPaymentCompleted(ctx context.Context, params store.LedgerPaymentParams) error {
	return s.postRent(ctx, numscriptRentReceived, params.PaymentId, params)
}

// RecordPaymentRefunded reverses a previously completed rent payment.
func (s *Service) RecordPaymentRefunded(ctx context.Context, params store.LedgerPaymentParams) error {
	return s.postRent(ctx, numscriptRentRefunded, params.PaymentId+"-refund", params)
}

func (s *Service) postRent(ctx context.Context, script, reference string, params store.LedgerPaymentParams) error {
	postTx := shared.V2PostTransaction{
		Reference: strPtr(reference),
		Script: &shared.V2PostTransactionScript{
			Plain: script,
			Vars:  rentVars(params),
		},
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Info("Rent posting already recorded", zap.String("reference", reference))
			return nil // idempotent
		}
		return fmt.Errorf("error posting rent transaction %s: %w", reference, err)
	}

	zap.L().Info("Rent posted to Formance",
		zap.String("reference", reference),
		zap.String("agreement_id", params.AgreementId),
		zap.String("amount", params.Amount.String()))
	return nil
}

func rentVars(params store.LedgerPaymentParams) map[string]string {
	return map[string]string{
		"asset":        formanceAsset(params.Currency),
		"amount":       smallestUnits(params),
		"tenant_id":    params.TenantId,
		"landlord_id":  params.LandlordId,
		"payment_id":   params.PaymentId,
		"agreement_id": params.AgreementId,
		"gateway_ref":  params.TransactionId,
	}
}

func smallestUnits(params store.LedgerPaymentParams) string {
	return params.Amount.Shift(int32(precisionFor(params.Currency))).BigInt().String()
}
