package api

import (
	"context"
	"sync"
	"testing"
	"time"

	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAgreement_Scenario(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	signedAt := time.Date(2023, 12, 20, 9, 0, 0, 0, time.UTC)
	env.svc.now = func() time.Time { return signedAt }

	agreement := env.draftAgreement(t)

	first, err := env.svc.SignAgreement(ctx, agreement.Id, env.landlord.Id)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementPending, first.Agreement.Status)
	assert.False(t, first.Activated)

	payments, err := env.svc.ListPayments(ctx, agreement.Id, env.landlord.Id)
	require.NoError(t, err)
	assert.Empty(t, payments)

	second, err := env.svc.SignAgreement(ctx, agreement.Id, env.tenant.Id)
	require.NoError(t, err)
	assert.True(t, second.Activated)
	assert.Equal(t, models.AgreementActive, second.Agreement.Status)
	require.NotNil(t, second.Agreement.SignedAt)
	assert.True(t, second.Agreement.SignedAt.Equal(signedAt))

	payments, err = env.svc.ListPayments(ctx, agreement.Id, env.tenant.Id)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromFloat(1500.00)))
	assert.Equal(t, models.PaymentPending, payments[0].Status)
	assert.Equal(t, "2024-01-01", payments[0].DueDate.Format(models.DateLayout))
}

func TestSignAgreement_ConcurrentThroughService(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		agreement := env.draftAgreement(t)

		var wg sync.WaitGroup
		errs := make(chan error, 4)
		for _, signer := range []string{env.landlord.Id, env.tenant.Id, env.landlord.Id, env.tenant.Id} {
			wg.Add(1)
			go func(signer string) {
				defer wg.Done()
				_, err := env.svc.SignAgreement(ctx, agreement.Id, signer)
				errs <- err
			}(signer)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		stored, err := env.svc.GetAgreement(ctx, agreement.Id, env.tenant.Id)
		require.NoError(t, err)
		assert.Equal(t, models.AgreementActive, stored.Status)
		assert.True(t, stored.IsFullySigned())

		payments, err := env.svc.ListPayments(ctx, agreement.Id, env.tenant.Id)
		require.NoError(t, err)
		assert.Len(t, payments, 1)
	}
}

func TestSignAgreement_NonParty(t *testing.T) {
	env := setupTestService(t)
	agreement := env.draftAgreement(t)

	_, err := env.svc.SignAgreement(context.Background(), agreement.Id, env.stranger.Id)
	assert.ErrorIs(t, err, store.ErrNotParty)
}

func TestCreateAgreement_Rules(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	input := CreateAgreementInput{
		PropertyId: env.property.Id,
		TenantId:   env.tenant.Id,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}

	// Rent defaults to the listed price
	agreement, err := env.svc.CreateAgreement(ctx, env.landlord.Id, input)
	require.NoError(t, err)
	assert.True(t, agreement.MonthlyRent.Equal(decimal.NewFromFloat(1500.00)))
	assert.Equal(t, models.AgreementDraft, agreement.Status)

	_, err = env.svc.CreateAgreement(ctx, env.tenant.Id, input)
	assert.ErrorIs(t, err, ErrForbidden)

	bad := input
	bad.TenantId = env.landlord.Id
	_, err = env.svc.CreateAgreement(ctx, env.landlord.Id, bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = input
	bad.EndDate = bad.StartDate
	_, err = env.svc.CreateAgreement(ctx, env.landlord.Id, bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = input
	bad.MonthlyRent = decimal.RequireFromString("1500.005")
	_, err = env.svc.CreateAgreement(ctx, env.landlord.Id, bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = input
	bad.PropertyId = "missing"
	_, err = env.svc.CreateAgreement(ctx, env.landlord.Id, bad)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompleteAndTerminate(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	draft := env.draftAgreement(t)
	_, err := env.svc.CompleteAgreement(ctx, draft.Id, env.landlord.Id)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	active, _ := env.activeAgreement(t)
	_, err = env.svc.CompleteAgreement(ctx, active.Id, env.tenant.Id)
	assert.ErrorIs(t, err, ErrForbidden)

	completed, err := env.svc.CompleteAgreement(ctx, active.Id, env.landlord.Id)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementCompleted, completed.Status)

	_, err = env.svc.TerminateAgreement(ctx, active.Id, env.tenant.Id)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	terminated, err := env.svc.TerminateAgreement(ctx, draft.Id, env.tenant.Id)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementTerminated, terminated.Status)

	_, err = env.svc.TerminateAgreement(ctx, draft.Id, env.stranger.Id)
	assert.ErrorIs(t, err, store.ErrNotParty)
}

func TestDeleteAgreement(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	active, payment := env.activeAgreement(t)
	err := env.svc.DeleteAgreement(ctx, active.Id, env.landlord.Id)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	_, err = env.svc.TerminateAgreement(ctx, active.Id, env.landlord.Id)
	require.NoError(t, err)

	err = env.svc.DeleteAgreement(ctx, active.Id, env.tenant.Id)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.svc.DeleteAgreement(ctx, active.Id, env.landlord.Id))

	_, err = env.db.GetPayment(ctx, payment.Id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListAgreements(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	env.draftAgreement(t)
	env.draftAgreement(t)

	mine, err := env.svc.ListAgreements(ctx, env.tenant.Id)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := env.svc.ListAgreements(ctx, env.stranger.Id)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	_, err = env.svc.GetAgreement(ctx, mine[0].Id, env.stranger.Id)
	assert.ErrorIs(t, err, store.ErrNotParty)
}
