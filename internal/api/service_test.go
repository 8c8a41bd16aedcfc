package api

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"rental-agreements-go/internal/cache"
	"rental-agreements-go/internal/database"
	"rental-agreements-go/internal/gateway"
	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

type fakeGateway struct {
	mu         sync.Mutex
	calls      int
	err        error
	lastAmount int64
	lastMeta   map[string]string
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	g.lastAmount = amountMinor
	g.lastMeta = metadata
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeLedger struct {
	mu        sync.Mutex
	completed []string
	refunded  []string
}

func (l *fakeLedger) RecordPaymentCompleted(ctx context.Context, params store.LedgerPaymentParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed = append(l.completed, params.PaymentId)
	return nil
}

func (l *fakeLedger) RecordPaymentRefunded(ctx context.Context, params store.LedgerPaymentParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refunded = append(l.refunded, params.PaymentId)
	return nil
}

type testEnv struct {
	svc      *RentalService
	db       *database.Service
	gateway  *fakeGateway
	ledger   *fakeLedger
	redis    *miniredis.Miniredis
	landlord *models.User
	tenant   *models.User
	stranger *models.User
	property *models.Property
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "api_test.db"),
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gw := &fakeGateway{}
	ledger := &fakeLedger{}
	svc := NewRentalService(db, gw, cache.NewRedisIntentCache(client, 30*time.Minute), ledger, models.GatewayConfig{
		Currency:         "usd",
		Timeout:          2 * time.Second,
		WebhookSecret:    testWebhookSecret,
		WebhookTolerance: 5 * time.Minute,
	})

	env := &testEnv{svc: svc, db: db, gateway: gw, ledger: ledger, redis: mr}

	env.landlord, err = db.CreateUser(ctx, store.CreateUserParams{Name: "Laura", Email: "laura@example.com", Role: models.RoleLandlord})
	require.NoError(t, err)
	env.tenant, err = db.CreateUser(ctx, store.CreateUserParams{Name: "Tom", Email: "tom@example.com", Role: models.RoleTenant})
	require.NoError(t, err)
	env.stranger, err = db.CreateUser(ctx, store.CreateUserParams{Name: "Sam", Email: "sam@example.com", Role: models.RoleTenant})
	require.NoError(t, err)
	env.property, err = db.CreateProperty(ctx, store.CreatePropertyParams{
		LandlordId:   env.landlord.Id,
		Title:        "Loft",
		City:         "Springfield",
		MonthlyPrice: decimal.NewFromFloat(1500.00),
	})
	require.NoError(t, err)

	return env
}

func (env *testEnv) draftAgreement(t *testing.T) *models.RentalAgreement {
	t.Helper()

	agreement, err := env.svc.CreateAgreement(context.Background(), env.landlord.Id, CreateAgreementInput{
		PropertyId:  env.property.Id,
		TenantId:    env.tenant.Id,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		MonthlyRent: decimal.NewFromFloat(1500.00),
	})
	require.NoError(t, err)
	return agreement
}

// activeAgreement drafts and fully signs an agreement, returning its initial payment.
func (env *testEnv) activeAgreement(t *testing.T) (*models.RentalAgreement, *models.Payment) {
	t.Helper()
	ctx := context.Background()

	agreement := env.draftAgreement(t)
	_, err := env.svc.SignAgreement(ctx, agreement.Id, env.landlord.Id)
	require.NoError(t, err)
	result, err := env.svc.SignAgreement(ctx, agreement.Id, env.tenant.Id)
	require.NoError(t, err)
	require.True(t, result.Activated)
	require.NotNil(t, result.Payment)
	return result.Agreement, result.Payment
}

func TestHealthCheck(t *testing.T) {
	env := setupTestService(t)
	require.NoError(t, env.svc.HealthCheck(context.Background()))
}
