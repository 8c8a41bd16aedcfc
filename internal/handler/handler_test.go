package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"rental-agreements-go/internal/api"
	"rental-agreements-go/internal/auth"
	"rental-agreements-go/internal/database"
	"rental-agreements-go/internal/gateway"
	"rental-agreements-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_handler"

type stubGateway struct {
	mu  sync.Mutex
	err error
}

func (g *stubGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Intent{ID: "pi_h", ClientSecret: "pi_h_secret"}, nil
}

type server struct {
	t       *testing.T
	srv     *httptest.Server
	gateway *stubGateway
}

func setupServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "handler_test.db"),
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	gw := &stubGateway{}
	svc := api.NewRentalService(db, gw, nil, nil, models.GatewayConfig{
		Currency:         "usd",
		WebhookSecret:    testWebhookSecret,
		WebhookTolerance: 5 * time.Minute,
	})
	tokens, err := auth.NewTokenManager(models.AuthConfig{
		JWTSecret: "handler-test-secret-value",
		TokenTTL:  time.Hour,
		Issuer:    "rental-agreements",
	})
	require.NoError(t, err)

	for _, u := range []struct{ name, email, role string }{
		{"Laura", "laura@example.com", models.RoleLandlord},
		{"Tom", "tom@example.com", models.RoleTenant},
		{"Sam", "sam@example.com", models.RoleTenant},
	} {
		_, err := svc.RegisterUser(ctx, u.name, u.email, u.role, "password-123")
		require.NoError(t, err)
	}

	srv := httptest.NewServer(New(svc, tokens).Router())
	t.Cleanup(srv.Close)
	return &server{t: t, srv: srv, gateway: gw}
}

func (s *server) do(method, path, token string, body any, out any) int {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *server) login(email string) (string, string) {
	s.t.Helper()

	var resp loginResponse
	status := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "password-123"}, &resp)
	require.Equal(s.t, http.StatusOK, status)
	return resp.AccessToken, resp.User.Id
}

// activeAgreement walks an agreement through creation and both signatures
func (s *server) activeAgreement(landlord, tenant, tenantId string) (models.AgreementView, models.PaymentView) {
	s.t.Helper()

	var property propertyView
	status := s.do(http.MethodPost, "/properties", landlord, map[string]any{
		"title": "Loft", "city": "Springfield", "monthly_price": "1500.00",
	}, &property)
	require.Equal(s.t, http.StatusCreated, status)

	var agreement models.AgreementView
	status = s.do(http.MethodPost, "/properties/"+property.Id+"/agreements", landlord, map[string]any{
		"tenant_id": tenantId, "start_date": "2024-01-01", "end_date": "2024-12-31", "monthly_rent": "1500.00",
	}, &agreement)
	require.Equal(s.t, http.StatusCreated, status)
	assert.Equal(s.t, models.AgreementDraft, agreement.Status)

	var first models.SignResult
	require.Equal(s.t, http.StatusOK, s.do(http.MethodPost, "/agreements/"+agreement.Id+"/sign", landlord, nil, &first))
	assert.Equal(s.t, models.AgreementPending, first.Agreement.Status)
	assert.Nil(s.t, first.Payment)

	var second models.SignResult
	require.Equal(s.t, http.StatusOK, s.do(http.MethodPost, "/agreements/"+agreement.Id+"/sign", tenant, nil, &second))
	require.True(s.t, second.Activated)
	require.NotNil(s.t, second.Payment)
	return second.Agreement, *second.Payment
}

func TestHealthz(t *testing.T) {
	s := setupServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestLogin(t *testing.T) {
	s := setupServer(t)

	var body errorBody
	status := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "tom@example.com", "password": "nope-nope"}, &body)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "tom@example.com", "extra": "x"}, &body)
	assert.Equal(t, http.StatusBadRequest, status)

	token, _ := s.login("tom@example.com")
	assert.NotEmpty(t, token)
}

func TestAgreementFlow(t *testing.T) {
	s := setupServer(t)
	landlord, _ := s.login("laura@example.com")
	tenant, tenantId := s.login("tom@example.com")
	stranger, _ := s.login("sam@example.com")

	agreement, payment := s.activeAgreement(landlord, tenant, tenantId)
	assert.Equal(t, models.AgreementActive, agreement.Status)
	assert.Equal(t, "1500", payment.Amount.String())
	assert.Equal(t, "2024-01-01", payment.DueDate)

	var list []models.AgreementView
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/agreements", tenant, nil, &list))
	assert.Len(t, list, 1)

	var payments []models.PaymentView
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/agreements/"+agreement.Id+"/payments", tenant, nil, &payments))
	assert.Len(t, payments, 1)

	var body errorBody
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/agreements/"+agreement.Id, stranger, nil, &body))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/agreements/"+agreement.Id+"/sign", stranger, nil, &body))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/agreements/missing", tenant, nil, &body))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/agreements", "", nil, &body))

	// Active agreements cannot be deleted
	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, "/agreements/"+agreement.Id, landlord, nil, &body))

	var completed models.AgreementView
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/agreements/"+agreement.Id+"/complete", landlord, nil, &completed))
	assert.Equal(t, models.AgreementCompleted, completed.Status)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/agreements/"+agreement.Id+"/terminate", tenant, nil, &body))
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/agreements/"+agreement.Id, landlord, nil, nil))
}

func TestCreateAgreement_BadInput(t *testing.T) {
	s := setupServer(t)
	landlord, _ := s.login("laura@example.com")
	tenant, tenantId := s.login("tom@example.com")

	var property propertyView
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/properties", landlord, map[string]any{"title": "Loft", "monthly_price": 1200}, &property))

	var body errorBody
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/properties/"+property.Id+"/agreements", landlord, map[string]any{
		"tenant_id": tenantId, "start_date": "01/01/2024", "end_date": "2024-12-31",
	}, &body))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/properties/"+property.Id+"/agreements", tenant, map[string]any{
		"tenant_id": tenantId, "start_date": "2024-01-01", "end_date": "2024-12-31",
	}, &body))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/properties", tenant, map[string]any{"title": "Shed"}, &body))
}

func TestPaymentEndpoints(t *testing.T) {
	s := setupServer(t)
	landlord, _ := s.login("laura@example.com")
	tenant, tenantId := s.login("tom@example.com")
	stranger, _ := s.login("sam@example.com")
	_, payment := s.activeAgreement(landlord, tenant, tenantId)

	var body errorBody
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/payments/missing/create-intent", tenant, nil, &body))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/payments/"+payment.Id+"/create-intent", stranger, nil, &body))

	s.gateway.mu.Lock()
	s.gateway.err = &gateway.Error{StatusCode: http.StatusPaymentRequired, Code: "card_declined", Message: "declined"}
	s.gateway.mu.Unlock()

	var failed models.PaymentIntentResult
	assert.Equal(t, http.StatusPaymentRequired, s.do(http.MethodPost, "/payments/"+payment.Id+"/create-intent", tenant, nil, &failed))
	assert.False(t, failed.Success)
	assert.NotEmpty(t, failed.Error)

	s.gateway.mu.Lock()
	s.gateway.err = nil
	s.gateway.mu.Unlock()

	var intent models.PaymentIntentResult
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/payments/"+payment.Id+"/create-intent", tenant, nil, &intent))
	assert.True(t, intent.Success)
	assert.Equal(t, "pi_h_secret", intent.ClientSecret)

	var view models.PaymentView
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/payments/"+payment.Id+"/success", tenant, nil, &view))
	assert.Equal(t, models.PaymentCompleted, view.Status)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/payments/"+payment.Id+"/failed", tenant, nil, &body))
}

func TestGatewayWebhook(t *testing.T) {
	s := setupServer(t)
	landlord, _ := s.login("laura@example.com")
	tenant, tenantId := s.login("tom@example.com")
	_, payment := s.activeAgreement(landlord, tenant, tenantId)

	payload := []byte(`{"id":"evt_h1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_h","object":"payment_intent","metadata":{"payment_id":"` + payment.Id + `"}}}}`)

	post := func(header string) (int, models.WebhookResult) {
		req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/webhooks/gateway", bytes.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set(gateway.SignatureHeaderName, header)
		resp, err := s.srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var result models.WebhookResult
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		}
		return resp.StatusCode, result
	}

	status, _ := post(gateway.SignatureHeader(payload, "not-the-secret", time.Now()))
	assert.Equal(t, http.StatusBadRequest, status)

	status, result := post(gateway.SignatureHeader(payload, testWebhookSecret, time.Now()))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.PaymentCompleted, result.Status)

	status, result = post(gateway.SignatureHeader(payload, testWebhookSecret, time.Now()))
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, result.Duplicate)
}

func TestGatewayWebhook_MalformedEventIsBadRequest(t *testing.T) {
	s := setupServer(t)

	for _, body := range []string{`not json`, `{"type":"payment_intent.succeeded"}`} {
		payload := []byte(body)
		req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/webhooks/gateway", bytes.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set(gateway.SignatureHeaderName, gateway.SignatureHeader(payload, testWebhookSecret, time.Now()))

		resp, err := s.srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}
