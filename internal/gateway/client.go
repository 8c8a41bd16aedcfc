package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"rental-agreements-go/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Client talks to a Stripe-compatible payment intents API.
type Client struct {
	http *resty.Client
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(cfg models.GatewayConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL cannot be empty")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("gateway timeout must be positive, got %v", cfg.Timeout)
	}

	transport, err := createTransport()
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway transport: %w", err)
	}

	client := resty.New().
		SetTransport(transport).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.SecretKey).
		SetHeader("Accept", "application/json")

	return &Client{http: client}, nil
}

func createTransport() (*http.Transport, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}
	return tr, nil
}

func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	if amountMinor <= 0 {
		return nil, &Error{Code: "invalid_amount", Message: fmt.Sprintf("amount must be positive, got %d", amountMinor)}
	}

	form := map[string]string{
		"amount":   strconv.FormatInt(amountMinor, 10),
		"currency": currency,
	}
	form["automatic_payment_methods[enabled]"] = "true"
	for key, value := range metadata {
		form["metadata["+key+"]"] = value
	}

	zap.L().Info("Creating payment intent",
		zap.Int64("amount_minor", amountMinor),
		zap.String("currency", currency),
		zap.String("payment_id", metadata["payment_id"]))

	var intent Intent
	var apiErr apiErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&intent).
		SetError(&apiErr).
		Post("/v1/payment_intents")
	if err != nil {
		code := "network_error"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			code = "timeout"
		}
		zap.L().Error("Payment intent request failed", zap.String("code", code), zap.Error(err))
		return nil, &Error{Code: code, Message: err.Error()}
	}

	if resp.IsError() {
		gwErr := &Error{
			StatusCode: resp.StatusCode(),
			Code:       apiErr.Error.Code,
			Message:    apiErr.Error.Message,
		}
		if gwErr.Code == "" {
			gwErr.Code = apiErr.Error.Type
		}
		if gwErr.Code == "" {
			gwErr.Code = "api_error"
		}
		if gwErr.Message == "" {
			gwErr.Message = resp.Status()
		}
		zap.L().Warn("Gateway rejected payment intent",
			zap.Int("status_code", gwErr.StatusCode),
			zap.String("code", gwErr.Code),
			zap.String("message", gwErr.Message))
		return nil, gwErr
	}

	if intent.ClientSecret == "" {
		return nil, &Error{StatusCode: resp.StatusCode(), Code: "invalid_response", Message: "response carried no client secret"}
	}

	zap.L().Info("Payment intent created", zap.String("intent_id", intent.ID))
	return &intent, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
