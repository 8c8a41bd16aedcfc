package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Gateway  GatewayConfig
	Redis    RedisConfig
	Formance FormanceConfig
	Billing  BillingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// AuthConfig holds access token settings
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

// GatewayConfig holds payment gateway settings
type GatewayConfig struct {
	BaseURL          string
	SecretKey        string
	WebhookSecret    string
	WebhookTolerance time.Duration
	Currency         string
	Timeout          time.Duration
}

// RedisConfig holds the payment intent cache settings. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	IntentTTL time.Duration
}

// FormanceConfig holds the optional ledger mirror settings. An empty
// StackURL disables the mirror.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// BillingConfig holds recurring billing worker settings
type BillingConfig struct {
	Enabled         bool
	PollingInterval time.Duration
	LeadTime        time.Duration
}
