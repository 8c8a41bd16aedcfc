package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.RentalStore.
var _ store.RentalStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	// Writers take the database lock at BEGIN so read-modify-write sequences
	// on an agreement are serialized; readers are unaffected under WAL.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=%d&_txlock=immediate",
		cfg.Path, busyTimeout.Milliseconds())

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after schema failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL CHECK (role IN ('landlord', 'tenant')),
		password_hash TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		landlord_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		monthly_price TEXT NOT NULL DEFAULT '0',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_properties_landlord ON properties(landlord_id);

	-- An active agreement always carries both signatures.
	CREATE TABLE IF NOT EXISTS rental_agreements (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		landlord_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		tenant_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		monthly_rent TEXT NOT NULL,
		security_deposit TEXT NOT NULL DEFAULT '0',
		terms TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft'
			CHECK (status IN ('draft', 'pending', 'active', 'completed', 'terminated')),
		signed_by_landlord BOOLEAN NOT NULL DEFAULT 0,
		signed_by_tenant BOOLEAN NOT NULL DEFAULT 0,
		signed_at TIMESTAMP,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK (status != 'active' OR (signed_by_landlord = 1 AND signed_by_tenant = 1))
	);

	CREATE INDEX IF NOT EXISTS idx_agreements_landlord ON rental_agreements(landlord_id);
	CREATE INDEX IF NOT EXISTS idx_agreements_tenant ON rental_agreements(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_agreements_status ON rental_agreements(status);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		rental_agreement_id TEXT NOT NULL REFERENCES rental_agreements(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('initial', 'recurring', 'manual')),
		amount TEXT NOT NULL,
		payment_method TEXT NOT NULL CHECK (payment_method IN ('card', 'wallet', 'bank_transfer')),
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'completed', 'failed', 'refunded')),
		transaction_id TEXT NOT NULL DEFAULT '',
		payment_date TEXT NOT NULL,
		due_date TEXT NOT NULL,
		receipt_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_payments_agreement ON payments(rental_agreement_id);
	CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_initial
		ON payments(rental_agreement_id) WHERE kind = 'initial';
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_recurring_due
		ON payments(rental_agreement_id, due_date) WHERE kind = 'recurring';

	CREATE TABLE IF NOT EXISTS gateway_events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		payment_id TEXT NOT NULL DEFAULT '',
		received_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s '%s': %w", field, value, err)
	}
	return d, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s '%s': %w", field, value, err)
	}
	return t, nil
}
