package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"rental-agreements-go/internal/api"
	"rental-agreements-go/internal/auth"
	"rental-agreements-go/internal/cache"
	"rental-agreements-go/internal/database"
	"rental-agreements-go/internal/formance"
	"rental-agreements-go/internal/gateway"
	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService     *database.Service
	RentalService *api.RentalService
	Tokens        *auth.TokenManager
	Ledger        *formance.Service
	redis         *redis.Client
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the database, gateway client, optional intent
// cache and optional ledger mirror into a RentalService.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	services := &Services{DbService: dbService}

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		services.Close()
		return nil, err
	}
	services.Tokens = tokens

	gatewayClient, err := gateway.NewClient(cfg.Gateway)
	if err != nil {
		services.Close()
		return nil, err
	}
	if cfg.Gateway.SecretKey == "" {
		zap.L().Warn("GATEWAY_SECRET_KEY is not set, payment intents will be rejected by the gateway")
	}

	var intents cache.IntentCache
	if cfg.Redis.Addr != "" {
		services.redis = cache.NewRedisClient(cfg.Redis)
		redisCache := cache.NewRedisIntentCache(services.redis, cfg.Redis.IntentTTL)
		if err := redisCache.Ping(ctx); err != nil {
			// The cache is an optimisation; run without it
			zap.L().Warn("Intent cache unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			zap.L().Info("Using Redis intent cache", zap.String("addr", cfg.Redis.Addr))
		}
		intents = redisCache
	}

	var ledger store.PaymentLedger
	if cfg.Formance.StackURL != "" {
		services.Ledger, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to initialize ledger mirror: %w", err)
		}
		ledger = services.Ledger
	}

	services.RentalService = api.NewRentalService(dbService, gatewayClient, intents, ledger, cfg.Gateway)
	return services, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for CLIs that only read or seed local data.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.Ledger != nil {
		cs.Ledger.Close()
	}
	if cs.redis != nil {
		if err := cs.redis.Close(); err != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
