package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rental-agreements-go/internal/models"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

const keyPrefix = "rental:intent:"

// Intent is the cached client handle of a payment intent.
type Intent struct {
	IntentId     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

// IntentCache remembers the intent created for a pending payment so repeated
// checkout attempts reuse it.
type IntentCache interface {
	Get(ctx context.Context, paymentId string) (*Intent, error)
	Set(ctx context.Context, paymentId string, intent Intent) error
	Delete(ctx context.Context, paymentId string) error
}

type RedisIntentCache struct {
	c   *redis.Client
	ttl time.Duration
}

func NewRedisClient(cfg models.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisIntentCache(c *redis.Client, ttl time.Duration) *RedisIntentCache {
	return &RedisIntentCache{c: c, ttl: ttl}
}

func key(paymentId string) string {
	return keyPrefix + paymentId
}

func (r *RedisIntentCache) Get(ctx context.Context, paymentId string) (*Intent, error) {
	val, err := r.c.Get(ctx, key(paymentId)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read cached intent: %w", err)
	}

	var intent Intent
	if err := json.Unmarshal([]byte(val), &intent); err != nil {
		return nil, fmt.Errorf("failed to decode cached intent: %w", err)
	}
	return &intent, nil
}

func (r *RedisIntentCache) Set(ctx context.Context, paymentId string, intent Intent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to encode intent: %w", err)
	}
	return r.c.Set(ctx, key(paymentId), data, r.ttl).Err()
}

func (r *RedisIntentCache) Delete(ctx context.Context, paymentId string) error {
	return r.c.Del(ctx, key(paymentId)).Err()
}

func (r *RedisIntentCache) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*Intent, error) { return nil, ErrMiss }
func (Noop) Set(context.Context, string, Intent) error    { return nil }
func (Noop) Delete(context.Context, string) error         { return nil }
