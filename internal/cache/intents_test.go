package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisIntentCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisIntentCache(client, 30*time.Minute)
}

func TestRedisIntentCache_RoundTrip(t *testing.T) {
	mr, intents := setupTestRedis(t)
	ctx := context.Background()

	_, err := intents.Get(ctx, "pay-1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, intents.Set(ctx, "pay-1", Intent{IntentId: "pi_1", ClientSecret: "secret_1"}))
	assert.True(t, mr.Exists("rental:intent:pay-1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("rental:intent:pay-1"))

	got, err := intents.Get(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", got.IntentId)
	assert.Equal(t, "secret_1", got.ClientSecret)

	require.NoError(t, intents.Delete(ctx, "pay-1"))
	_, err = intents.Get(ctx, "pay-1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisIntentCache_Expiry(t *testing.T) {
	mr, intents := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, intents.Set(ctx, "pay-2", Intent{IntentId: "pi_2", ClientSecret: "secret_2"}))
	mr.FastForward(31 * time.Minute)

	_, err := intents.Get(ctx, "pay-2")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisIntentCache_ServerDown(t *testing.T) {
	mr, intents := setupTestRedis(t)
	mr.Close()

	_, err := intents.Get(context.Background(), "pay-3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestNoop(t *testing.T) {
	var intents IntentCache = Noop{}
	ctx := context.Background()

	require.NoError(t, intents.Set(ctx, "pay-1", Intent{IntentId: "pi_1"}))
	_, err := intents.Get(ctx, "pay-1")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, intents.Delete(ctx, "pay-1"))
}
