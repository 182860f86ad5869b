package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/apotek/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 4*time.Second, defaultBucketTTL(5, 10))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 10))
}

func TestCastHelpers(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, int64(3), castToInt(3.9))
	assert.Equal(t, int64(0), castToInt("1"))

	assert.Equal(t, 2.5, castToFloat("2.5"))
	assert.Equal(t, float64(4), castToFloat(int64(4)))
	assert.Equal(t, float64(0), castToFloat("nope"))
}

func TestLoginLimiterWithoutRedisAllows(t *testing.T) {
	limiter := NewLoginLimiter(config.Config{RateLimit: config.RateLimitConfig{LoginRate: 5, LoginBurst: 10}}, nil, zap.NewNop())
	assert.False(t, limiter.Enabled())

	result, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestNilLockerAndBucket(t *testing.T) {
	assert.Nil(t, NewLocker(nil))
	assert.Nil(t, NewTokenBucket(nil))

	var locker *Locker
	_, ok, err := locker.TryLock(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.False(t, ok)
	assert.NoError(t, locker.Release(context.Background(), "k", "t"))

	var bucket *TokenBucket
	result, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
	assert.False(t, result.Allowed)
}

func TestLockerRejectsBadLease(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	locker := NewLocker(client)

	_, ok, err := locker.TryLock(context.Background(), "", time.Minute)
	assert.ErrorIs(t, err, ErrLockKeyEmpty)
	assert.False(t, ok)

	_, ok, err = locker.TryLock(context.Background(), "scheduler:lock:expiry_sweep", 0)
	assert.ErrorIs(t, err, ErrLockTTLInvalid)
	assert.False(t, ok)

	assert.NoError(t, locker.Release(context.Background(), "scheduler:lock:expiry_sweep", ""))
}
