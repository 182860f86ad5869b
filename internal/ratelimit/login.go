package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/apotek/internal/config"
	"go.uber.org/zap"
)

const keyLoginAttempt = "auth:login:%s"

// LoginLimiter throttles credential attempts per client address.
type LoginLimiter struct {
	enabled bool
	log     *zap.Logger
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewLoginLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) *LoginLimiter {
	limitCfg := cfg.RateLimit
	if client == nil || limitCfg.LoginRate <= 0 || limitCfg.LoginBurst <= 0 {
		return &LoginLimiter{log: log.Named("ratelimit.login")}
	}
	return &LoginLimiter{
		enabled: true,
		log:     log.Named("ratelimit.login"),
		bucket:  NewTokenBucket(client),
		rate:    float64(limitCfg.LoginRate) / 60,
		burst:   limitCfg.LoginBurst,
	}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow consumes one attempt for the client. A Redis failure fails open.
func (l *LoginLimiter) Allow(ctx context.Context, clientIP string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyLoginAttempt, strings.TrimSpace(clientIP))
	result, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("login rate limit check failed", zap.Error(err))
		return &RateLimitResult{Allowed: true}, nil
	}
	return result, nil
}
