package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/scoutbase/internal/config"
)

const keyScoutRequestUser = "scout:request:user:%s"

// ScoutRequestLimiter throttles report requests per user. Disabled (nil
// or unconfigured) limiters admit everything, so correctness never
// depends on redis being up.
type ScoutRequestLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewScoutRequestLimiter(cfg config.Config) (*ScoutRequestLimiter, error) {
	if !cfg.RateLimitEnabled {
		return nil, nil
	}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if cfg.ScoutRequestRate <= 0 || cfg.ScoutRequestBurst <= 0 {
		return nil, errors.New("scout request rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &ScoutRequestLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.ScoutRequestRate,
		burst:   cfg.ScoutRequestBurst,
	}, nil
}

func (l *ScoutRequestLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowUser admits or rejects one request for the user. Limiter errors
// fail open: billing idempotency makes over-admission safe.
func (l *ScoutRequestLimiter) AllowUser(ctx context.Context, userID string) (bool, time.Duration, error) {
	if !l.Enabled() {
		return true, 0, nil
	}
	key := fmt.Sprintf(keyScoutRequestUser, strings.TrimSpace(userID))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		return true, 0, err
	}
	return res.Allowed, res.RetryAfter, nil
}
