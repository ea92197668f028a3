package ratelimit

import (
	"context"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keySearchClient = "osb:search:"

// SearchLimiter throttles address searches per client.
type SearchLimiter struct {
	bucket *TokenBucket
	tuning *config.TuningHolder
}

// NewSearchLimiter returns nil when Redis is not configured; a nil limiter allows everything.
func NewSearchLimiter(client *redis.Client, tuning *config.TuningHolder) *SearchLimiter {
	if client == nil {
		return nil
	}
	return &SearchLimiter{
		bucket: NewTokenBucket(client),
		tuning: tuning,
	}
}

func (l *SearchLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow consumes one token of clientKey. Rate and burst are read from the live tuning.
func (l *SearchLimiter) Allow(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	search := l.tuning.Get().Search
	if search.RatePerSecond <= 0 || search.Burst <= 0 {
		return &RateLimitResult{Allowed: true}, nil
	}

	key := strings.TrimSpace(clientKey)
	if key == "" {
		key = "anonymous"
	}
	return l.bucket.Allow(ctx, keySearchClient+key, search.RatePerSecond, search.Burst)
}
