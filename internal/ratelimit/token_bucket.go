package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var (
	ErrLimiterNotConfigured = errors.New("rate_limiter_not_configured")
	ErrInvalidBucket        = errors.New("invalid_bucket")
)

// KEYS[1] bucket key
// ARGV[1] refill per second, ARGV[2] capacity, ARGV[3] cost, ARGV[4] key ttl in ms
// Tokens travel back as a string; integer replies would drop the fraction.
const takeTokensScript = `
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])

local clock = redis.call("TIME")
local now = clock[1] * 1000 + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local last = tonumber(state[2]) or now
if now > last then
  tokens = math.min(capacity, tokens + (now - last) / 1000 * rate)
end

local granted = 0
if tokens >= cost then
  granted = 1
  tokens = tokens - cost
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return {granted, tostring(tokens), now}
`

// Bucket describes one limit: Rate tokens per second up to Burst.
type Bucket struct {
	Rate  float64
	Burst int
}

func (b Bucket) validate() error {
	if b.Rate <= 0 || b.Burst <= 0 {
		return fmt.Errorf("%w: rate %v burst %d", ErrInvalidBucket, b.Rate, b.Burst)
	}
	return nil
}

// idleTTL keeps a bucket around for twice the time it needs to refill.
func (b Bucket) idleTTL() time.Duration {
	seconds := math.Ceil(float64(b.Burst) / b.Rate * 2)
	return time.Duration(math.Max(seconds, 1)) * time.Second
}

// TokenBucket keeps bucket state in Redis so every API replica draws from the same tokens.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(takeTokensScript),
	}
}

// Allow takes a single token from key.
func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	return t.Take(ctx, key, Bucket{Rate: rate, Burst: burst}, 1)
}

// Take removes cost tokens from key when enough are available.
func (t *TokenBucket) Take(ctx context.Context, key string, bucket Bucket, cost int) (*RateLimitResult, error) {
	denied := &RateLimitResult{Allowed: false}
	if t == nil || t.client == nil {
		return denied, ErrLimiterNotConfigured
	}
	if key == "" {
		return denied, errors.New("rate limiter key is empty")
	}
	if err := bucket.validate(); err != nil {
		return denied, err
	}
	if cost < 1 || cost > bucket.Burst {
		return denied, fmt.Errorf("%w: cost %d exceeds burst %d", ErrInvalidBucket, cost, bucket.Burst)
	}

	reply, err := t.script.Run(ctx, t.client, []string{key},
		bucket.Rate, bucket.Burst, cost, bucket.idleTTL().Milliseconds(),
	).Slice()
	if err != nil {
		return denied, err
	}
	if len(reply) != 3 {
		return denied, fmt.Errorf("token bucket: unexpected reply of %d values", len(reply))
	}

	allowed := toInt64(reply[0]) == 1
	tokens := toFloat64(reply[1])
	now := time.UnixMilli(toInt64(reply[2]))

	var retryAfter time.Duration
	if !allowed {
		missing := float64(cost) - tokens
		retryAfter = time.Duration(missing / bucket.Rate * float64(time.Second))
	}

	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      bucket.Burst,
		Remaining:  int(math.Floor(tokens)),
		ResetTime:  now.Add(retryAfter),
		RetryAfter: retryAfter,
	}, nil
}

func toInt64(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	case int64:
		return float64(val)
	default:
		return 0
	}
}
