package ratelimit

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/redis/go-redis/v9"
)

//go:embed rate_limit.lua
var rateLimitScript string

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Checker is satisfied by RateLimiter; middleware depends on this
type Checker interface {
	Check(ctx context.Context, class Class, subject string) (*RateLimitResult, error)
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	WindowSeconds     int
	RetryAfterSeconds int64 // Seconds until the limit resets (0 if allowed)
}

// RateLimiter counts requests per class and subject using Redis + Lua
type RateLimiter struct {
	redis  *redis.Client
	script *redis.Script
	limits Limits
	logger Logger
}

// NewRateLimiter creates a new rate limiter with embedded Lua script
func NewRateLimiter(redisClient *redis.Client, limits Limits, logger Logger) *RateLimiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &RateLimiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		limits: limits,
		logger: logger,
	}
}

// Check counts one request for subject under class.
// An empty subject shares a single counter for the class.
func (r *RateLimiter) Check(ctx context.Context, class Class, subject string) (*RateLimitResult, error) {
	cfg := r.limits.For(class)
	return r.checkLimit(ctx, Key(class, subject), cfg.Limit, cfg.WindowSeconds)
}

// Key returns the Redis key for a class and subject
func Key(class Class, subject string) string {
	if subject == "" {
		return fmt.Sprintf("rate_limit:%s", class)
	}
	return fmt.Sprintf("rate_limit:%s:%s", class, subject)
}

// checkLimit executes the rate limit Lua script
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int64, windowSec int) (*RateLimitResult, error) {
	result, err := r.script.Run(ctx, r.redis, []string{key}, limit, windowSec).Result()
	if err != nil {
		r.logger.Error("rate limit check failed", "key", key, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	// {allowed, current_count, limit, retry_after}
	values, ok := result.([]interface{})
	if !ok || len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result format")
	}

	nums := make([]int64, 4)
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected script result element %d: %T", i, v)
		}
		nums[i] = n
	}

	res := &RateLimitResult{
		Allowed:           nums[0] == 1,
		CurrentCount:      nums[1],
		Limit:             nums[2],
		WindowSeconds:     windowSec,
		RetryAfterSeconds: nums[3],
	}

	if !res.Allowed {
		r.logger.Warn("rate limit exceeded",
			"key", key,
			"current", res.CurrentCount,
			"limit", limit,
			"retry_after", res.RetryAfterSeconds)
	} else {
		r.logger.Debug("rate limit check passed",
			"key", key,
			"current", res.CurrentCount,
			"limit", limit)
	}

	return res, nil
}

// GetCurrentCount returns current count without incrementing
func (r *RateLimiter) GetCurrentCount(ctx context.Context, class Class, subject string) (int64, error) {
	count, err := r.redis.Get(ctx, Key(class, subject)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// ResetLimit clears a rate limit counter
func (r *RateLimiter) ResetLimit(ctx context.Context, class Class, subject string) error {
	return r.redis.Del(ctx, Key(class, subject)).Err()
}
