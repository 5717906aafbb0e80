package limiter

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a RedisLimiter.
type Option func(*RedisLimiter)

// WithPrefix sets the Redis key prefix (default "limiter:").
func WithPrefix(prefix string) Option {
	return func(r *RedisLimiter) { r.prefix = prefix }
}

// WithTimeout sets the per-call context timeout for Redis operations
// (default 5s). The caller's context still applies; whichever deadline is
// sooner wins.
func WithTimeout(d time.Duration) Option {
	return func(r *RedisLimiter) { r.timeout = d }
}

// WithRecorder injects a custom metrics backend.
func WithRecorder(rec MetricsRecorder) Option {
	return func(r *RedisLimiter) { r.recorder = rec }
}

// WithLogger injects a structured logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *RedisLimiter) { r.logger = l }
}
