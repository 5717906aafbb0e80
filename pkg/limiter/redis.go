package limiter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//go:embed token_bucket.lua
var tokenBucketScript string

// RedisLimiter is a distributed rate limiter backed by Redis. A single Lua
// script performs the read/compute/write cycle for a whole batch of buckets
// atomically, so it is safe to use across many application instances while
// enforcing one global budget per key.
type RedisLimiter struct {
	client   *redis.Client
	prefix   string
	timeout  time.Duration
	recorder MetricsRecorder
	logger   *zap.Logger

	mu        sync.Mutex
	scriptSHA string
}

// NewRedisLimiter constructs a RedisLimiter and verifies the connection.
// The bucket script itself is registered lazily on the first Allow call.
func NewRedisLimiter(client *redis.Client, opts ...Option) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("limiter: nil redis client")
	}

	r := &RedisLimiter{
		client:   client,
		prefix:   "limiter:",
		timeout:  5 * time.Second,
		recorder: &NoOpMetricsRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Allow implements RateLimiter. All buckets are checked and debited in one
// script execution; if any bucket is empty nothing is written and an
// *ExceededError for that bucket is returned. Store and context errors are
// returned untouched so callers can tell "over quota" from "store is down".
func (r *RedisLimiter) Allow(ctx context.Context, buckets ...Bucket) error {
	if len(buckets) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	r.recorder.Add("ratelimit.call", 1, nil)

	keys := make([]string, len(buckets))
	argv := make([]interface{}, 0, 1+2*len(buckets))
	argv = append(argv, time.Now().UnixMilli())
	for i, b := range buckets {
		keys[i] = r.prefix + b.Key
		argv = append(argv, b.Limit.MaxTokens, b.Limit.RefillPerSec)
	}

	sha, err := r.script(ctx)
	if err != nil {
		return err
	}

	res, err := r.client.EvalSha(ctx, sha, keys, argv...).Result()
	if err != nil && redis.HasErrorPrefix(err, "NOSCRIPT") {
		// The server-side script cache was flushed (restart, SCRIPT FLUSH).
		// Re-register and retry exactly once.
		r.logger.Info("bucket script evicted, reloading")
		if sha, err = r.reloadScript(ctx); err != nil {
			return err
		}
		res, err = r.client.EvalSha(ctx, sha, keys, argv...).Result()
	}
	if err != nil {
		return err
	}

	r.recorder.Observe("ratelimit.latency", time.Since(start).Seconds(), nil)

	denied, ok := res.(int64)
	if !ok || denied < 0 || int(denied) > len(buckets) {
		return fmt.Errorf("limiter: invalid lua response %v", res)
	}
	if denied == 0 {
		return nil
	}

	b := buckets[denied-1]
	r.recorder.Add("ratelimit.denied", 1, map[string]string{"scope": string(b.Scope)})
	r.logger.Debug("rate limit exceeded",
		zap.String("key", b.Key),
		zap.String("scope", string(b.Scope)),
	)
	return &ExceededError{Scope: b.Scope, Key: b.Key}
}

func (r *RedisLimiter) script(ctx context.Context) (string, error) {
	r.mu.Lock()
	sha := r.scriptSHA
	r.mu.Unlock()

	if sha != "" {
		return sha, nil
	}
	return r.reloadScript(ctx)
}

// reloadScript registers the bucket script and refreshes the cached SHA.
// Concurrent calls are harmless: loading an already-known script is
// idempotent and every caller ends up with the same identifier.
func (r *RedisLimiter) reloadScript(ctx context.Context) (string, error) {
	sha, err := r.client.ScriptLoad(ctx, tokenBucketScript).Result()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.scriptSHA = sha
	r.mu.Unlock()
	return sha, nil
}
