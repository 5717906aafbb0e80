package limiter

import (
	"context"
	"sync"
	"time"
)

type bucketState struct {
	tokens     float64
	lastRefill time.Time
}

// MemoryLimiter is an in-process token-bucket rate limiter with the same
// batch semantics as RedisLimiter.
//
// It is safe for concurrent use by multiple goroutines, but its state is
// local to the process and is not shared across replicas. Use RedisLimiter
// when you need a single global limit across multiple instances.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucketState
	now     func() time.Time
}

// NewMemoryLimiter constructs a MemoryLimiter with empty state.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucketState),
		now:     time.Now,
	}
}

// Allow implements RateLimiter. The whole batch is evaluated under one
// lock: if any bucket is empty, no bucket is debited.
func (m *MemoryLimiter) Allow(ctx context.Context, buckets ...Bucket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	balances := make([]float64, len(buckets))
	for i, b := range buckets {
		tokens := b.Limit.MaxTokens
		last := now
		if st, ok := m.buckets[b.Key]; ok {
			tokens = st.tokens
			last = st.lastRefill
		}

		elapsed := now.Sub(last).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		refilled := tokens + elapsed*b.Limit.RefillPerSec
		if refilled > b.Limit.MaxTokens {
			refilled = b.Limit.MaxTokens
		}

		if refilled < 1 {
			return &ExceededError{Scope: b.Scope, Key: b.Key}
		}
		balances[i] = refilled - 1
	}

	for i, b := range buckets {
		m.buckets[b.Key] = &bucketState{tokens: balances[i], lastRefill: now}
	}
	return nil
}
