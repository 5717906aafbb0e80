package limiter

import (
	"context"
)

// Scope classifies a bucket by the principal it accounts for. It is carried
// on denial errors so callers can log and meter which class of limit fired.
type Scope string

const (
	ScopeAPI  Scope = "api"
	ScopeIP   Scope = "ip"
	ScopeUser Scope = "user"
)

// Limit defines the policy for a single bucket at check time. It is never
// persisted; different callers may apply different ceilings to the same key.
type Limit struct {
	// MaxTokens is the bucket capacity (also the maximum immediate burst).
	MaxTokens float64
	// RefillPerSec is how many tokens the bucket earns per second. It may
	// be fractional.
	RefillPerSec float64
}

// Bucket names one token bucket and the policy to enforce on it.
type Bucket struct {
	Key   string
	Scope Scope
	Limit Limit
}

// RateLimiter atomically tests and consumes one token from each of the given
// buckets. The check is all-or-nothing: if any bucket is empty, no bucket is
// debited and an *ExceededError identifying the empty bucket is returned.
// A nil error means every bucket had a token and all were debited.
type RateLimiter interface {
	Allow(ctx context.Context, buckets ...Bucket) error
}
