// Package limiter provides local and distributed rate limiting based on the
// Token Bucket algorithm, with atomic multi-bucket checks.
//
// The primary entry point is the RateLimiter interface:
//
//	err := l.Allow(ctx, buckets...)
//
// A nil error means every bucket had a token and all were debited. An
// *ExceededError names the bucket (and its scope) that was empty; any other
// error is an infrastructure failure (store unreachable, context expired).
//
// # Overview
//
// Each key has a "bucket" holding tokens. The bucket refills over time at
// RefillPerSec up to MaxTokens, and each admitted request consumes exactly
// one token. Unlike fixed-window counters, token buckets naturally support
// bursts while still enforcing a long-term average rate.
//
// What distinguishes this package from a plain per-key limiter is the batch
// contract: one Allow call may name several buckets (an API-credential
// bucket and an IP bucket, say), and the check is all-or-nothing. If any
// bucket is empty, none are debited, so a request that will be rejected
// anyway never partially consumes quota.
//
// # Backends
//
// The package provides two implementations with the same Allow API:
//
//   - MemoryLimiter: an in-process limiter backed by a Go map. Useful for
//     unit tests, local development, and single-instance deployments.
//     Because its state is local to the process, it does not enforce a
//     global limit across replicas.
//
//   - RedisLimiter: a distributed limiter backed by Redis. It uses a Lua
//     script to perform the read/compute/write cycle for the whole batch
//     atomically, which makes it safe across many application instances
//     while enforcing a single global budget per key.
//
// # Storage Details
//
// RedisLimiter stores state under keys prefixed with "limiter:" (see
// WithPrefix) as a hash with two fields:
//
//   - "tokens": current token balance (float)
//   - "lastRefill": last update time, epoch milliseconds
//
// A missing record is a valid initial state equivalent to a full bucket.
// Keys expire once an idle bucket would have refilled completely, so
// identities that stop sending requests do not leak memory.
//
// # Script Cache
//
// RedisLimiter evaluates the bucket script by SHA (EVALSHA). The SHA is
// registered lazily on first use and cached process-wide; if Redis reports
// NOSCRIPT (restart, SCRIPT FLUSH), the script is re-registered and the
// call retried exactly once. Worst case is two round trips, never more.
//
// # Context and Error Policy
//
// Allow accepts a context.Context and passes it through to Redis so callers
// can enforce deadlines. This package deliberately does not fail open: if
// Redis is configured but unreachable, Allow returns the transport error
// and the caller decides whether to deny traffic (protect the backend) or
// allow it (maximize availability). Transport errors are never coerced into
// ExceededError, so "over quota" and "store is down" stay distinguishable.
package limiter
