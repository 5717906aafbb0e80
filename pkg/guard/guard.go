// Package guard is the admission-control entry point used by the route
// layer: it selects which rate-limit buckets apply to a request or socket
// based on how the caller is authenticated, and delegates the atomic check
// to the limiter.
package guard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vrooli/request-guard/pkg/limiter"
	"github.com/vrooli/request-guard/pkg/trust"
)

// Request is the slice of an inbound HTTP request the coordinator reads:
// session state resolved by the session layer, the client address, and the
// declared operation (GraphQL operation name or method+path).
type Request struct {
	Session   *trust.Session
	IP        string
	Operation string
}

// Socket is the corresponding shape for a realtime socket connection.
type Socket struct {
	Session *trust.Session
	IP      string
	ID      string
}

// Options carries the per-scope ceilings and the shared refill window for
// one check. Each bucket refills back to its ceiling over one window.
type Options struct {
	MaxAPI  float64
	MaxIP   float64
	MaxUser float64
	Window  time.Duration
}

func (o Options) limit(max float64) limiter.Limit {
	window := o.Window
	if window <= 0 {
		window = time.Second
	}
	return limiter.Limit{MaxTokens: max, RefillPerSec: max / window.Seconds()}
}

// Coordinator dispatches admission checks to a RateLimiter. A nil limiter
// means no backing store was configured (local development) and every check
// passes; a configured but unreachable store fails the check instead.
type Coordinator struct {
	limiter limiter.RateLimiter
	logger  *zap.Logger
}

func NewCoordinator(l limiter.RateLimiter, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{limiter: l, logger: logger}
}

// RateLimit checks the buckets applicable to an HTTP request.
//
// A credentialed caller is checked against its API and IP buckets only: the
// credential, not a logged-in identity, is the accountable principal. A
// safe-origin caller is checked by IP, plus the primary user's bucket when
// logged in. An anonymous caller from an unsafe origin cannot be fairly
// rate-limited by IP alone and is refused with trust.ErrMustUseAPIToken
// before any store contact.
func (c *Coordinator) RateLimit(ctx context.Context, req Request, opts Options) error {
	sess := req.Session
	if sess == nil {
		sess = &trust.Session{}
	}

	var buckets []limiter.Bucket
	switch {
	case sess.APIToken != "":
		buckets = []limiter.Bucket{
			{Key: APIKey(req.Operation), Scope: limiter.ScopeAPI, Limit: opts.limit(opts.MaxAPI)},
			{Key: IPKey(req.IP), Scope: limiter.ScopeIP, Limit: opts.limit(opts.MaxIP)},
		}
	case sess.FromSafeOrigin:
		buckets = []limiter.Bucket{
			{Key: IPKey(req.IP), Scope: limiter.ScopeIP, Limit: opts.limit(opts.MaxIP)},
		}
		if u := sess.PrimaryUser(); sess.LoggedIn && u != nil {
			buckets = append(buckets, limiter.Bucket{
				Key: UserKey(u.ID), Scope: limiter.ScopeUser, Limit: opts.limit(opts.MaxUser),
			})
		}
	default:
		return trust.ErrMustUseAPIToken
	}

	return c.allow(ctx, buckets)
}

// SocketOptions is Options minus the API ceiling: sockets do not carry API
// credentials in this model.
type SocketOptions struct {
	MaxIP   float64
	MaxUser float64
	Window  time.Duration
}

// RateLimitSocket checks the buckets applicable to a socket connection and
// reports the outcome as a string: empty on success, a descriptive message
// on denial. Socket transports surface errors as emitted events rather than
// raised errors, so this is a returned value by contract. Store failures
// are reported through the same channel but logged distinctly.
func (c *Coordinator) RateLimitSocket(ctx context.Context, sock Socket, opts SocketOptions) string {
	sess := sock.Session
	if sess == nil {
		sess = &trust.Session{}
	}

	o := Options{MaxIP: opts.MaxIP, MaxUser: opts.MaxUser, Window: opts.Window}
	buckets := []limiter.Bucket{
		{Key: SocketIPKey(sock.IP), Scope: limiter.ScopeIP, Limit: o.limit(opts.MaxIP)},
	}
	if u := sess.PrimaryUser(); sess.LoggedIn && u != nil {
		buckets = append(buckets, limiter.Bucket{
			Key: SocketUserKey(sock.ID, u.ID), Scope: limiter.ScopeUser, Limit: o.limit(opts.MaxUser),
		})
	}

	err := c.allow(ctx, buckets)
	if err == nil {
		return ""
	}
	if limiter.IsExceeded(err) {
		return "Rate limit exceeded. Please try again later."
	}
	c.logger.Error("socket rate limit check failed", zap.String("socket", sock.ID), zap.Error(err))
	return "Rate limit check failed."
}

func (c *Coordinator) allow(ctx context.Context, buckets []limiter.Bucket) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Allow(ctx, buckets...)
}
