// Package trust derives an authentication tier for a request or socket from
// already-resolved session state, failing closed with a named error when the
// required conditions are not met.
//
// The supported tiers form a small monotonic lattice:
//
//	Anonymous < ApiCredentialed < SessionUser < OfficialSessionUser
//
// A handler declares the conditions it needs; every declared condition must
// independently pass, and the first failure wins. There is never a silent
// downgrade.
package trust

import (
	"context"

	"go.uber.org/zap"
)

// User is an opaque reference to an authenticated identity.
type User struct {
	ID     string
	Handle string
}

// Session holds the per-request facts produced by the external session
// layer. It is immutable for the lifetime of one request.
type Session struct {
	// LoggedIn reports whether the session cookie maps to a live login.
	LoggedIn bool
	// APIToken is the out-of-band credential presented by programmatic
	// clients; empty when absent.
	APIToken string
	// FromSafeOrigin reports whether the request's declared origin passed
	// the origin classifier.
	FromSafeOrigin bool
	// Users are the authenticated identities attached to the session. A
	// shared session may carry more than one; the first is primary.
	Users []User
}

// PrimaryUser returns the session's first attached user, or nil.
func (s *Session) PrimaryUser() *User {
	if s == nil || len(s.Users) == 0 {
		return nil
	}
	return &s.Users[0]
}

// SessionService resolves a user record from a session. A nil user with a
// nil error means no user could be resolved; a non-nil error is an
// infrastructure failure and propagates untouched.
type SessionService interface {
	GetUser(ctx context.Context, s *Session) (*User, error)
}

// Conditions declares the trust requirements of one handler. Each true flag
// adds one independent, AND-combined check; with no flags set, Resolve
// succeeds without an identity.
type Conditions struct {
	APIToken     bool
	User         bool
	OfficialUser bool
}

// Resolver composes session state into an authentication guarantee.
type Resolver struct {
	sessions SessionService
	logger   *zap.Logger
}

func NewResolver(sessions SessionService, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{sessions: sessions, logger: logger}
}

// Resolve checks every condition requested in cond against the session and
// returns the resolved user when one of the user tiers was requested.
//
//   - APIToken passes iff the session carries a credential; no user is
//     resolved for this tier.
//   - User passes iff the session is logged in, arrived from a safe origin
//     or carries a credential, and a user resolves.
//   - OfficialUser passes iff the session is logged in, carries NO
//     credential, arrived from a safe origin, and a user resolves.
//     Official-user status is reserved for genuine cookie sessions, not
//     credentialed automation.
func (r *Resolver) Resolve(ctx context.Context, sess *Session, cond Conditions) (*User, error) {
	if sess == nil {
		sess = &Session{}
	}

	if cond.APIToken && sess.APIToken == "" {
		return nil, ErrMustUseAPIToken
	}

	var user *User

	if cond.User {
		if !sess.LoggedIn || (!sess.FromSafeOrigin && sess.APIToken == "") {
			return nil, ErrNotLoggedIn
		}
		u, err := r.sessions.GetUser(ctx, sess)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrNotLoggedIn
		}
		user = u
	}

	if cond.OfficialUser {
		if !sess.LoggedIn || sess.APIToken != "" || !sess.FromSafeOrigin {
			return nil, ErrNotLoggedInOfficial
		}
		u, err := r.sessions.GetUser(ctx, sess)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrNotLoggedInOfficial
		}
		user = u
	}

	return user, nil
}
