package trust

import "errors"

// Distinct, named error kinds so the route layer can map each to a specific
// status code and log field without string matching.
var (
	// ErrMustUseAPIToken means the request shape cannot be safely
	// authenticated or rate-limited as presented: the caller must present
	// an API credential. Not retryable without changing how the client
	// authenticates.
	ErrMustUseAPIToken = errors.New("request must be sent with a valid API token")

	// ErrNotLoggedIn means the session does not satisfy the logged-in-user
	// tier.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNotLoggedInOfficial means the session does not satisfy the
	// official-user tier, which is reserved for genuine cookie sessions
	// from safe origins.
	ErrNotLoggedInOfficial = errors.New("not logged in as official user")
)
