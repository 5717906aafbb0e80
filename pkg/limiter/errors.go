package limiter

import (
	"errors"
	"fmt"
)

// ExceededError reports that one bucket in a batch check was empty. It is a
// rate-limit decision, not an infrastructure failure: Redis transport errors
// are returned as-is and are never wrapped in an ExceededError.
type ExceededError struct {
	Scope Scope
	Key   string
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s bucket %q", e.Scope, e.Key)
}

// IsExceeded reports whether err is a rate-limit denial (as opposed to a
// store or context error).
func IsExceeded(err error) bool {
	var ee *ExceededError
	return errors.As(err, &ee)
}
