package metasync

import (
	"errors"
	"fmt"
)

// ErrAuth is returned when the API rejects the key or company id. It is
// fatal: the import aborts instead of retrying.
var ErrAuth = errors.New("metasync: authentication rejected")

// TransientError wraps a failure worth retrying (network error, 429, 503).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("metasync: transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
