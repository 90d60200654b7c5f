package mailbox

import "errors"

// ConnError wraps a network-level failure (dial, TLS, search transport).
// Connection errors are transient and may be retried.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string { return "mailbox connection error: " + e.Err.Error() }
func (e *ConnError) Unwrap() error { return e.Err }

// AuthError wraps a login rejection. Authentication errors are fatal for
// the run and must not be retried: the credential itself is wrong.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "mailbox authentication error: " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

// IsRetryable reports whether an error is a transient connection failure
func IsRetryable(err error) bool {
	var connErr *ConnError
	return errors.As(err, &connErr)
}
