package store

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransientError marks a store failure that may succeed on retry:
// network trouble, timeouts, connection loss. The reconciliation queue
// retries these with bounded backoff.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a rejection that retrying cannot fix, such as a
// referential-integrity violation. It is dropped from the queue and
// surfaced immediately.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// classify wraps a driver error as transient or permanent so callers can
// pick a retry policy off the type instead of matching strings.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return &TransientError{Op: op, Err: err}
	}
	return &PermanentError{Op: op, Err: err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
