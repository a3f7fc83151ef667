package scan

import (
	"errors"
	"fmt"
)

// NetworkError wraps a transport-level failure (timeout, refused connection,
// DNS or TLS failure) for a single path. Never fatal to the session.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError wraps a malformed-response failure. Treated like a
// NetworkError: retried, then surfaced as a non-fatal error result.
type ProtocolError struct {
	URL string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error for %s: %v", e.URL, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ConfigurationError indicates invalid input (malformed target URL, empty
// wordlist). Fatal before any probe is issued.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// AdvisoryError indicates a failure of the external advisory service.
// Always recovered via local fallback, never propagated as scan failure.
type AdvisoryError struct {
	Reason string
	Err    error
}

func (e *AdvisoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("advisory error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("advisory error: %s", e.Reason)
}

func (e *AdvisoryError) Unwrap() error { return e.Err }

// ErrSessionTerminal is returned when work is scheduled against a session
// that has already completed or been cancelled. A contract violation.
var ErrSessionTerminal = errors.New("scan: session is terminal")

// StateError reports a programming-contract violation against session state.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error in %s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }
