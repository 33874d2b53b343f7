package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup by id misses.
var ErrNotFound = errors.New("not found")

// TransportError marks a retryable network-level failure talking to an
// external backend. Bounded retries apply; once exhausted the turn aborts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ContractError marks structurally malformed output from the generation
// backend. It is never fatal: the parser degrades to a fallback instead.
type ContractError struct {
	Reason string
}

func (e *ContractError) Error() string {
	return "contract: " + e.Reason
}

// DependencyUnavailable marks an unreachable optional dependency (memory or
// state store). Turns degrade to stateless context and still proceed.
type DependencyUnavailable struct {
	Dep string
	Err error
}

func (e *DependencyUnavailable) Error() string {
	return fmt.Sprintf("dependency %s unavailable: %v", e.Dep, e.Err)
}

func (e *DependencyUnavailable) Unwrap() error { return e.Err }

// SafetyRejection marks an image request blocked by the backend's safety
// filter. The image pipeline retries exactly once, then fails terminally.
type SafetyRejection struct {
	Reason string
}

func (e *SafetyRejection) Error() string {
	return "safety rejection: " + e.Reason
}

// IsRetryable reports whether err is worth another transport attempt.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
