package circuitbreaker

import (
	"errors"
	"fmt"
)

// ErrCircuitOpen matches any *OpenError via errors.Is.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// OpenError is returned when a call is rejected because the breaker
// for its key is open. FallbackErr is set when a fallback was
// attempted and failed too.
type OpenError struct {
	Key         string
	FallbackErr error
}

// Error renders the rejection, including the fallback cause when present.
func (e *OpenError) Error() string {
	if e.FallbackErr != nil {
		return fmt.Sprintf("circuit is open for %q and fallback failed: %v", e.Key, e.FallbackErr)
	}
	return fmt.Sprintf("circuit is open for %q", e.Key)
}

// Is reports whether target is ErrCircuitOpen.
func (e *OpenError) Is(target error) bool { return target == ErrCircuitOpen }

// Unwrap returns the fallback failure, if any.
func (e *OpenError) Unwrap() error { return e.FallbackErr }

// StoreError wraps a backend failure during a store operation. The
// manager and engine propagate it unmodified; the only store outcomes
// ever swallowed are conditional-write conflicts, which stores log
// and drop themselves.
type StoreError struct {
	// Op is the store operation that failed: "get", "save" or "reset".
	Op string
	// Key is the breaker key the operation was for.
	Key string
	// Err is the backend cause.
	Err error
}

// Error renders the failed operation and its cause.
func (e *StoreError) Error() string {
	return fmt.Sprintf("circuit breaker store %s failed for %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the backend cause.
func (e *StoreError) Unwrap() error { return e.Err }
