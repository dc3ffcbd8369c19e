package circuitbreaker

import "time"

// Status is the persisted circuit status. Only these two values are
// ever stored; cooldown expiry is evaluated on read, never persisted
// as a third status.
type Status string

const (
	// StatusClosed allows requests to pass through.
	StatusClosed Status = "CLOSED"
	// StatusOpen blocks requests until the reset timeout elapses.
	StatusOpen Status = "OPEN"
)

// State is an immutable snapshot of one breaker's stored record.
// Stores return a fresh snapshot per read; callers never mutate a
// shared instance. A key with no stored record behaves as
// {StatusClosed, 0}.
type State struct {
	// Key identifies the breaker. Callers construct it with their own
	// namespacing, e.g. "payments:chargeCard".
	Key string
	// Status is CLOSED or OPEN.
	Status Status
	// FailureCount is the consecutive failures since the last reset.
	FailureCount int
	// LastFailureTime is when the most recent failure was recorded.
	// Persisted as integer epoch seconds.
	LastFailureTime time.Time
}
