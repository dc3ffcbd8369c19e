package circuitbreaker

import "context"

// Store persists breaker state shared across a fleet of workers.
//
// Implementations must honor three rules:
//
//   - Get returns (nil, nil) when no record exists for the key;
//     absence is not an error.
//   - Save applies the write only when no record exists or the stored
//     LastFailureTime is not newer than the incoming one. A rejected
//     write is logged and dropped; Save still returns nil. Equal
//     timestamps are accepted, so either of two tied writers may win.
//   - Backend failures are wrapped in *StoreError and returned.
//     Retrying belongs to the backend client, not to callers.
type Store interface {
	// Get returns the snapshot stored for key, or (nil, nil) if none exists.
	Get(ctx context.Context, key string) (*State, error)

	// Save persists state under key, subject to the conditional-write rule.
	Save(ctx context.Context, key string, state State) error

	// Reset overwrites key with a closed, zero-count record stamped now.
	Reset(ctx context.Context, key string) error
}
