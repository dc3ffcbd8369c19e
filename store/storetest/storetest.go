// Package storetest provides a conformance suite for circuit breaker
// store implementations. Backend test files call Run with a factory
// that builds a fresh, empty store per subtest.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/clinton1719/cloud-circuit-breaker/circuitbreaker"
)

// Factory builds a fresh, empty store for one subtest.
type Factory func(t *testing.T) circuitbreaker.Store

// Run drives a store implementation through the shared contract:
// absent keys, round trips, the conditional-write rule, and reset.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	t.Run("GetMissingReturnsNil", func(t *testing.T) {
		st := newStore(t)
		got, err := st.Get(ctx, "orders:create")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil state for missing key, got %+v", got)
		}
	})

	t.Run("SaveThenGet", func(t *testing.T) {
		st := newStore(t)
		saved := circuitbreaker.State{
			Key:             "orders:create",
			Status:          circuitbreaker.StatusOpen,
			FailureCount:    5,
			LastFailureTime: base,
		}
		if err := st.Save(ctx, "orders:create", saved); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got := mustGet(t, st, "orders:create")
		if got.Key != "orders:create" {
			t.Errorf("expected key %q, got %q", "orders:create", got.Key)
		}
		assertState(t, got, circuitbreaker.StatusOpen, 5, base)
	})

	t.Run("NewerWriteWins", func(t *testing.T) {
		st := newStore(t)
		save(t, st, "orders:create", circuitbreaker.StatusClosed, 1, base)
		save(t, st, "orders:create", circuitbreaker.StatusClosed, 2, base.Add(10*time.Second))
		got := mustGet(t, st, "orders:create")
		assertState(t, got, circuitbreaker.StatusClosed, 2, base.Add(10*time.Second))
	})

	t.Run("OlderWriteDropped", func(t *testing.T) {
		st := newStore(t)
		save(t, st, "orders:create", circuitbreaker.StatusOpen, 5, base.Add(10*time.Second))
		// The stale write must be swallowed, not surfaced as an error.
		save(t, st, "orders:create", circuitbreaker.StatusClosed, 1, base)
		got := mustGet(t, st, "orders:create")
		assertState(t, got, circuitbreaker.StatusOpen, 5, base.Add(10*time.Second))
	})

	t.Run("EqualTimestampAccepted", func(t *testing.T) {
		st := newStore(t)
		save(t, st, "orders:create", circuitbreaker.StatusClosed, 1, base)
		save(t, st, "orders:create", circuitbreaker.StatusClosed, 2, base)
		got := mustGet(t, st, "orders:create")
		assertState(t, got, circuitbreaker.StatusClosed, 2, base)
	})

	t.Run("ResetProducesClosedZero", func(t *testing.T) {
		st := newStore(t)
		save(t, st, "orders:create", circuitbreaker.StatusOpen, 7, base)
		if err := st.Reset(ctx, "orders:create"); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		got := mustGet(t, st, "orders:create")
		if got.Status != circuitbreaker.StatusClosed {
			t.Errorf("expected status CLOSED after reset, got %s", got.Status)
		}
		if got.FailureCount != 0 {
			t.Errorf("expected zero failure count after reset, got %d", got.FailureCount)
		}
		if got.LastFailureTime.Before(base) {
			t.Errorf("expected reset timestamp at or after %v, got %v", base, got.LastFailureTime)
		}
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		st := newStore(t)
		save(t, st, "orders:create", circuitbreaker.StatusOpen, 5, base)
		save(t, st, "orders:cancel", circuitbreaker.StatusClosed, 1, base)
		got := mustGet(t, st, "orders:cancel")
		assertState(t, got, circuitbreaker.StatusClosed, 1, base)
	})
}

func save(t *testing.T, st circuitbreaker.Store, key string, status circuitbreaker.Status, count int, ts time.Time) {
	t.Helper()
	err := st.Save(context.Background(), key, circuitbreaker.State{
		Key:             key,
		Status:          status,
		FailureCount:    count,
		LastFailureTime: ts,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func mustGet(t *testing.T, st circuitbreaker.Store, key string) *circuitbreaker.State {
	t.Helper()
	got, err := st.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatalf("expected state for key %q, got nil", key)
	}
	return got
}

// assertState compares timestamps at second precision: backends persist
// epoch seconds.
func assertState(t *testing.T, got *circuitbreaker.State, status circuitbreaker.Status, count int, ts time.Time) {
	t.Helper()
	if got.Status != status {
		t.Errorf("expected status %s, got %s", status, got.Status)
	}
	if got.FailureCount != count {
		t.Errorf("expected failure count %d, got %d", count, got.FailureCount)
	}
	if got.LastFailureTime.Unix() != ts.Unix() {
		t.Errorf("expected last failure time %d, got %d", ts.Unix(), got.LastFailureTime.Unix())
	}
}
