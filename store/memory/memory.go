// Package memory provides an in-process circuit breaker store.
//
// It is the reference implementation of the store contract and suits
// tests and single-process use. State is lost on restart and never
// shared across processes; distributed deployments want the dynamodb
// or redis backend instead.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/clinton1719/cloud-circuit-breaker/circuitbreaker"
	"github.com/clinton1719/cloud-circuit-breaker/logger"
	"github.com/clinton1719/cloud-circuit-breaker/store"
)

func init() {
	store.Register(store.ProviderMemory, func(_ context.Context, _ store.Config, log *logger.Logger) (circuitbreaker.Store, error) {
		return New(WithLogger(log)), nil
	})
}

// Store keeps breaker records in a mutex-guarded map.
type Store struct {
	mu     sync.RWMutex
	states map[string]circuitbreaker.State
	log    *logger.Logger

	// Now is the time source for Reset stamps.
	Now func() time.Time
}

var _ circuitbreaker.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithLogger wires a logger. The default discards everything.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates an empty in-process store.
func New(opts ...Option) *Store {
	s := &Store{
		states: make(map[string]circuitbreaker.State),
		log:    logger.Nop(),
		Now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("store.memory")
	return s
}

// Get returns a copy of the record for key, or (nil, nil) if none exists.
func (s *Store) Get(_ context.Context, key string) (*circuitbreaker.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[key]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// Save persists state under key unless a strictly newer record exists,
// in which case the write is logged and dropped.
func (s *Store) Save(_ context.Context, key string, state circuitbreaker.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.states[key]; ok && cur.LastFailureTime.After(state.LastFailureTime) {
		s.log.Warn("skipped outdated breaker update", logger.Fields(logger.FieldKey, key))
		return nil
	}
	state.Key = key
	s.states[key] = state
	return nil
}

// Reset overwrites key with a closed, zero-count record stamped now.
func (s *Store) Reset(ctx context.Context, key string) error {
	return s.Save(ctx, key, circuitbreaker.State{
		Key:             key,
		Status:          circuitbreaker.StatusClosed,
		FailureCount:    0,
		LastFailureTime: s.Now(),
	})
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
