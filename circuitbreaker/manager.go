package circuitbreaker

import (
	"context"
	"fmt"
	"time"

	"github.com/clinton1719/cloud-circuit-breaker/logger"
)

// Manager evaluates and records breaker state against a shared store.
// It holds no breaker state of its own; any number of managers across
// any number of workers can point at the same store concurrently.
type Manager struct {
	store    Store
	settings Settings
	log      *logger.Logger
	metrics  *Metrics
	now      func() time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithLogger wires a logger. The default discards everything.
func WithLogger(log *logger.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// WithMetrics wires OpenTelemetry instruments.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithClock overrides the time source used for cooldown checks and
// failure timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager. The settings are validated here;
// missing or non-positive values fail construction.
func NewManager(store Store, settings Settings, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("circuitbreaker: store is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("circuitbreaker: invalid settings: %w", err)
	}

	m := &Manager{
		store:    store,
		settings: settings,
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithComponent("manager")
	return m, nil
}

// Settings returns the configured thresholds.
func (m *Manager) Settings() Settings { return m.settings }

// IsOpen reports whether calls for key must be rejected right now.
//
// An open record whose cooldown has elapsed reports false so that a
// trial call goes through. The stored record is not touched by this
// read: it stays OPEN until a success resets it or a failure
// refreshes it.
func (m *Manager) IsOpen(ctx context.Context, key string) (bool, error) {
	state, err := m.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if state == nil || state.Status != StatusOpen {
		return false, nil
	}
	if m.now().After(state.LastFailureTime.Add(m.settings.ResetTimeout)) {
		m.log.Debug("cooldown elapsed, allowing trial", logger.Fields(logger.FieldKey, key))
		return false, nil
	}
	return true, nil
}

// RecordSuccess resets the breaker for key to closed with a zero
// count. A single success is enough, regardless of how many failures
// came before or whether the record was open.
func (m *Manager) RecordSuccess(ctx context.Context, key string) error {
	if err := m.store.Reset(ctx, key); err != nil {
		return err
	}
	m.log.Debug("breaker reset", logger.Fields(logger.FieldKey, key))
	m.metrics.RecordResult(ctx, key, true)
	return nil
}

// RecordFailure increments the failure count for key and stamps the
// failure time. Crossing the threshold opens the breaker; a failure
// on an already-open record keeps it open and restarts the cooldown.
func (m *Manager) RecordFailure(ctx context.Context, key string) error {
	state, err := m.store.Get(ctx, key)
	if err != nil {
		return err
	}

	next := State{
		Key:             key,
		Status:          StatusClosed,
		FailureCount:    1,
		LastFailureTime: m.now(),
	}
	if state != nil {
		next.Status = state.Status
		next.FailureCount = state.FailureCount + 1
		if next.FailureCount >= m.settings.FailureThreshold {
			next.Status = StatusOpen
		}
	}

	if err := m.store.Save(ctx, key, next); err != nil {
		return err
	}

	m.metrics.RecordResult(ctx, key, false)
	if next.Status == StatusOpen && (state == nil || state.Status != StatusOpen) {
		m.log.Warn("breaker opened", logger.Fields(
			logger.FieldKey, key,
			logger.FieldFailureCount, next.FailureCount,
		))
		m.metrics.RecordTransition(ctx, key, StatusOpen)
	}
	return nil
}
