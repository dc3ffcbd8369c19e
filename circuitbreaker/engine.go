package circuitbreaker

import (
	"context"

	"github.com/clinton1719/cloud-circuit-breaker/logger"
)

// Work is a unit of protected work producing a value.
type Work[T any] func(ctx context.Context) (T, error)

// Engine wraps work functions with breaker checks and bookkeeping.
type Engine struct {
	manager *Manager
	log     *logger.Logger
	metrics *Metrics
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithEngineLogger wires a logger. The default discards everything.
func WithEngineLogger(log *logger.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// WithEngineMetrics wires OpenTelemetry instruments.
func WithEngineMetrics(metrics *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = metrics }
}

// NewEngine creates an Engine around an already-constructed Manager.
func NewEngine(manager *Manager, opts ...EngineOption) *Engine {
	e := &Engine{
		manager: manager,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithComponent("engine")
	return e
}

// Manager returns the manager this engine records through.
func (e *Engine) Manager() *Manager { return e.manager }

// Execute runs work for key through the breaker.
//
// While the breaker is open the work is never invoked and an
// *OpenError is returned. Otherwise the work runs and exactly one
// record call follows: RecordSuccess on success, RecordFailure on
// failure. The work's own error is returned unchanged; a store
// failure while recording it is logged, never substituted for it.
func Execute[T any](ctx context.Context, e *Engine, key string, work Work[T]) (T, error) {
	return ExecuteWithFallback(ctx, e, key, work, nil)
}

// ExecuteWithFallback runs work for key through the breaker, invoking
// fallback instead of work while the breaker is open. A fallback
// failure is reported as an *OpenError carrying both the rejection
// and the fallback cause.
func ExecuteWithFallback[T any](ctx context.Context, e *Engine, key string, work, fallback Work[T]) (T, error) {
	var zero T

	open, err := e.manager.IsOpen(ctx, key)
	if err != nil {
		return zero, err
	}

	if open {
		e.metrics.RecordDecision(ctx, key, true)
		if fallback == nil {
			e.log.Error("circuit is open", logger.Fields(logger.FieldKey, key))
			return zero, &OpenError{Key: key}
		}
		out, ferr := fallback(ctx)
		if ferr != nil {
			e.log.Error("circuit is open and fallback failed", logger.Fields(
				logger.FieldKey, key,
				logger.FieldError, ferr.Error(),
			))
			e.metrics.RecordFallback(ctx, key, false)
			return zero, &OpenError{Key: key, FallbackErr: ferr}
		}
		e.metrics.RecordFallback(ctx, key, true)
		return out, nil
	}

	e.metrics.RecordDecision(ctx, key, false)
	out, err := work(ctx)
	if err != nil {
		if rerr := e.manager.RecordFailure(ctx, key); rerr != nil {
			e.log.Error("recording failure failed", logger.Fields(
				logger.FieldKey, key,
				logger.FieldError, rerr.Error(),
			))
		}
		return zero, err
	}
	if rerr := e.manager.RecordSuccess(ctx, key); rerr != nil {
		return zero, rerr
	}
	return out, nil
}

// ExecuteFunc runs error-only work for key through the breaker.
func (e *Engine) ExecuteFunc(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	_, err := Execute(ctx, e, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
