package circuitbreaker

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OpenTelemetry instruments for breaker activity.
// A nil *Metrics is valid and records nothing, so managers and
// engines can call these methods unconditionally.
type Metrics struct {
	executionTotal  metric.Int64Counter
	resultTotal     metric.Int64Counter
	transitionTotal metric.Int64Counter
	fallbackTotal   metric.Int64Counter
}

// NewMetrics creates breaker instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	executionTotal, err := meter.Int64Counter("circuitbreaker.execution.total",
		metric.WithDescription("Breaker decisions for protected calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating circuitbreaker.execution.total counter: %w", err)
	}

	resultTotal, err := meter.Int64Counter("circuitbreaker.result.total",
		metric.WithDescription("Successes and failures recorded against the store"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating circuitbreaker.result.total counter: %w", err)
	}

	transitionTotal, err := meter.Int64Counter("circuitbreaker.transition.total",
		metric.WithDescription("Breaker status transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating circuitbreaker.transition.total counter: %w", err)
	}

	fallbackTotal, err := meter.Int64Counter("circuitbreaker.fallback.total",
		metric.WithDescription("Fallback invocations while open"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating circuitbreaker.fallback.total counter: %w", err)
	}

	return &Metrics{
		executionTotal:  executionTotal,
		resultTotal:     resultTotal,
		transitionTotal: transitionTotal,
		fallbackTotal:   fallbackTotal,
	}, nil
}

// RecordDecision records whether a protected call was allowed through
// or short-circuited.
func (m *Metrics) RecordDecision(ctx context.Context, key string, shortCircuited bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if shortCircuited {
		decision = "short_circuited"
	}
	m.executionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("decision", decision),
	))
}

// RecordResult records a success or failure written to the store.
func (m *Metrics) RecordResult(ctx context.Context, key string, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.resultTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("result", result),
	))
}

// RecordTransition records a breaker moving to a new status.
func (m *Metrics) RecordTransition(ctx context.Context, key string, to Status) {
	if m == nil {
		return
	}
	m.transitionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("to", string(to)),
	))
}

// RecordFallback records a fallback invocation and its outcome.
func (m *Metrics) RecordFallback(ctx context.Context, key string, ok bool) {
	if m == nil {
		return
	}
	outcome := "error"
	if ok {
		outcome = "success"
	}
	m.fallbackTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("outcome", outcome),
	))
}
