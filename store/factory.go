package store

import (
	"context"
	"fmt"

	"github.com/clinton1719/cloud-circuit-breaker/circuitbreaker"
	"github.com/clinton1719/cloud-circuit-breaker/logger"
)

// Factory creates a Store implementation from configuration. Backend
// packages call Register (typically in an init function) to make
// themselves available to New.
type Factory func(ctx context.Context, cfg Config, log *logger.Logger) (circuitbreaker.Store, error)

var factories = make(map[string]Factory)

// Register registers a store backend factory under the given provider name.
func Register(name string, f Factory) {
	factories[name] = f
}

// New creates a Store based on cfg.Provider. Ensure the desired backend
// package has been imported (e.g.
// _ "github.com/clinton1719/cloud-circuit-breaker/store/memory") so its
// factory is registered.
func New(ctx context.Context, cfg Config, log *logger.Logger) (circuitbreaker.Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("store: unsupported provider %q (not registered)", cfg.Provider)
	}

	log.Info("initializing circuit breaker store", logger.Fields(logger.FieldProvider, cfg.Provider))
	return f(ctx, cfg, log)
}
