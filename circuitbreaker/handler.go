package circuitbreaker

import "context"

// Handler is a request/response function protected by the breaker,
// such as a serverless function entry point.
type Handler[I, O any] func(ctx context.Context, input I) (O, error)

// Wrap returns a handler that runs h through the engine under key.
func Wrap[I, O any](e *Engine, key string, h Handler[I, O]) Handler[I, O] {
	return WrapWithFallback(e, key, h, nil)
}

// WrapWithFallback returns a handler that runs h through the engine
// under key, diverting to fallback with the original input while the
// breaker is open.
func WrapWithFallback[I, O any](e *Engine, key string, h, fallback Handler[I, O]) Handler[I, O] {
	return func(ctx context.Context, input I) (O, error) {
		var fb Work[O]
		if fallback != nil {
			fb = func(ctx context.Context) (O, error) {
				return fallback(ctx, input)
			}
		}
		return ExecuteWithFallback(ctx, e, key, func(ctx context.Context) (O, error) {
			return h(ctx, input)
		}, fb)
	}
}
