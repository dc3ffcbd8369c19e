// Package circuitbreaker implements a circuit breaker whose state is
// shared by many workers through a persistent store.
//
// Unlike an in-process breaker, nothing here lives in memory between
// calls: every decision reads the store and every outcome writes it,
// so short-lived workers (serverless functions, batch jobs, scaled-out
// replicas) see one collective breaker per key. Writes are coordinated
// optimistically on the last-failure timestamp; concurrent workers may
// undercount failures and that is accepted.
//
// Only two statuses are ever persisted, CLOSED and OPEN. Cooldown
// expiry is evaluated lazily on read: once the reset timeout has
// passed, calls are allowed through as trials while the stored record
// stays OPEN until a success resets it or a failure refreshes it.
//
// # Usage
//
//	st := memory.New()
//	mgr, err := circuitbreaker.NewManager(st, circuitbreaker.DefaultSettings())
//	if err != nil {
//		return err
//	}
//	eng := circuitbreaker.NewEngine(mgr)
//
//	resp, err := circuitbreaker.ExecuteWithFallback(ctx, eng, "payments:charge",
//		func(ctx context.Context) (string, error) { return callDownstream(ctx) },
//		func(ctx context.Context) (string, error) { return "cached", nil },
//	)
package circuitbreaker
