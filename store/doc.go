// Package store selects and configures circuit breaker store backends.
//
// Backend packages register themselves under a provider name; an
// application picks one through Config.Provider and a blank import:
//
//	import (
//		"github.com/clinton1719/cloud-circuit-breaker/store"
//		_ "github.com/clinton1719/cloud-circuit-breaker/store/dynamodb"
//	)
//
//	st, err := store.New(ctx, store.Config{Provider: "dynamodb", Table: "breakers"}, log)
package store
