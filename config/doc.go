// Package config loads the breaker's externalized configuration.
//
// Configuration comes from an optional YAML file (explicit path or a
// cloudcb.yaml found in . or ./config), an optional .env file, and
// CLOUDCB_-prefixed environment variables, in ascending precedence.
// Nested keys map to environment variables with underscores, e.g.
// store.table becomes CLOUDCB_STORE_TABLE.
//
//	cfg, err := config.Load("")
//	if err != nil { ... }
//	settings := cfg.Breaker.Settings()
package config
