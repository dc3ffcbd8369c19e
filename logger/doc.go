// Package logger provides structured logging for the circuit breaker
// library using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. Library components
// default to a disabled logger (Nop); applications opt in by wiring a
// real one.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault().WithComponent("store")
//	log.Warn("write skipped", logger.Fields(logger.FieldKey, key))
package logger
