package circuitbreaker

import (
	"errors"
	"fmt"
	"time"
)

// Settings configure when a breaker trips and how long it cools down.
// Both values are required at construction; NewManager rejects missing
// or non-positive values instead of silently defaulting.
type Settings struct {
	// FailureThreshold is the consecutive failure count at which the
	// breaker opens.
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	// ResetTimeout is the cooldown after the last failure before a
	// trial call is allowed again.
	ResetTimeout time.Duration `yaml:"reset_timeout" mapstructure:"reset_timeout"`
}

// DefaultSettings returns the stock settings: 5 failures, 30s cooldown.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// Validate checks that every value is usable.
func (s Settings) Validate() error {
	var errs []error
	if s.FailureThreshold <= 0 {
		errs = append(errs, fmt.Errorf("failure_threshold must be positive (got: %d)", s.FailureThreshold))
	}
	if s.ResetTimeout <= 0 {
		errs = append(errs, fmt.Errorf("reset_timeout must be positive (got: %s)", s.ResetTimeout))
	}
	return errors.Join(errs...)
}
