package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/clinton1719/cloud-circuit-breaker/circuitbreaker"
	"github.com/clinton1719/cloud-circuit-breaker/logger"
	"github.com/clinton1719/cloud-circuit-breaker/store"
)

// BreakerConfig holds the breaker policy as configured externally.
// The reset timeout is an integer second count in configuration and
// converted to a duration by Settings.
type BreakerConfig struct {
	FailureThreshold    int `yaml:"failure_threshold" mapstructure:"failure_threshold" validate:"gt=0"`
	ResetTimeoutSeconds int `yaml:"reset_timeout_seconds" mapstructure:"reset_timeout_seconds" validate:"gt=0"`
}

// Settings converts the configured policy into manager settings.
func (c BreakerConfig) Settings() circuitbreaker.Settings {
	return circuitbreaker.Settings{
		FailureThreshold: c.FailureThreshold,
		ResetTimeout:     time.Duration(c.ResetTimeoutSeconds) * time.Second,
	}
}

// Config is the full application configuration.
type Config struct {
	// ServiceName namespaces breaker keys as "<service>:<operation>"
	// so logically distinct deployments can share one store.
	ServiceName string `yaml:"service_name" mapstructure:"service_name" validate:"required"`

	Store   store.Config  `yaml:"store" mapstructure:"store"`
	Breaker BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults fills zero-valued fields with the stock policy and
// backend defaults. Called by Load before validation.
func (c *Config) ApplyDefaults() {
	def := circuitbreaker.DefaultSettings()
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = def.FailureThreshold
	}
	if c.Breaker.ResetTimeoutSeconds == 0 {
		c.Breaker.ResetTimeoutSeconds = int(def.ResetTimeout / time.Second)
	}
	c.Store.ApplyDefaults()
	c.Logging.ApplyDefaults()
}

// Validate checks the whole configuration. A missing service name or
// non-positive breaker numbers fail the load; misconfiguration is
// never papered over with defaults here.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.ToLower(fe.Namespace()), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

var validate = newValidator()

// newValidator reports violations under mapstructure key names so the
// message matches what the operator wrote in the file.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}
