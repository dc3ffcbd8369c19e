package store

import (
	"errors"
	"fmt"
)

// Provider constants for supported store backends.
const (
	ProviderMemory   = "memory"
	ProviderDynamoDB = "dynamodb"
	ProviderRedis    = "redis"
)

// Default configuration values.
const (
	DefaultProvider  = ProviderMemory
	DefaultRegion    = "us-east-1"
	DefaultKeyPrefix = "cloudcb"
	DefaultRedisAddr = "localhost:6379"
)

// Config holds store configuration for every backend; each backend
// reads only its own fields.
type Config struct {
	// Provider selects the backend: "memory", "dynamodb" or "redis".
	Provider string `mapstructure:"provider" json:"provider"`

	// Table is the DynamoDB table holding breaker records.
	Table string `mapstructure:"table" json:"table"`

	// Region is the AWS region for DynamoDB.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom DynamoDB endpoint (e.g. DynamoDB Local).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the AWS access key ID. Leave empty to use the
	// default credential chain.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// Addr is the Redis server address.
	Addr string `mapstructure:"addr" json:"addr"`

	// Password is the Redis password.
	Password string `mapstructure:"password" json:"password"`

	// DB is the Redis database number.
	DB int `mapstructure:"db" json:"db"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.Addr == "" && c.Provider == ProviderRedis {
		c.Addr = DefaultRedisAddr
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMemory:
		// No required fields.
	case ProviderDynamoDB:
		var errs []error
		if c.Table == "" {
			errs = append(errs, errors.New("store: table is required for dynamodb provider"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New("store: region is required for dynamodb provider"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("store: invalid dynamodb config: %w", errors.Join(errs...))
		}
	case ProviderRedis:
		if c.Addr == "" {
			return errors.New("store: addr is required for redis provider")
		}
	default:
		return fmt.Errorf("store: unsupported provider %q", c.Provider)
	}
	return nil
}
