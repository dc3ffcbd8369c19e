package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix       = "CLOUDCB"
	defaultBaseName = "cloudcb"
)

// Legacy environment aliases kept for records written by earlier
// deployments: CLOUDCB_SERVICE names the service and CLOUDCB_TABLE
// names the store table.
const (
	envLegacyService = "CLOUDCB_SERVICE"
	envLegacyTable   = "CLOUDCB_TABLE"
)

// settingsKeys lists every configuration key so environment variables
// bind even when the key never appears in a file.
var settingsKeys = []string{
	"service_name",
	"store.provider",
	"store.table",
	"store.region",
	"store.endpoint",
	"store.access_key",
	"store.secret_key",
	"store.addr",
	"store.password",
	"store.db",
	"store.key_prefix",
	"breaker.failure_threshold",
	"breaker.reset_timeout_seconds",
	"logging.level",
	"logging.format",
	"logging.output",
	"logging.no_color",
	"logging.timestamp",
}

// LoaderOption customizes Load.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	envFile    string
	skipDotEnv bool
}

// WithEnvFile loads the given .env file instead of ./.env.
func WithEnvFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithoutDotEnv skips .env loading entirely.
func WithoutDotEnv() LoaderOption {
	return func(o *loaderOptions) { o.skipDotEnv = true }
}

// Load reads configuration from the given YAML file, environment
// variables prefixed CLOUDCB_, and an optional .env file. An empty
// path searches for cloudcb.yaml in . and ./config; having no file at
// all is fine, the environment alone can carry everything. Defaults
// are applied and the result validated before it is returned.
func Load(path string, opts ...LoaderOption) (*Config, error) {
	var o loaderOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.skipDotEnv {
		envFile := o.envFile
		if envFile == "" {
			envFile = ".env"
		}
		if err := godotenv.Load(envFile); err != nil && (o.envFile != "" || !os.IsNotExist(err)) {
			return nil, fmt.Errorf("config: loading env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range settingsKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else {
		v.SetConfigName(defaultBaseName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: reading %s.yaml: %w", defaultBaseName, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	applyLegacyAliases(&cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyLegacyAliases fills fields from the short environment names
// when the canonical keys left them empty.
func applyLegacyAliases(cfg *Config) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = os.Getenv(envLegacyService)
	}
	if cfg.Store.Table == "" {
		cfg.Store.Table = os.Getenv(envLegacyTable)
	}
}
