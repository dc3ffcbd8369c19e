package store

import (
	"strings"
	"testing"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Provider != ProviderMemory {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderMemory)
	}
	if cfg.Region != DefaultRegion {
		t.Errorf("Region = %q, want %q", cfg.Region, DefaultRegion)
	}
	if cfg.KeyPrefix != DefaultKeyPrefix {
		t.Errorf("KeyPrefix = %q, want %q", cfg.KeyPrefix, DefaultKeyPrefix)
	}
	if cfg.Addr != "" {
		t.Errorf("Addr should stay empty for non-redis providers, got %q", cfg.Addr)
	}
}

func TestConfig_ApplyDefaults_RedisAddr(t *testing.T) {
	cfg := Config{Provider: ProviderRedis}
	cfg.ApplyDefaults()
	if cfg.Addr != DefaultRedisAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultRedisAddr)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "memory needs nothing",
			cfg:  Config{Provider: ProviderMemory},
		},
		{
			name: "dynamodb complete",
			cfg:  Config{Provider: ProviderDynamoDB, Table: "breaker-state", Region: "us-east-1"},
		},
		{
			name:    "dynamodb missing table",
			cfg:     Config{Provider: ProviderDynamoDB, Region: "us-east-1"},
			wantErr: "table",
		},
		{
			name:    "dynamodb missing everything",
			cfg:     Config{Provider: ProviderDynamoDB},
			wantErr: "table",
		},
		{
			name: "redis complete",
			cfg:  Config{Provider: ProviderRedis, Addr: "localhost:6379"},
		},
		{
			name:    "redis missing addr",
			cfg:     Config{Provider: ProviderRedis},
			wantErr: "addr",
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "etcd"},
			wantErr: "unsupported provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
