package logger

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	cfg := &Config{
		Level:  "debug",
		Format: "json",
		Output: "stderr",
	}
	l := New(cfg)
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewDefault(t *testing.T) {
	l := NewDefault()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stderr",
	}
	l := New(cfg)
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	// Must not panic or write anywhere.
	l.Debug("dropped")
	l.Info("dropped", Fields(FieldKey, "a"))
	l.Warn("dropped")
	l.Error("dropped")
}

func TestWithComponent(t *testing.T) {
	l := NewDefault()
	cl := l.WithComponent("store")
	if cl == nil {
		t.Fatal("expected non-nil logger")
	}
	if cl == l {
		t.Error("expected a derived logger, got the same instance")
	}
}

func TestWithFields(t *testing.T) {
	l := Nop().WithFields(map[string]interface{}{FieldKey: "payments:charge"})
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithError(t *testing.T) {
	l := Nop().WithError(errors.New("boom"))
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestFields(t *testing.T) {
	m := Fields(FieldKey, "a", FieldStatus, "OPEN")
	if len(m) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(m))
	}
	if m[FieldKey] != "a" {
		t.Errorf("expected key 'a', got %v", m[FieldKey])
	}
	if m[FieldStatus] != "OPEN" {
		t.Errorf("expected status 'OPEN', got %v", m[FieldStatus])
	}
}

func TestFields_OddPairs(t *testing.T) {
	m := Fields(FieldKey, "a", "dangling")
	if len(m) != 1 {
		t.Fatalf("expected dangling key to be dropped, got %d fields", len(m))
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output 'stderr', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps enabled by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
