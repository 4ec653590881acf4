package provider

import (
	"testing"

	"github.com/planforge/planforge/internal/apperr"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Kind:        KindLocalDaemon,
		BaseURL:     "http://localhost:11434",
		Model:       "llama3.2",
		Temperature: 0.7,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   apperr.Kind
	}{
		{"valid", func(c *Config) {}, ""},
		{"https allowed", func(c *Config) { c.BaseURL = "https://api.example.com" }, ""},
		{"temperature zero allowed", func(c *Config) { c.Temperature = 0 }, ""},
		{"temperature two allowed", func(c *Config) { c.Temperature = 2 }, ""},
		{"unknown kind", func(c *Config) { c.Kind = "grpc" }, apperr.Unsupported},
		{"empty base URL", func(c *Config) { c.BaseURL = "" }, apperr.ValidationFailed},
		{"non-http scheme", func(c *Config) { c.BaseURL = "ftp://example.com" }, apperr.ValidationFailed},
		{"missing host", func(c *Config) { c.BaseURL = "http://" }, apperr.ValidationFailed},
		{"empty model", func(c *Config) { c.Model = "" }, apperr.ValidationFailed},
		{"temperature too high", func(c *Config) { c.Temperature = 2.1 }, apperr.ValidationFailed},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, apperr.ValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !apperr.IsKind(err, tt.want) {
				t.Errorf("Validate() kind = %q, want %q", apperr.KindOf(err), tt.want)
			}
		})
	}
}

func TestNew_DispatchesByKind(t *testing.T) {
	base := Config{BaseURL: "http://localhost:8080", Model: "m", Temperature: 0.5}

	for _, kind := range []Kind{KindLocalDaemon, KindOpenAICompatible, KindBatchMessages} {
		cfg := base
		cfg.Kind = kind
		client, err := New(cfg)
		if err != nil {
			t.Errorf("New(%s): %v", kind, err)
		}
		if client == nil {
			t.Errorf("New(%s) returned nil client", kind)
		}
	}

	cfg := base
	cfg.Kind = "websocket"
	if _, err := New(cfg); !apperr.IsKind(err, apperr.Unsupported) {
		t.Errorf("New(websocket) kind = %q, want unsupported", apperr.KindOf(err))
	}
}
