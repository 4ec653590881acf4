package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8760 {
		t.Errorf("Port = %d, want 8760", cfg.Port)
	}
	if cfg.StoreDriver != "sqlite" {
		t.Errorf("StoreDriver = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.ProviderKind != "local_daemon" {
		t.Errorf("ProviderKind = %q", cfg.ProviderKind)
	}
	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if !cfg.SearchEnabled || !cfg.IncludeConversation {
		t.Error("search and conversation export should default on")
	}
	if cfg.StrictDocs {
		t.Error("strict validation should default off")
	}
	if cfg.Target != "generic" {
		t.Errorf("Target = %q", cfg.Target)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FORGE_PORT", "9000")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/forge")
	t.Setenv("LLM_PROVIDER", "openai_compatible")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_MAX_TOKENS", "2048")
	t.Setenv("SEARCH_ENABLED", "false")
	t.Setenv("FORGE_STRICT_DOCS", "true")

	cfg := Load()
	if cfg.Port != 9000 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.StoreDriver != "postgres" || cfg.DatabaseURL != "postgres://localhost/forge" {
		t.Errorf("store config = %q %q", cfg.StoreDriver, cfg.DatabaseURL)
	}
	if cfg.ProviderKind != "openai_compatible" {
		t.Errorf("ProviderKind = %q", cfg.ProviderKind)
	}
	if cfg.Temperature != 0.2 || cfg.MaxTokens != 2048 {
		t.Errorf("llm tuning = %v %d", cfg.Temperature, cfg.MaxTokens)
	}
	if cfg.SearchEnabled {
		t.Error("SEARCH_ENABLED=false ignored")
	}
	if !cfg.StrictDocs {
		t.Error("FORGE_STRICT_DOCS=true ignored")
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("FORGE_PORT", "not-a-number")
	t.Setenv("LLM_TEMPERATURE", "warm")
	t.Setenv("SEARCH_ENABLED", "maybe")

	cfg := Load()
	if cfg.Port != 8760 {
		t.Errorf("Port = %d, want default on parse failure", cfg.Port)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want default", cfg.Temperature)
	}
	if !cfg.SearchEnabled {
		t.Error("SearchEnabled should fall back to default")
	}
}
