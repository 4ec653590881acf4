package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port     int
	LogLevel string

	StoreDriver string // "sqlite" or "postgres"
	DatabaseURL string
	SQLitePath  string

	NatsURL   string
	NatsToken string

	ProviderKind string
	BaseURL      string
	Model        string
	APIKey       string
	Temperature  float64
	MaxTokens    int

	SearchEnabled       bool
	IncludeConversation bool
	StrictDocs          bool
	Target              string
}

func Load() Config {
	return Config{
		Port:     envInt("FORGE_PORT", 8760),
		LogLevel: envStr("LOG_LEVEL", "info"),

		StoreDriver: envStr("STORE_DRIVER", "sqlite"),
		DatabaseURL: envStr("DATABASE_URL", ""),
		SQLitePath:  envStr("SQLITE_PATH", "planforge.db"),

		NatsURL:   envStr("NATS_URL", ""),
		NatsToken: envStr("NATS_TOKEN", ""),

		ProviderKind: envStr("LLM_PROVIDER", "local_daemon"),
		BaseURL:      envStr("LLM_BASE_URL", "http://localhost:11434"),
		Model:        envStr("LLM_MODEL", "qwen3-coder:30b-a3b-instruct-q4_K_M"),
		APIKey:       envStr("LLM_API_KEY", ""),
		Temperature:  envFloat("LLM_TEMPERATURE", 0.7),
		MaxTokens:    envInt("LLM_MAX_TOKENS", 65536),

		SearchEnabled:       envBool("SEARCH_ENABLED", true),
		IncludeConversation: envBool("FORGE_INCLUDE_CONVERSATION", true),
		StrictDocs:          envBool("FORGE_STRICT_DOCS", false),
		Target:              envStr("FORGE_TARGET", "generic"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
