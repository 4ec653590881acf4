// Package provider unifies three LLM-serving protocols behind one client
// surface: a local streaming daemon (newline-delimited JSON), an
// OpenAI-compatible SSE endpoint, and a batch messages API.
package provider

import (
	"context"
	"net/url"

	"github.com/planforge/planforge/internal/apperr"
	"github.com/planforge/planforge/internal/chat"
)

type Kind string

const (
	KindLocalDaemon      Kind = "local_daemon"
	KindOpenAICompatible Kind = "openai_compatible"
	KindBatchMessages    Kind = "batch_messages"
)

type Config struct {
	Kind        Kind
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

func (c Config) Validate() error {
	switch c.Kind {
	case KindLocalDaemon, KindOpenAICompatible, KindBatchMessages:
	default:
		return apperr.Newf(apperr.Unsupported, "unknown provider kind %q", c.Kind)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperr.Newf(apperr.ValidationFailed, "base URL must be http(s): %q", c.BaseURL)
	}
	if c.Model == "" {
		return apperr.New(apperr.ValidationFailed, "model must be set")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return apperr.Newf(apperr.ValidationFailed, "temperature %.2f outside [0.0, 2.0]", c.Temperature)
	}
	return nil
}

// Health reports backend connectivity. Probing never returns an error for an
// unreachable backend; that is what Reachable=false means.
type Health struct {
	Reachable      bool `json:"reachable"`
	ModelAvailable bool `json:"model_available"`
}

// Client is the provider-agnostic generation surface. Implementations bind a
// Config at construction; callers never see which wire protocol is active.
//
// Generate performs one blocking call and returns the full text. A
// temperature < 0 means "use the configured default"; the orchestrator passes
// explicit low temperatures for structured output.
//
// StreamChat emits incremental StreamEvents to sink and returns the
// accumulated text. Cancelling ctx mid-stream always emits a terminal Done
// event before the Cancelled error is returned.
type Client interface {
	Probe(ctx context.Context) (Health, error)
	Generate(ctx context.Context, messages []chat.Message, temperature float64) (string, error)
	StreamChat(ctx context.Context, messages []chat.Message, sink chat.EventSink) (string, error)
}

// New constructs the adapter for cfg.Kind.
func New(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case KindLocalDaemon:
		return newLocalDaemon(cfg), nil
	case KindOpenAICompatible:
		return newOpenAICompatible(cfg), nil
	case KindBatchMessages:
		return newBatchMessages(cfg), nil
	default:
		return nil, apperr.Newf(apperr.Unsupported, "unknown provider kind %q", cfg.Kind)
	}
}
