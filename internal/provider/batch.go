package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/planforge/planforge/internal/apperr"
	"github.com/planforge/planforge/internal/chat"
)

const (
	batchAPIVersion       = "2023-06-01"
	batchDefaultMaxTokens = 4096
)

// batchMessages speaks the Anthropic-style messages API: one blocking JSON
// call, no streaming. Behind StreamChat it synthesizes a single Content event
// followed by Done so callers keep the uniform event contract.
type batchMessages struct {
	cfg    Config
	client *http.Client
}

func newBatchMessages(cfg Config) *batchMessages {
	return &batchMessages{cfg: cfg, client: newHTTPClient()}
}

type batchRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	System      string         `json:"system,omitempty"`
	Temperature float64        `json:"temperature,omitempty"`
	Messages    []chat.Message `json:"messages"`
}

type batchResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type batchErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (b *batchMessages) Probe(ctx context.Context) (Health, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.cfg.BaseURL+"/v1/models", nil)
	if err != nil {
		return Health{}, fmt.Errorf("create probe request: %w", err)
	}
	b.authorize(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return Health{}, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var models modelList
		if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
			return Health{Reachable: true, ModelAvailable: true}, nil
		}
		health := Health{Reachable: true}
		for _, m := range models.Data {
			if m.ID == b.cfg.Model {
				health.ModelAvailable = true
				break
			}
		}
		return health, nil
	case resp.StatusCode == http.StatusNotFound:
		// No model-listing route; the messages endpoint may still work.
		return Health{Reachable: true, ModelAvailable: true}, nil
	default:
		return Health{Reachable: true}, nil
	}
}

func (b *batchMessages) Generate(ctx context.Context, messages []chat.Message, temperature float64) (string, error) {
	if temperature < 0 {
		temperature = b.cfg.Temperature
	}

	system, rest := splitSystem(messages)
	maxTokens := b.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = batchDefaultMaxTokens
	}

	body, err := json.Marshal(batchRequest{
		Model:       b.cfg.Model,
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: temperature,
		Messages:    rest,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	b.authorize(req)

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", apperr.Wrap(apperr.Cancelled, "response cancelled", ctx.Err())
		}
		return "", apperr.Wrap(apperr.ConnectionFailure,
			fmt.Sprintf("cannot connect to messages API at %s", b.cfg.BaseURL), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.StreamInterrupted, "read response", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return "", apperr.Newf(apperr.ModelUnavailable, "model %q not found", b.cfg.Model).
			WithAction("Check the configured model name")
	}
	if resp.StatusCode != http.StatusOK {
		var errResp batchErrorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
			return "", apperr.Newf(apperr.RequestFailed, "api error %d: %s — %s",
				resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return "", apperr.Newf(apperr.RequestFailed, "api error %d: %s", resp.StatusCode, snippet(raw))
	}

	var parsed batchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperr.Wrap(apperr.RequestFailed, "parse response", err)
	}
	if len(parsed.Content) == 0 {
		return "", apperr.New(apperr.RequestFailed, "empty response content")
	}
	return parsed.Content[0].Text, nil
}

func (b *batchMessages) StreamChat(ctx context.Context, messages []chat.Message, sink chat.EventSink) (string, error) {
	text, err := b.Generate(ctx, messages, -1)
	if err != nil {
		if apperr.IsKind(err, apperr.Cancelled) {
			sink(chat.DoneEvent())
			return "", err
		}
		sink(chat.ErrorEvent(err.Error()))
		return "", err
	}
	if text != "" {
		sink(chat.ContentEvent(text))
	}
	sink(chat.DoneEvent())
	return text, nil
}

func (b *batchMessages) authorize(req *http.Request) {
	if b.cfg.APIKey != "" {
		req.Header.Set("x-api-key", b.cfg.APIKey)
	}
	req.Header.Set("anthropic-version", batchAPIVersion)
}

// splitSystem lifts system-role messages into the API's dedicated system
// field, preserving the order of the rest.
func splitSystem(messages []chat.Message) (string, []chat.Message) {
	var system string
	rest := make([]chat.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == chat.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
