package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/planforge/planforge/internal/apperr"
	"github.com/planforge/planforge/internal/chat"
)

// openAICompatible speaks the chat-completions protocol with SSE streaming.
// BaseURL is expected to include the version prefix (e.g. ".../v1").
type openAICompatible struct {
	cfg    Config
	client *http.Client
	stall  time.Duration
}

func newOpenAICompatible(cfg Config) *openAICompatible {
	return &openAICompatible{cfg: cfg, client: newHTTPClient(), stall: stallTimeout}
}

type completionRequest struct {
	Model       string         `json:"model"`
	Messages    []chat.Message `json:"messages"`
	Stream      bool           `json:"stream"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message chat.Message `json:"message"`
	} `json:"choices"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (o *openAICompatible) Probe(ctx context.Context) (Health, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint("/models"), nil)
	if err != nil {
		return Health{}, fmt.Errorf("create probe request: %w", err)
	}
	o.authorize(req)

	resp, err := o.client.Do(req)
	if err != nil {
		return Health{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Got an HTTP response, so the endpoint is up. A 404 means the server
		// has no /models route at all, so availability cannot be verified;
		// assume the model exists rather than block generation on a missing
		// introspection endpoint. Any other status leaves it unconfirmed.
		return Health{Reachable: true, ModelAvailable: resp.StatusCode == http.StatusNotFound}, nil
	}

	var models modelList
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return Health{Reachable: true, ModelAvailable: true}, nil
	}
	health := Health{Reachable: true}
	for _, m := range models.Data {
		if m.ID == o.cfg.Model {
			health.ModelAvailable = true
			break
		}
	}
	return health, nil
}

func (o *openAICompatible) Generate(ctx context.Context, messages []chat.Message, temperature float64) (string, error) {
	resp, err := o.complete(ctx, messages, temperature, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.Wrap(apperr.RequestFailed, "parse completion response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperr.New(apperr.RequestFailed, "empty completion response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (o *openAICompatible) StreamChat(ctx context.Context, messages []chat.Message, sink chat.EventSink) (string, error) {
	reqCtx, cancelReq := context.WithCancel(ctx)
	defer cancelReq()
	watchdog := time.AfterFunc(o.stall, cancelReq)
	defer watchdog.Stop()

	doneEmitted := false
	emitDone := func() {
		if !doneEmitted {
			doneEmitted = true
			sink(chat.DoneEvent())
		}
	}

	resp, err := o.completeWithContext(reqCtx, messages, -1, true)
	if err != nil {
		if ctx.Err() != nil {
			emitDone()
			return "", apperr.Wrap(apperr.Cancelled, "response cancelled", ctx.Err())
		}
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = consumeLines(ctx, resp.Body, watchdog, o.stall, func(line []byte) bool {
		s := string(line)
		if strings.HasPrefix(s, ":") {
			return false // SSE comment / keepalive
		}
		if !strings.HasPrefix(s, "data:") {
			return false // non-data lines never contribute to the response
		}
		payload := strings.TrimSpace(strings.TrimPrefix(s, "data:"))
		if payload == "[DONE]" {
			emitDone()
			return true
		}

		var chunk completionChunk
		if json.Unmarshal([]byte(payload), &chunk) != nil {
			return false
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				full.WriteString(choice.Delta.Content)
				sink(chat.ContentEvent(choice.Delta.Content))
			}
			if choice.FinishReason != nil && *choice.FinishReason != "" {
				emitDone()
				return true
			}
		}
		return false
	})
	if err != nil {
		if apperr.IsKind(err, apperr.Cancelled) {
			emitDone()
			return full.String(), err
		}
		sink(chat.ErrorEvent(err.Error()))
		return full.String(), err
	}

	emitDone()
	return full.String(), nil
}

func (o *openAICompatible) complete(ctx context.Context, messages []chat.Message, temperature float64, stream bool) (*http.Response, error) {
	return o.completeWithContext(ctx, messages, temperature, stream)
}

func (o *openAICompatible) completeWithContext(ctx context.Context, messages []chat.Message, temperature float64, stream bool) (*http.Response, error) {
	if temperature < 0 {
		temperature = o.cfg.Temperature
	}

	body, err := json.Marshal(completionRequest{
		Model:       o.cfg.Model,
		Messages:    messages,
		Stream:      stream,
		Temperature: temperature,
		MaxTokens:   o.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint("/chat/completions"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	o.authorize(req)

	resp, err := o.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.Cancelled, "response cancelled", ctx.Err())
		}
		return nil, apperr.Wrap(apperr.ConnectionFailure,
			fmt.Sprintf("cannot connect to endpoint at %s", o.cfg.BaseURL), err)
	}

	if resp.StatusCode == http.StatusNotFound {
		defer resp.Body.Close()
		return nil, apperr.Newf(apperr.ModelUnavailable, "model %q not found", o.cfg.Model).
			WithAction("Check the configured model name against the endpoint's model list")
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return nil, apperr.Newf(apperr.RequestFailed, "endpoint returned %d: %s", resp.StatusCode, snippet(raw))
	}
	return resp, nil
}

func (o *openAICompatible) endpoint(path string) string {
	return strings.TrimRight(o.cfg.BaseURL, "/") + path
}

// authorize attaches bearer credentials only when a key is configured. The
// key is never written to logs or error text.
func (o *openAICompatible) authorize(req *http.Request) {
	if o.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}
}
