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

// localDaemon speaks the Ollama wire protocol: POST /api/chat returning
// newline-delimited JSON chunks, GET /api/tags for connectivity and model
// availability.
type localDaemon struct {
	cfg    Config
	client *http.Client
	stall  time.Duration
}

func newLocalDaemon(cfg Config) *localDaemon {
	return &localDaemon{cfg: cfg, client: newHTTPClient(), stall: stallTimeout}
}

type localChatRequest struct {
	Model    string         `json:"model"`
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  localOptions   `json:"options"`
}

type localOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type localStreamChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// The blocking /api/chat response has the same shape as a single stream
// chunk with done=true.
type localChatResponse = localStreamChunk

type localTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (l *localDaemon) Probe(ctx context.Context) (Health, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return Health{}, fmt.Errorf("create probe request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Health{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{}, nil
	}

	var tags localTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return Health{Reachable: true}, nil
	}

	health := Health{Reachable: true}
	base := strings.SplitN(l.cfg.Model, ":", 2)[0]
	for _, m := range tags.Models {
		if m.Name == l.cfg.Model || strings.HasPrefix(m.Name, base+":") {
			health.ModelAvailable = true
			break
		}
	}
	return health, nil
}

func (l *localDaemon) Generate(ctx context.Context, messages []chat.Message, temperature float64) (string, error) {
	resp, err := l.chat(ctx, messages, temperature, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed localChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.Wrap(apperr.RequestFailed, "parse daemon response", err)
	}
	return parsed.Message.Content, nil
}

func (l *localDaemon) StreamChat(ctx context.Context, messages []chat.Message, sink chat.EventSink) (string, error) {
	reqCtx, cancelReq := context.WithCancel(ctx)
	defer cancelReq()
	watchdog := time.AfterFunc(l.stall, cancelReq)
	defer watchdog.Stop()

	doneEmitted := false
	emitDone := func() {
		if !doneEmitted {
			doneEmitted = true
			sink(chat.DoneEvent())
		}
	}

	resp, err := l.chatWithContext(reqCtx, messages, -1, true)
	if err != nil {
		if ctx.Err() != nil {
			emitDone()
			return "", apperr.Wrap(apperr.Cancelled, "response cancelled", ctx.Err())
		}
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = consumeLines(ctx, resp.Body, watchdog, l.stall, func(line []byte) bool {
		var chunk localStreamChunk
		if json.Unmarshal(line, &chunk) != nil {
			return false // unparsable lines are skipped, not fatal
		}
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			sink(chat.ContentEvent(chunk.Message.Content))
		}
		if chunk.Done {
			emitDone()
			return true
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

func (l *localDaemon) chat(ctx context.Context, messages []chat.Message, temperature float64, stream bool) (*http.Response, error) {
	return l.chatWithContext(ctx, messages, temperature, stream)
}

func (l *localDaemon) chatWithContext(ctx context.Context, messages []chat.Message, temperature float64, stream bool) (*http.Response, error) {
	if temperature < 0 {
		temperature = l.cfg.Temperature
	}

	body, err := json.Marshal(localChatRequest{
		Model:    l.cfg.Model,
		Messages: messages,
		Stream:   stream,
		Options: localOptions{
			Temperature: temperature,
			NumPredict:  l.cfg.MaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.Cancelled, "response cancelled", ctx.Err())
		}
		return nil, apperr.Wrap(apperr.ConnectionFailure,
			fmt.Sprintf("cannot connect to daemon at %s", l.cfg.BaseURL), err).
			WithAction("Start the local model daemon and retry")
	}

	if resp.StatusCode == http.StatusNotFound {
		defer resp.Body.Close()
		return nil, apperr.Newf(apperr.ModelUnavailable, "model %q not found", l.cfg.Model).
			WithAction("ollama pull " + l.cfg.Model)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return nil, apperr.Newf(apperr.RequestFailed, "daemon returned %d: %s", resp.StatusCode, snippet(raw))
	}
	return resp, nil
}
