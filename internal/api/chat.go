package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/planforge/planforge/internal/chat"
	"github.com/planforge/planforge/internal/provider"
	"github.com/planforge/planforge/internal/search"
	"github.com/planforge/planforge/internal/store"
)

const chatSystemPrompt = `You are PlanForge, a planning assistant that helps developers turn a
project idea into a concrete, buildable plan. Ask focused questions about
goals, users, core features, tech stack, data model, integrations,
constraints, and edge cases. Keep answers short and concrete. When the plan
has enough substance, tell the user they can generate their execution
documents.`

// ChatService runs one conversational turn: persist the user message, search
// the web when the message calls for it, stream the model reply, persist it.
type ChatService struct {
	store    store.Store
	llm      provider.Client
	searcher *search.Cache
	streams  func(sessionID string) chat.EventSink
	logger   *slog.Logger
}

func NewChatService(st store.Store, llm provider.Client, searcher *search.Cache, streams func(string) chat.EventSink, logger *slog.Logger) *ChatService {
	return &ChatService{store: st, llm: llm, searcher: searcher, streams: streams, logger: logger}
}

func (c *ChatService) Send(ctx context.Context, sessionID, content string) (string, error) {
	if _, err := c.store.GetSession(ctx, sessionID); err != nil {
		return "", err
	}

	var sink chat.EventSink
	if c.streams != nil {
		sink = c.streams(sessionID)
	} else {
		sink = func(chat.StreamEvent) {}
	}

	query, searchContext := c.maybeSearch(ctx, content, sink)

	metadata := ""
	if query != "" {
		metadata = fmt.Sprintf(`{"search_query":%q}`, query)
	}
	if _, err := c.store.AppendMessage(ctx, sessionID, "user", content, metadata); err != nil {
		return "", err
	}

	history, err := c.store.GetMessages(ctx, sessionID)
	if err != nil {
		return "", err
	}

	messages := []chat.Message{chat.System(chatSystemPrompt)}
	if searchContext != "" {
		messages = append(messages, chat.System(searchContext))
	}
	for _, m := range history {
		switch m.Role {
		case "user":
			messages = append(messages, chat.User(m.Content))
		case "assistant":
			messages = append(messages, chat.Assistant(m.Content))
		}
	}

	reply, err := c.llm.StreamChat(ctx, messages, sink)
	if err != nil {
		return "", err
	}

	if _, err := c.store.AppendMessage(ctx, sessionID, "assistant", reply, ""); err != nil {
		return "", err
	}
	return reply, nil
}

// maybeSearch runs a web search when the message warrants one and returns the
// query plus a system-context block summarizing the results. Search failures
// degrade to an offline answer.
func (c *ChatService) maybeSearch(ctx context.Context, content string, sink chat.EventSink) (string, string) {
	if c.searcher == nil {
		return "", ""
	}
	query, ok := search.ShouldSearch(content)
	if !ok {
		return "", ""
	}

	sink(chat.SearchStartEvent(query))
	results, err := c.searcher.Search(ctx, query)
	if err != nil || len(results) == 0 {
		if err != nil && !errors.Is(err, search.ErrNoResults) {
			c.logger.Warn("web search failed", "query", query, "error", err)
		}
		return "", ""
	}
	sink(chat.SearchResultEvent(query, results))

	var b strings.Builder
	b.WriteString("Current web search results for the user's question. Use them to ground your answer and cite sources inline.\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
	}
	return query, b.String()
}
