// Package chat holds the value types shared between the provider clients,
// the document orchestrator, and any event sink: role-tagged messages and
// the tagged stream event union.
package chat

import "github.com/planforge/planforge/internal/search"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation. Messages are values constructed per
// call; ordering within a request is significant (system messages first).
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

type EventType string

const (
	EventContent      EventType = "content"
	EventSearchStart  EventType = "search_start"
	EventSearchResult EventType = "search_result"
	EventError        EventType = "error"
	EventDone         EventType = "done"
)

// StreamEvent is the tagged union emitted during a streaming call. A call
// emits zero or more non-terminal events and at most one Done; if the call
// fails, no Done is emitted except for cancellation, which always resolves
// with Done before the Cancelled error is returned.
type StreamEvent struct {
	Type          EventType       `json:"type"`
	Content       string          `json:"content,omitempty"`
	Error         string          `json:"error,omitempty"`
	SearchQuery   string          `json:"search_query,omitempty"`
	SearchResults []search.Result `json:"search_results,omitempty"`
}

func ContentEvent(text string) StreamEvent {
	return StreamEvent{Type: EventContent, Content: text}
}

func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Error: message}
}

func SearchStartEvent(query string) StreamEvent {
	return StreamEvent{Type: EventSearchStart, SearchQuery: query}
}

func SearchResultEvent(query string, results []search.Result) StreamEvent {
	return StreamEvent{Type: EventSearchResult, SearchQuery: query, SearchResults: results}
}

func DoneEvent() StreamEvent {
	return StreamEvent{Type: EventDone}
}

// EventSink receives stream events. It may be invoked from an I/O-driven
// goroutine and must not block; dispatch to a UI or bus, nothing heavier.
type EventSink func(StreamEvent)
