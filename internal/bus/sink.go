package bus

import (
	"github.com/planforge/planforge/internal/chat"
	"github.com/planforge/planforge/internal/docgen"
)

// Sink adapts the NATS client to the orchestrator's event interface and the
// chat event callback. Publish failures are logged and dropped; event
// delivery is best-effort and must never stall a stream read loop.
type Sink struct {
	client *Client
}

func NewSink(client *Client) *Sink {
	return &Sink{client: client}
}

func (s *Sink) GenerateProgress(p docgen.Progress) {
	if err := s.client.Publish(SubjectGenerateProgress, p); err != nil {
		s.client.logger.Warn("failed to publish progress", "error", err)
	}
}

func (s *Sink) GenerateComplete(c docgen.Complete) {
	if err := s.client.Publish(SubjectGenerateComplete, c); err != nil {
		s.client.logger.Warn("failed to publish completion", "error", err)
	}
}

// StreamSink returns a chat.EventSink that publishes each stream event,
// tagged with the session it belongs to.
func (s *Sink) StreamSink(sessionID string) chat.EventSink {
	type taggedEvent struct {
		SessionID string `json:"session_id"`
		chat.StreamEvent
	}
	return func(ev chat.StreamEvent) {
		if err := s.client.Publish(SubjectStreamEvent, taggedEvent{SessionID: sessionID, StreamEvent: ev}); err != nil {
			s.client.logger.Warn("failed to publish stream event", "error", err)
		}
	}
}
