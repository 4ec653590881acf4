// Package store persists sessions, messages, and generated documents.
// Postgres backs multi-user deployments; sqlite backs local single-user runs.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type GeneratedDocument struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Draft is a document pending persistence; the store assigns identity.
type Draft struct {
	Filename string
	Content  string
}

// Store is the full persistence surface. ReplaceDocuments swaps a session's
// document set atomically: either the whole batch becomes visible or none of
// it does.
type Store interface {
	CreateSession(ctx context.Context, name string) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)

	AppendMessage(ctx context.Context, sessionID, role, content, metadata string) (Message, error)
	GetMessages(ctx context.Context, sessionID string) ([]Message, error)

	ReplaceDocuments(ctx context.Context, sessionID string, drafts []Draft) ([]GeneratedDocument, error)
	GetDocuments(ctx context.Context, sessionID string) ([]GeneratedDocument, error)

	Ping(ctx context.Context) error
	Close()
}
