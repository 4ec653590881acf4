package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool. Schema: sessions,
// messages, documents (see migrations in the deployment repo).
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) CreateSession(ctx context.Context, name string) (Session, error) {
	session := Session{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    "active",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.Name, session.Status, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

func (s *Postgres) GetSession(ctx context.Context, id string) (Session, error) {
	var session Session
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), status, created_at, updated_at
		FROM sessions WHERE id = $1`, id,
	).Scan(&session.ID, &session.Name, &session.Description, &session.Status,
		&session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("select session: %w", err)
	}
	return session, nil
}

func (s *Postgres) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), status, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.ID, &session.Name, &session.Description,
			&session.Status, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Postgres) AppendMessage(ctx context.Context, sessionID, role, content, metadata string) (Message, error) {
	msg := Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, session_id, role, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.Metadata, msg.CreatedAt,
	)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	_, err = s.pool.Exec(ctx, `UPDATE sessions SET updated_at = now() WHERE id = $1`, sessionID)
	if err != nil {
		return Message{}, fmt.Errorf("touch session: %w", err)
	}
	return msg, nil
}

func (s *Postgres) GetMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, role, content, COALESCE(metadata, ''), created_at
		FROM messages WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content,
			&msg.Metadata, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ReplaceDocuments swaps the session's documents inside one transaction.
func (s *Postgres) ReplaceDocuments(ctx context.Context, sessionID string, drafts []Draft) ([]GeneratedDocument, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE session_id = $1`, sessionID); err != nil {
		return nil, fmt.Errorf("delete documents: %w", err)
	}

	now := time.Now().UTC()
	docs := make([]GeneratedDocument, 0, len(drafts))
	for _, draft := range drafts {
		doc := GeneratedDocument{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Filename:  draft.Filename,
			Content:   draft.Content,
			CreatedAt: now,
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO documents (id, session_id, filename, content, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			doc.ID, doc.SessionID, doc.Filename, doc.Content, doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert document %s: %w", draft.Filename, err)
		}
		docs = append(docs, doc)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return docs, nil
}

func (s *Postgres) GetDocuments(ctx context.Context, sessionID string) ([]GeneratedDocument, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, filename, content, created_at
		FROM documents WHERE session_id = $1 ORDER BY created_at, filename`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()

	var docs []GeneratedDocument
	for rows.Next() {
		var doc GeneratedDocument
		if err := rows.Scan(&doc.ID, &doc.SessionID, &doc.Filename, &doc.Content, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
