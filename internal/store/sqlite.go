package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite implements Store on a local database file. Pure-Go driver, no cgo.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLite{db: db}, nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_session ON documents(session_id)`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() {
	_ = s.db.Close()
}

func (s *SQLite) CreateSession(ctx context.Context, name string) (Session, error) {
	session := Session{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    "active",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.Name, session.Status, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

func (s *SQLite) GetSession(ctx context.Context, id string) (Session, error) {
	var session Session
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, status, created_at, updated_at
		FROM sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.Name, &description, &session.Status,
		&session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("select session: %w", err)
	}
	session.Description = description.String
	return session, nil
}

func (s *SQLite) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, status, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		var description sql.NullString
		if err := rows.Scan(&session.ID, &session.Name, &description,
			&session.Status, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		session.Description = description.String
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SQLite) AppendMessage(ctx context.Context, sessionID, role, content, metadata string) (Message, error) {
	msg := Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, metadata, created_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.Metadata, msg.CreatedAt,
	)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now().UTC(), sessionID)
	if err != nil {
		return Message{}, fmt.Errorf("touch session: %w", err)
	}
	return msg, nil
}

func (s *SQLite) GetMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, metadata, created_at
		FROM messages WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var metadata sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content,
			&metadata, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Metadata = metadata.String
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLite) ReplaceDocuments(ctx context.Context, sessionID string, drafts []Draft) ([]GeneratedDocument, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE session_id = ?`, sessionID); err != nil {
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
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, session_id, filename, content, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			doc.ID, doc.SessionID, doc.Filename, doc.Content, doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert document %s: %w", draft.Filename, err)
		}
		docs = append(docs, doc)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return docs, nil
}

func (s *SQLite) GetDocuments(ctx context.Context, sessionID string) ([]GeneratedDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, filename, content, created_at
		FROM documents WHERE session_id = ? ORDER BY created_at, filename`, sessionID)
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
