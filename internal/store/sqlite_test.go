package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "planforge.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSQLite_SessionLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	created, err := s.CreateSession(ctx, "Invoice Tool")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.ID == "" || created.Status != "active" {
		t.Errorf("created = %+v", created)
	}

	got, err := s.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Name != "Invoice Tool" {
		t.Errorf("name = %q", got.Name)
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}
}

func TestSQLite_GetSession_NotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetSession(context.Background(), "no-such-id")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLite_Messages(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	session, err := s.CreateSession(ctx, "Chat")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := s.AppendMessage(ctx, session.ID, "user", "first", ""); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if _, err := s.AppendMessage(ctx, session.ID, "assistant", "second", `{"search_query":"react vs vue"}`); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	messages, err := s.GetMessages(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if messages[0].Content != "first" || messages[1].Content != "second" {
		t.Errorf("order = %q, %q", messages[0].Content, messages[1].Content)
	}
	if messages[0].Metadata != "" {
		t.Errorf("metadata = %q, want empty", messages[0].Metadata)
	}
	if messages[1].Metadata != `{"search_query":"react vs vue"}` {
		t.Errorf("metadata = %q", messages[1].Metadata)
	}
}

func TestSQLite_ReplaceDocumentsSwapsAtomically(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	session, err := s.CreateSession(ctx, "Docs")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	first := []Draft{
		{Filename: "SPEC.md", Content: "old spec"},
		{Filename: "README.md", Content: "old readme"},
	}
	if _, err := s.ReplaceDocuments(ctx, session.ID, first); err != nil {
		t.Fatalf("ReplaceDocuments: %v", err)
	}

	second := []Draft{
		{Filename: "SPEC.md", Content: "new spec"},
		{Filename: "PROMPTS.md", Content: "new prompts"},
		{Filename: "README.md", Content: "new readme"},
	}
	if _, err := s.ReplaceDocuments(ctx, session.ID, second); err != nil {
		t.Fatalf("ReplaceDocuments: %v", err)
	}

	docs, err := s.GetDocuments(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetDocuments: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("documents = %d, want the old set fully replaced", len(docs))
	}
	for _, doc := range docs {
		if doc.Filename == "SPEC.md" && doc.Content != "new spec" {
			t.Errorf("SPEC.md content = %q", doc.Content)
		}
		if doc.Content == "old readme" {
			t.Error("stale document survived the swap")
		}
	}
}

func TestSQLite_DocumentsScopedToSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a, _ := s.CreateSession(ctx, "A")
	b, _ := s.CreateSession(ctx, "B")

	if _, err := s.ReplaceDocuments(ctx, a.ID, []Draft{{Filename: "SPEC.md", Content: "a"}}); err != nil {
		t.Fatalf("ReplaceDocuments: %v", err)
	}
	if _, err := s.ReplaceDocuments(ctx, b.ID, []Draft{{Filename: "SPEC.md", Content: "b"}}); err != nil {
		t.Fatalf("ReplaceDocuments: %v", err)
	}

	docsA, _ := s.GetDocuments(ctx, a.ID)
	if len(docsA) != 1 || docsA[0].Content != "a" {
		t.Errorf("session A docs = %+v", docsA)
	}
}

func TestSQLite_AppendMessageTouchesSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	session, _ := s.CreateSession(ctx, "Touch")
	if _, err := s.AppendMessage(ctx, session.ID, "user", "hello", ""); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	got, err := s.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.UpdatedAt.Before(session.UpdatedAt) {
		t.Error("updated_at not advanced by AppendMessage")
	}
}
