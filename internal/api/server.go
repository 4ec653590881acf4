// Package api exposes the generation core over HTTP. It is also the
// session-coordinating layer: active cancellation tokens are keyed by session
// here, not inside the provider clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/planforge/planforge/internal/apperr"
	"github.com/planforge/planforge/internal/docgen"
	"github.com/planforge/planforge/internal/provider"
	"github.com/planforge/planforge/internal/store"
)

type Server struct {
	router       *chi.Mux
	port         int
	store        store.Store
	llm          provider.Client
	orchestrator *docgen.Orchestrator
	chat         *ChatService
	logger       *slog.Logger

	active *cancelRegistry
}

func NewServer(port int, st store.Store, llm provider.Client, orch *docgen.Orchestrator, chatSvc *ChatService, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:       router,
		port:         port,
		store:        st,
		llm:          llm,
		orchestrator: orch,
		chat:         chatSvc,
		logger:       logger,
		active:       newCancelRegistry(),
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/messages", s.getMessages)
			r.Post("/chat", s.postChat)
			r.Get("/documents", s.getDocuments)
			r.Get("/readiness", s.getReadiness)
			r.Get("/confidence", s.getConfidence)
			r.Post("/generate", s.generate)
			r.Post("/cancel", s.cancel)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	health, err := s.llm.Probe(r.Context())
	if err != nil {
		s.logger.Warn("provider probe failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"provider":    health,
		"database_ok": s.store.Ping(r.Context()) == nil,
	})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		req.Name = "Untitled Project"
	}
	session, err := s.store.CreateSession(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.store.GetMessages(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) postChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	ctx, release, err := s.active.acquire(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	defer release()

	reply, err := s.chat.Send(ctx, sessionID, req.Content)
	if apperr.IsKind(err, apperr.Cancelled) {
		// Cancellation is a distinct outcome, not a failure.
		writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) getDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.GetDocuments(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) getReadiness(w http.ResponseWriter, r *http.Request) {
	messages, err := s.store.GetMessages(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docgen.AnalyzeReadiness(messages))
}

func (s *Server) getConfidence(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	docs, err := s.store.GetDocuments(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	messages, err := s.store.GetMessages(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	readiness := docgen.AnalyzeReadiness(messages)
	writeJSON(w, http.StatusOK, docgen.AnalyzeConfidence(docs, &readiness))
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	ctx, release, err := s.active.acquire(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	defer release()

	docs, err := s.orchestrator.Run(ctx, sessionID)
	if apperr.IsKind(err, apperr.Cancelled) {
		writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(docs), "documents": docs})
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if s.active.cancel(sessionID) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active call for session"})
}

var kindStatus = map[apperr.Kind]int{
	apperr.ConnectionFailure: http.StatusBadGateway,
	apperr.ModelUnavailable:  http.StatusConflict,
	apperr.RequestFailed:     http.StatusBadGateway,
	apperr.StreamInterrupted: http.StatusBadGateway,
	apperr.EmptyConversation: http.StatusUnprocessableEntity,
	apperr.ValidationFailed:  http.StatusUnprocessableEntity,
	apperr.Unsupported:       http.StatusBadRequest,
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	status := http.StatusInternalServerError
	body := map[string]string{"error": err.Error()}
	if kind := apperr.KindOf(err); kind != "" {
		if st, ok := kindStatus[kind]; ok {
			status = st
		}
		body["code"] = string(kind)
		if action := apperr.ActionOf(err); action != "" {
			body["action"] = action
		}
	}
	s.logger.Error("request failed", "status", status, "error", err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// cancelRegistry enforces one in-flight call per session and lets a cancel
// request from another goroutine trip it.
type cancelRegistry struct {
	mu    sync.Mutex
	calls map[string]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{calls: make(map[string]context.CancelFunc)}
}

func (c *cancelRegistry) acquire(parent context.Context, sessionID string) (context.Context, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.calls[sessionID]; busy {
		return nil, nil, fmt.Errorf("a call is already running for this session")
	}
	ctx, cancel := context.WithCancel(parent)
	c.calls[sessionID] = cancel

	release := func() {
		c.mu.Lock()
		delete(c.calls, sessionID)
		c.mu.Unlock()
		cancel()
	}
	return ctx, release, nil
}

func (c *cancelRegistry) cancel(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.calls[sessionID]; ok {
		cancel()
		return true
	}
	return false
}
