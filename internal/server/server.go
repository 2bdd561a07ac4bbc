// Package server exposes the assistant over HTTP: a chat endpoint backed by
// the LLM, conversation history management, the chat archive, and read-only
// task views.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gitmarkprojects/claude-work-agent/internal/archive"
	"github.com/gitmarkprojects/claude-work-agent/internal/config"
	"github.com/gitmarkprojects/claude-work-agent/internal/engine"
	"github.com/gitmarkprojects/claude-work-agent/internal/llm"
	"github.com/gitmarkprojects/claude-work-agent/internal/memory"
	"github.com/gitmarkprojects/claude-work-agent/internal/session"
)

// Server is the workagent HTTP API server.
type Server struct {
	cfg      config.Config
	engine   *engine.Engine
	llm      llm.Client
	archive  *archive.DB
	reporter *memory.Reporter

	router  chi.Router
	version string
	started time.Time

	// HistoryPath, when set, is where the live conversation is persisted
	// after every turn so a restart resumes mid-conversation.
	HistoryPath string

	mu      sync.Mutex
	history *session.History
	chatID  string
	// archivedPrefix counts the leading history turns already stored in the
	// archive under chatID. Saves and rotation both advance past it so a
	// turn is never written to the same chat twice.
	archivedPrefix int
}

// New creates a Server. The history may be freshly created or loaded from
// disk by the caller.
func New(cfg config.Config, eng *engine.Engine, client llm.Client, db *archive.DB, rep *memory.Reporter, hist *session.History, version string) *Server {
	if hist == nil {
		hist = session.NewHistory()
	}
	s := &Server{
		cfg:      cfg,
		engine:   eng,
		llm:      client,
		archive:  db,
		reporter: rep,
		version:  version,
		started:  time.Now(),
		history:  hist,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/chat", s.handleChat)
		r.Get("/history", s.handleGetHistory)
		r.Post("/history/clear", s.handleClearHistory)

		r.Post("/chats", s.handleSaveChat)
		r.Get("/chats", s.handleListChats)
		r.Post("/chats/{chatID}/load", s.handleLoadChat)

		r.Get("/briefing", s.handleBriefing)
		r.Get("/tasks", s.handleTasks)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.archive.Ping(); err != nil {
		dbOK = false
	}

	s.mu.Lock()
	turns := s.history.Len()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"tasks":   len(s.engine.Store.Active),
		"turns":   turns,
	})
}

// currentChatID returns the archive chat the live conversation belongs to,
// creating it on first use. Callers must hold s.mu.
func (s *Server) currentChatID() (string, error) {
	if s.chatID != "" {
		return s.chatID, nil
	}
	id := uuid.NewString()
	if _, err := s.archive.InitChat(id, ""); err != nil {
		return "", err
	}
	s.chatID = id
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
