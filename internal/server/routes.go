package server

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gitmarkprojects/claude-work-agent/internal/archive"
	"github.com/gitmarkprojects/claude-work-agent/internal/llm"
	"github.com/gitmarkprojects/claude-work-agent/internal/prompt"
	"github.com/gitmarkprojects/claude-work-agent/internal/session"
	"github.com/gitmarkprojects/claude-work-agent/internal/task"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	system, err := s.buildSystemPrompt()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Send the candidate turn without committing it: a failed completion
	// must not leave a user turn with no reply in the history.
	msgs := s.history.Messages()
	msgs = append(msgs, llm.Message{Role: "user", Content: req.Message})

	resp, err := s.llm.Chat(r.Context(), system, msgs)
	if err != nil {
		writeError(w, http.StatusBadGateway, "llm: "+err.Error())
		return
	}

	s.history.AddUser(req.Message)
	s.history.AddAssistant(resp.Content)

	if cut := s.history.Rotate(s.cfg.Chat.MaxTurns, s.cfg.Chat.KeepTurns); len(cut) > 0 {
		s.archiveTurns(r, cut)
		// The cut prefix left the live history; shift the watermark with it.
		s.archivedPrefix -= len(cut)
		if s.archivedPrefix < 0 {
			s.archivedPrefix = 0
		}
	}
	s.persistHistory()

	writeJSON(w, http.StatusOK, map[string]any{
		"reply": resp.Content,
		"turns": s.history.Len(),
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	turns := s.history.Turns()
	s.mu.Unlock()

	type turnJSON struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	out := make([]turnJSON, len(turns))
	for i, t := range turns {
		out[i] = turnJSON{t.Role, t.Content}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"turns": out,
		"count": len(out),
	})
}

// handleClearHistory archives and processes whatever remains in the live
// conversation, then starts over with an empty history and a fresh chat.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.history.Turns()
	if len(remaining) > 0 {
		s.archiveTurns(r, remaining)
	}
	if s.chatID != "" {
		if err := s.archive.ArchiveChat(s.chatID); err != nil {
			log.Printf("server: archive chat %s: %v", s.chatID, err)
		}
	}

	s.history.Reset()
	s.chatID = ""
	s.archivedPrefix = 0
	s.persistHistory()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "cleared",
		"processed": len(remaining),
	})
}

func (s *Server) handleSaveChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chatID, err := s.currentChatID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.archive.RenameChat(chatID, req.Title); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Snapshot the turns still held in memory so the saved chat is
	// complete. Only turns past the watermark are written, so repeated
	// saves of the same conversation stay idempotent.
	turns := s.history.Turns()
	if fresh := turns[min(s.archivedPrefix, len(turns)):]; len(fresh) > 0 {
		if err := s.archive.AppendTurns(chatID, toArchiveTurns(chatID, fresh)); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.archivedPrefix = len(turns)

	writeJSON(w, http.StatusOK, map[string]string{
		"chat_id": chatID,
		"title":   req.Title,
	})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.archive.ListRecentChats(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type chatJSON struct {
		ChatID    string `json:"chat_id"`
		Title     string `json:"title"`
		Status    string `json:"status"`
		TurnCount int    `json:"turn_count"`
		StartedAt int64  `json:"started_at"`
	}
	out := make([]chatJSON, len(chats))
	for i, c := range chats {
		out[i] = chatJSON{c.ChatID, c.Title, c.Status, c.TurnCount, c.StartedAt}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chats": out,
		"count": len(out),
	})
}

// handleLoadChat replaces the live history with an archived chat's turns.
func (s *Server) handleLoadChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	chat, err := s.archive.GetChat(chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if chat == nil {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}

	turns, err := s.archive.GetTurns(chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	if s.chatID != "" && s.chatID != chatID {
		if err := s.archive.ArchiveChat(s.chatID); err != nil {
			log.Printf("server: archive chat %s: %v", s.chatID, err)
		}
	}
	s.history.Reset()
	for _, t := range turns {
		switch t.Role {
		case "user":
			s.history.AddUser(t.Content)
		case "assistant":
			s.history.AddAssistant(t.Content)
		}
	}
	s.chatID = chatID
	// Everything just loaded came out of the archive; nothing is fresh.
	s.archivedPrefix = s.history.Len()
	s.persistHistory()
	count := s.history.Len()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"chat_id": chatID,
		"title":   chat.Title,
		"turns":   count,
	})
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"briefing": s.engine.MorningBriefing(),
	})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Store
	writeJSON(w, http.StatusOK, map[string]any{
		"active":   nonNilTasks(st.Active),
		"archived": nonNilTasks(st.Archived),
	})
}

// buildSystemPrompt renders the persona template against the current plan,
// status report, and long-term memory. Rebuilt per request so edits to the
// underlying files take effect immediately. {plan} comes from the
// hand-written plan file when one is configured, otherwise from the task
// briefing. Callers must hold s.mu.
func (s *Server) buildSystemPrompt() (string, error) {
	plan := s.engine.MorningBriefing()
	if s.cfg.Chat.PlanPath != "" {
		if data, err := os.ReadFile(s.cfg.Chat.PlanPath); err == nil {
			plan = string(data)
		} else {
			log.Printf("server: read plan file: %v (using briefing)", err)
		}
	}
	return prompt.Build(s.cfg.Chat.SystemPromptPath, prompt.Values{
		Date:         task.Today(),
		Plan:         plan,
		StatusReport: s.reporter.Report(),
		Memory:       s.reporter.LongTerm(),
	})
}

// archiveTurns stores rotated or cleared turns in the chat archive, feeds
// them to task extraction, and folds them into the status report. Failures
// are logged, never surfaced to the chat caller. Callers must hold s.mu.
func (s *Server) archiveTurns(r *http.Request, turns []session.Turn) {
	chatID, err := s.currentChatID()
	if err != nil {
		log.Printf("server: init chat: %v", err)
	} else if fresh := turns[min(s.archivedPrefix, len(turns)):]; len(fresh) > 0 {
		// A prior save may already hold the leading turns.
		if err := s.archive.AppendTurns(chatID, toArchiveTurns(chatID, fresh)); err != nil {
			log.Printf("server: archive turns: %v", err)
		}
	}

	lines := make([]string, 0, len(turns))
	var text strings.Builder
	for _, t := range turns {
		lines = append(lines, t.Content)
		text.WriteString(t.Role)
		text.WriteString(": ")
		text.WriteString(t.Content)
		text.WriteString("\n")
	}

	if err := s.engine.ProcessConversation(r.Context(), lines); err != nil {
		log.Printf("server: task extraction: %v", err)
	}

	summary, err := s.reporter.SummarizeConversation(r.Context(), text.String())
	if err != nil {
		log.Printf("server: summarize conversation: %v", err)
	} else if err := s.archive.AddSummary(chatID, "conversation", summary); err != nil {
		log.Printf("server: store summary: %v", err)
	}
}

// persistHistory saves the live conversation when a path is configured.
// Callers must hold s.mu.
func (s *Server) persistHistory() {
	if s.HistoryPath == "" {
		return
	}
	if err := s.history.Save(s.HistoryPath); err != nil {
		log.Printf("server: save history: %v", err)
	}
}

func toArchiveTurns(chatID string, turns []session.Turn) []archive.Turn {
	out := make([]archive.Turn, len(turns))
	for i, t := range turns {
		out[i] = archive.Turn{ChatID: chatID, Role: t.Role, Content: t.Content}
	}
	return out
}

func nonNilTasks(ts []*task.Task) []*task.Task {
	if ts == nil {
		return []*task.Task{}
	}
	return ts
}
