// Package session holds the in-flight conversation for one chat. The
// history is an explicit object owned by its caller — nothing here is
// process-global.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gitmarkprojects/claude-work-agent/internal/llm"
)

// Turn is one conversation turn.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// History is an ordered sequence of conversation turns.
type History struct {
	turns []Turn
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// AddUser appends a user turn.
func (h *History) AddUser(content string) {
	h.turns = append(h.turns, Turn{Role: "user", Content: content})
}

// AddAssistant appends an assistant turn.
func (h *History) AddAssistant(content string) {
	h.turns = append(h.turns, Turn{Role: "assistant", Content: content})
}

// Len returns the number of turns.
func (h *History) Len() int {
	return len(h.turns)
}

// Turns returns a copy of all turns, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Messages converts the history into LLM chat messages.
func (h *History) Messages() []llm.Message {
	msgs := make([]llm.Message, len(h.turns))
	for i, t := range h.turns {
		msgs[i] = llm.Message{Role: t.Role, Content: t.Content}
	}
	return msgs
}

// Text renders the whole history as plain text, one turn per line.
func (h *History) Text() string {
	var b strings.Builder
	for _, t := range h.turns {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// ContentLines returns just the turn contents, for callers that analyze the
// conversation without caring about roles.
func (h *History) ContentLines() []string {
	out := make([]string, len(h.turns))
	for i, t := range h.turns {
		out[i] = t.Content
	}
	return out
}

// Rotate trims the history when it grows past maxTurns, keeping the most
// recent keepTurns and returning the cut prefix for archival. Returns nil
// when no rotation is needed.
func (h *History) Rotate(maxTurns, keepTurns int) []Turn {
	if maxTurns <= 0 || keepTurns < 0 || len(h.turns) <= maxTurns {
		return nil
	}

	cut := len(h.turns) - keepTurns
	archived := make([]Turn, cut)
	copy(archived, h.turns[:cut])
	h.turns = append([]Turn(nil), h.turns[cut:]...)
	return archived
}

// Reset clears all turns.
func (h *History) Reset() {
	h.turns = nil
}

// wireTurn is the persisted JSON turn shape: role plus a list of typed
// content blocks. Content may also be a bare string in older documents.
type wireTurn struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Save writes the history as a JSON turn document.
func (h *History) Save(path string) error {
	doc := make([]map[string]any, len(h.turns))
	for i, t := range h.turns {
		doc[i] = map[string]any{
			"role": t.Role,
			"content": []contentBlock{
				{Type: "text", Text: t.Content},
			},
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Load reads a JSON turn document. A missing file yields an empty history.
// Turns with unrecognized content shapes are skipped rather than failing the
// load — chat documents come from multiple producers.
func Load(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewHistory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var wire []wireTurn
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}

	h := NewHistory()
	for _, w := range wire {
		if w.Role != "user" && w.Role != "assistant" {
			continue
		}
		text := extractText(w.Content)
		if text == "" {
			continue
		}
		h.turns = append(h.turns, Turn{Role: w.Role, Content: text})
	}
	return h, nil
}

// extractText handles the polymorphic content field: a plain string or an
// array of typed blocks.
func extractText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var texts []string
		for _, b := range blocks {
			if b.Type == "text" && b.Text != "" {
				texts = append(texts, b.Text)
			}
		}
		return strings.TrimSpace(strings.Join(texts, "\n"))
	}

	return ""
}
