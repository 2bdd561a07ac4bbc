// Package engine derives the task list from conversation content: it builds
// the extraction prompt, parses the command lines the model returns, applies
// them to the store, runs the decay sweep, and persists the result.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gitmarkprojects/claude-work-agent/internal/llm"
	"github.com/gitmarkprojects/claude-work-agent/internal/store"
	"github.com/gitmarkprojects/claude-work-agent/internal/task"
)

// Engine orchestrates task extraction, decay, and persistence.
type Engine struct {
	Store     *store.Store
	LLM       llm.Client
	Threshold float64 // decay factor above which tasks are archived
}

// New creates an Engine. The LLM client is an explicit dependency — there is
// no ambient shared client.
func New(st *store.Store, client llm.Client, threshold float64) *Engine {
	if threshold == 0 {
		threshold = 1.0
	}
	return &Engine{
		Store:     st,
		LLM:       client,
		Threshold: threshold,
	}
}

// ProcessConversation analyzes conversation lines and updates the task set.
// Exactly one LLM request and one save per call. An LLM failure aborts with
// no mutation; malformed command lines are skipped and never abort the save.
func (e *Engine) ProcessConversation(ctx context.Context, lines []string) error {
	return e.processConversation(ctx, lines, task.Today())
}

// processConversation is the date-injected form used by tests.
func (e *Engine) processConversation(ctx context.Context, lines []string, today time.Time) error {
	prompt := llm.TaskCommandPrompt(e.TaskDigest(), lines, today)

	resp, err := e.LLM.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("task extraction: %w", err)
	}

	applied, skipped := e.applyCommands(strings.Split(resp.Content, "\n"), today)
	if skipped > 0 {
		log.Printf("tasks: applied %d commands, skipped %d malformed lines", applied, skipped)
	}

	if n := e.sweep(today); n > 0 {
		log.Printf("tasks: decay archived %d tasks", n)
	}

	if err := e.Store.Save(); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// TaskDigest renders the active set in the prompt's task-digest form:
// [id] description (Ppriority) - note @next_date
func (e *Engine) TaskDigest() []string {
	var digest []string
	for _, t := range e.Store.Active {
		var b strings.Builder
		fmt.Fprintf(&b, "[%s] %s (P%d)", t.ID, t.Description, t.Priority)
		if t.Note != "" {
			fmt.Fprintf(&b, " - %s", t.Note)
		}
		fmt.Fprintf(&b, " @%s", task.FormatDate(t.NextDate))
		digest = append(digest, b.String())
	}
	return digest
}

// MorningBriefing formats one paragraph per active task. Read-only.
func (e *Engine) MorningBriefing() string {
	if len(e.Store.Active) == 0 {
		return "No active tasks for today."
	}

	paragraphs := make([]string, 0, len(e.Store.Active))
	for _, t := range e.Store.Active {
		note := t.Note
		if note == "" {
			note = "No additional context"
		}
		paragraphs = append(paragraphs, fmt.Sprintf(
			"[P%d] %s @%s #%s\n> last: %s\n> next: %s\n> %s\n",
			t.Priority, t.Description, task.FormatDate(t.Created), t.Status,
			task.FormatDate(t.LastInteraction), task.FormatDate(t.NextDate), note,
		))
	}
	return strings.Join(paragraphs, "\n")
}
