package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gitmarkprojects/claude-work-agent/internal/task"
)

// Command actions accepted from the model. Anything else is ignored.
const (
	actionNew      = "NEW"
	actionPriority = "PRIORITY"
	actionDate     = "DATE"
	actionNote     = "NOTE"
	actionBoost    = "BOOST"
	actionDone     = "DONE"
)

// applyCommands runs a command batch in input order. Each line is parsed and
// applied independently; a line that fails to parse is dropped whole with no
// partial effect — model output is unreliable by contract and must never
// crash the batch. Later lines may reference tasks created earlier in the
// same batch. Returns counts of applied and skipped lines.
func (e *Engine) applyCommands(lines []string, today time.Time) (applied, skipped int) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := e.applyLine(line, today); err != nil {
			skipped++
			continue
		}
		applied++
	}
	return applied, skipped
}

// errIgnored marks lines that are not commands at all (prose, unknown
// actions, unknown ids). They are skipped without counting as applied.
var errIgnored = fmt.Errorf("ignored line")

func (e *Engine) applyLine(line string, today time.Time) error {
	parts := strings.Split(line, "|")
	action := strings.ToUpper(strings.TrimSpace(parts[0]))

	switch action {
	case actionNew:
		return e.applyNew(parts, today)
	case actionPriority, actionDate, actionNote, actionBoost, actionDone:
		return e.applyUpdate(action, parts, today)
	default:
		return errIgnored
	}
}

// applyNew handles NEW|priority|description|note|next_date. All fields must
// parse before any mutation happens.
func (e *Engine) applyNew(parts []string, today time.Time) error {
	if len(parts) < 5 {
		return fmt.Errorf("NEW: want 5 fields, got %d", len(parts))
	}

	priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return fmt.Errorf("NEW: priority: %w", err)
	}

	description := sanitizeText(parts[2])
	if description == "" {
		return fmt.Errorf("NEW: empty description")
	}

	note := ""
	if strings.TrimSpace(parts[3]) != "none" {
		note = sanitizeText(parts[3])
	}

	var nextDate time.Time // zero means default (today+7)
	if strings.TrimSpace(parts[4]) != "none" {
		nextDate, err = task.ParseDate(parts[4])
		if err != nil {
			return fmt.Errorf("NEW: next_date: %w", err)
		}
	}

	e.Store.Add(task.New(description, priority, note, nextDate, today))

	// Overflow check runs once per NEW.
	e.Store.EnforceCap()
	return nil
}

// applyUpdate handles the id-addressed commands. Lookup spans the active and
// archived sets; an unknown id is a no-op, not an error worth surfacing.
func (e *Engine) applyUpdate(action string, parts []string, today time.Time) error {
	if len(parts) < 2 {
		return fmt.Errorf("%s: missing id", action)
	}
	id := strings.TrimSpace(parts[1])

	t := e.Store.Find(id)
	if t == nil {
		return errIgnored
	}

	value := ""
	if len(parts) >= 3 {
		value = parts[2]
	}

	switch action {
	case actionPriority:
		p, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("PRIORITY: %w", err)
		}
		t.SetPriority(p)
		t.Touch(today)

	case actionDate:
		d, err := task.ParseDate(value)
		if err != nil {
			return fmt.Errorf("DATE: %w", err)
		}
		t.NextDate = d
		t.Touch(today)

	case actionNote:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("NOTE: empty value")
		}
		t.Note = sanitizeText(value)
		t.Touch(today)

	case actionBoost:
		t.Touch(today)

	case actionDone:
		// Moves only out of the active set; a DONE on an already-archived
		// task just records completion.
		t.Status = task.StatusCompleted
		e.Store.MoveToArchived(t, task.StatusCompleted)
	}
	return nil
}

// sanitizeText trims a free-text field and replaces stray pipe characters,
// which would corrupt the line protocol on the way back out.
func sanitizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "|", " "))
}
