package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status values for a task's lifecycle.
const (
	StatusActive    = "active"
	StatusArchived  = "archived"
	StatusCompleted = "completed"
)

// Priority bounds. 1 is the most urgent, 5 the least.
const (
	MinPriority = 1
	MaxPriority = 5
)

// DateLayout is the ISO-8601 calendar date format used on the wire.
const DateLayout = "2006-01-02"

// DefaultDueDays is how far out next_date defaults when not given.
const DefaultDueDays = 7

// MalformedRecordError reports a persisted task record that is missing a
// required field or carries an unparseable value. Loads treat this as fatal
// for the whole document — records are never silently defaulted, since that
// would fabricate ids or dates and create collisions.
type MalformedRecordError struct {
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed task record: field %q: %s", e.Field, e.Reason)
}

// Task is a single trackable item derived from conversation content.
// Dates are calendar dates held at midnight UTC.
type Task struct {
	ID              string
	Description     string
	Priority        int
	Note            string
	NextDate        time.Time
	Created         time.Time
	LastInteraction time.Time
	Status          string
}

// New creates an active task with defaults relative to today: a fresh uuid,
// created/last_interaction = today, next_date = today + 7 days.
func New(description string, priority int, note string, nextDate time.Time, today time.Time) *Task {
	if nextDate.IsZero() {
		nextDate = today.AddDate(0, 0, DefaultDueDays)
	}
	return &Task{
		ID:              uuid.NewString(),
		Description:     description,
		Priority:        ClampPriority(priority),
		Note:            note,
		NextDate:        nextDate,
		Created:         today,
		LastInteraction: today,
		Status:          StatusActive,
	}
}

// ClampPriority forces p into [1,5].
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// SetPriority clamps and stores a new priority.
func (t *Task) SetPriority(p int) {
	t.Priority = ClampPriority(p)
}

// Touch updates last_interaction to today.
func (t *Task) Touch(today time.Time) {
	t.LastInteraction = today
}

// record is the flat key-value serialization form, ISO date strings.
type record struct {
	ID              string `json:"id"`
	Description     string `json:"description"`
	Priority        int    `json:"priority"`
	Note            string `json:"note"`
	NextDate        string `json:"next_date"`
	Created         string `json:"created"`
	LastInteraction string `json:"last_interaction"`
	Status          string `json:"status"`
}

// MarshalJSON serializes the task with ISO-8601 date strings.
func (t *Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(record{
		ID:              t.ID,
		Description:     t.Description,
		Priority:        t.Priority,
		Note:            t.Note,
		NextDate:        FormatDate(t.NextDate),
		Created:         FormatDate(t.Created),
		LastInteraction: FormatDate(t.LastInteraction),
		Status:          t.Status,
	})
}

// UnmarshalJSON restores a task, rejecting records with missing required
// fields or unparseable dates via MalformedRecordError.
func (t *Task) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	if r.ID == "" {
		return &MalformedRecordError{Field: "id", Reason: "missing"}
	}
	if strings.TrimSpace(r.Description) == "" {
		return &MalformedRecordError{Field: "description", Reason: "missing"}
	}

	next, err := ParseDate(r.NextDate)
	if err != nil {
		return &MalformedRecordError{Field: "next_date", Reason: err.Error()}
	}
	created, err := ParseDate(r.Created)
	if err != nil {
		return &MalformedRecordError{Field: "created", Reason: err.Error()}
	}
	last, err := ParseDate(r.LastInteraction)
	if err != nil {
		return &MalformedRecordError{Field: "last_interaction", Reason: err.Error()}
	}

	status := r.Status
	if status == "" {
		status = StatusActive
	}

	t.ID = r.ID
	t.Description = r.Description
	t.Priority = ClampPriority(r.Priority)
	t.Note = r.Note
	t.NextDate = next
	t.Created = created
	t.LastInteraction = last
	t.Status = status
	return nil
}

// ParseDate parses an ISO-8601 calendar date string.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate renders a date as an ISO-8601 string.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// Today returns the current calendar date at midnight UTC.
func Today() time.Time {
	return Midnight(time.Now().UTC())
}

// Midnight truncates a timestamp to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b (positive when b is later).
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)).Hours() / 24)
}
