// Package store owns the canonical active/archived task collections and
// their whole-file JSON persistence.
//
// Persistence policy: Load reads and replaces the entire in-memory state;
// Save rewrites the entire document. A missing file is an empty store, not
// an error. A present-but-unreadable document (invalid JSON or a malformed
// task record) fails the Load call — records are never silently defaulted.
// The store is not safe for concurrent use; callers serialize access.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/gitmarkprojects/claude-work-agent/internal/task"
)

// MaxActive is the cap on the active set. Exceeding it after a NEW command
// archives one task chosen by eviction order.
const MaxActive = 50

// Store holds the active and archived task sets for one manager instance.
type Store struct {
	Path     string
	Active   []*task.Task
	Archived []*task.Task
}

type document struct {
	ActiveTasks   []*task.Task `json:"active_tasks"`
	ArchivedTasks []*task.Task `json:"archived_tasks"`
}

// New creates a store backed by the given file path.
func New(path string) *Store {
	return &Store{Path: path}
}

// DefaultPath returns the default task file path: ~/.workagent/memory.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".workagent", "memory.json"), nil
}

// Load replaces in-memory state from the backing file. An absent file
// yields an empty store. Any malformed record aborts the whole load.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		s.Active = nil
		s.Archived = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("read task file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse task file %s: %w", s.Path, err)
	}

	s.Active = doc.ActiveTasks
	s.Archived = doc.ArchivedTasks
	return nil
}

// Save rewrites the whole backing file from in-memory state.
func (s *Store) Save() error {
	doc := document{
		ActiveTasks:   s.Active,
		ArchivedTasks: s.Archived,
	}
	// Keep the lists non-null in the document for easier external consumers.
	if doc.ActiveTasks == nil {
		doc.ActiveTasks = []*task.Task{}
	}
	if doc.ArchivedTasks == nil {
		doc.ArchivedTasks = []*task.Task{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task file: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create task dir: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	return nil
}

// Find returns the task with the given id, searching active then archived.
// Returns nil when not found.
func (s *Store) Find(id string) *task.Task {
	for _, t := range s.Active {
		if t.ID == id {
			return t
		}
	}
	for _, t := range s.Archived {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Add appends a task to the active set.
func (s *Store) Add(t *task.Task) {
	s.Active = append(s.Active, t)
}

// MoveToArchived removes a task from the active set and appends it to the
// archived set with the given status. No-op if the task is not active.
func (s *Store) MoveToArchived(t *task.Task, status string) {
	for i, a := range s.Active {
		if a == t {
			s.Active = append(s.Active[:i], s.Active[i+1:]...)
			t.Status = status
			s.Archived = append(s.Archived, t)
			return
		}
	}
}

// EvictionCandidate returns the active task that should be archived first
// when the active set overflows: highest priority number (least urgent)
// first, ties broken by oldest last_interaction. Returns nil when the
// active set is empty. The ordering is deterministic.
func (s *Store) EvictionCandidate() *task.Task {
	if len(s.Active) == 0 {
		return nil
	}
	ordered := make([]*task.Task, len(s.Active))
	copy(ordered, s.Active)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].LastInteraction.Before(ordered[j].LastInteraction)
	})
	return ordered[0]
}

// EnforceCap archives eviction candidates until the active set fits within
// MaxActive. Returns the number of tasks archived.
func (s *Store) EnforceCap() int {
	archived := 0
	for len(s.Active) > MaxActive {
		victim := s.EvictionCandidate()
		if victim == nil {
			break
		}
		s.MoveToArchived(victim, task.StatusArchived)
		archived++
	}
	return archived
}
