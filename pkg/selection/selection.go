// Package selection tracks what the user is currently looking at: a
// project, optionally one of its files, and optionally one of its
// workflows. Selection state lives outside the layout engines; they only
// ever receive the data the selection resolves to.
//
// Transitions replace rather than accumulate: selecting a project clears
// any file and workflow selection, selecting a file clears the workflow,
// and vice versa. This keeps the state a plain value with no hidden
// cross-field invariants.
//
// Two stores are provided:
//   - MemoryStore: server-side, per-process state
//   - FileStore: CLI persistence under ~/.config/codeatlas/
package selection

import (
	"context"
	"sync"
	"time"
)

// Selection is the current browse state. The zero value means nothing
// is selected.
type Selection struct {
	ProjectName  string    `json:"project_name,omitempty"`
	FileID       string    `json:"file_id,omitempty"`
	WorkflowName string    `json:"workflow_name,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.ProjectName == ""
}

// SelectProject returns a selection with only the project set.
// Any previous file or workflow selection is cleared.
func (s Selection) SelectProject(name string) Selection {
	return Selection{
		ProjectName: name,
		UpdatedAt:   time.Now().UTC(),
	}
}

// SelectFile returns a selection with the file set within the current
// project. A previous workflow selection is cleared.
func (s Selection) SelectFile(fileID string) Selection {
	return Selection{
		ProjectName: s.ProjectName,
		FileID:      fileID,
		UpdatedAt:   time.Now().UTC(),
	}
}

// SelectWorkflow returns a selection with the workflow set within the
// current project. A previous file selection is cleared.
func (s Selection) SelectWorkflow(name string) Selection {
	return Selection{
		ProjectName:  s.ProjectName,
		WorkflowName: name,
		UpdatedAt:    time.Now().UTC(),
	}
}

// Clear returns the empty selection.
func (s Selection) Clear() Selection {
	return Selection{UpdatedAt: time.Now().UTC()}
}

// Store persists the current selection.
type Store interface {
	// Get returns the current selection. An empty selection (not an
	// error) is returned when nothing has been selected yet.
	Get(ctx context.Context) (Selection, error)

	// Set replaces the current selection.
	Set(ctx context.Context, sel Selection) error

	Close() error
}

// MemoryStore keeps the selection in memory.
type MemoryStore struct {
	mu  sync.RWMutex
	sel Selection
}

// NewMemoryStore creates an empty in-memory selection store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the current selection.
func (s *MemoryStore) Get(ctx context.Context) (Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel, nil
}

// Set replaces the current selection.
func (s *MemoryStore) Set(ctx context.Context, sel Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = sel
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
