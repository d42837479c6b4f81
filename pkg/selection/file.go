package selection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// FileStore persists the selection as a JSON file for CLI usage.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a file-based selection store.
// If path is empty, defaults to ~/.config/codeatlas/selection.json
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "codeatlas", "selection.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Get returns the persisted selection. A missing or unreadable file
// yields the empty selection.
func (s *FileStore) Get(ctx context.Context) (Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Selection{}, nil
		}
		return Selection{}, fmt.Errorf("read selection file: %w", err)
	}

	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		// Corrupt state file - start over
		_ = os.Remove(s.path)
		return Selection{}, nil
	}
	return sel, nil
}

// Set writes the selection to disk.
func (s *FileStore) Set(ctx context.Context, sel Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write selection file: %w", err)
	}
	return nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

// Path returns the selection file path.
func (s *FileStore) Path() string {
	return s.path
}

var _ Store = (*FileStore)(nil)
