// Package state persists the application state document to disk.
//
// The document itself is opaque JSON owned by the caller; this package only
// guarantees atomic, cross-process-safe reads and writes. Concurrent engine
// instances (or a crashed writer) must never leave a half-written file
// behind, so writes go through a temp file + rename and both directions
// take a file lock.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/zhubert/parallel-core/logger"
	"github.com/zhubert/parallel-core/paths"
)

// Store reads and writes one JSON document at a fixed path.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore creates a Store at the default state file path.
func NewStore() (*Store, error) {
	path, err := paths.StateFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state path: %w", err)
	}
	return NewStoreAt(path), nil
}

// NewStoreAt creates a Store at a custom path. This is primarily used for
// testing.
func NewStoreAt(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the location of the state document.
func (s *Store) Path() string {
	return s.path
}

// Save validates that data is JSON and writes it atomically.
func (s *Store) Save(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("state document is not valid JSON")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock state file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	logger.WithComponent("state").Debug("state saved", "path", s.path, "bytes", len(data))
	return nil
}

// Load reads the state document. The second return value reports whether a
// document exists; a missing file is not an error.
func (s *Store) Load() ([]byte, bool, error) {
	if err := s.lock.RLock(); err != nil {
		return nil, false, fmt.Errorf("failed to lock state file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, true, nil
}

// SaveJSON marshals v and saves it.
func (s *Store) SaveJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return s.Save(data)
}

// LoadJSON loads the document into v. Returns false with no error if no
// document exists.
func (s *Store) LoadJSON(v any) (bool, error) {
	data, ok, err := s.Load()
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to parse state file: %w", err)
	}
	return true, nil
}
