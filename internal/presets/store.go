// Package presets persists named rendering presets and keeps the library in
// sync with edits made to the store file outside the testbed.
package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"GopherTestbed/internal/settings"
)

// Store is an opaque preset persistence backend.
type Store interface {
	Load() ([]settings.Preset, error)
	Save(presets []settings.Preset) error
}

// MemoryStore keeps presets in process. It backs tests and sessions started
// without a preset file.
type MemoryStore struct {
	mu      sync.Mutex
	presets []settings.Preset
}

func NewMemoryStore(initial ...settings.Preset) *MemoryStore {
	return &MemoryStore{presets: append([]settings.Preset(nil), initial...)}
}

func (s *MemoryStore) Load() ([]settings.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]settings.Preset(nil), s.presets...), nil
}

func (s *MemoryStore) Save(presets []settings.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets = append([]settings.Preset(nil), presets...)
	return nil
}

// FileStore keeps presets as a JSON array in one file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Load returns the stored presets. A missing file is an empty library.
func (s *FileStore) Load() ([]settings.Preset, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var presets []settings.Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("decode presets %s: %w", s.path, err)
	}
	return presets, nil
}

// Save replaces the file through a rename so readers never see a partial write.
func (s *FileStore) Save(presets []settings.Preset) error {
	if presets == nil {
		presets = []settings.Preset{}
	}
	data, err := json.MarshalIndent(presets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preset dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".presets-*.json")
	if err != nil {
		return fmt.Errorf("write presets: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write presets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write presets: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace presets: %w", err)
	}
	return nil
}
