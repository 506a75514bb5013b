package presets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/settings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrNotWatchable is returned by Watch for stores without a backing file.
var ErrNotWatchable = errors.New("preset store has no file to watch")

// Library is the in-memory preset list, written through to its store.
// Store failures are logged and never lose the in-memory edit.
type Library struct {
	mu      sync.RWMutex
	store   Store
	presets []settings.Preset
}

// NewLibrary loads the store. An unreadable store starts an empty library.
func NewLibrary(store Store) *Library {
	l := &Library{store: store}
	presets, err := store.Load()
	if err != nil {
		logger.Log.Warn("Presets unavailable", zap.Error(err))
	}
	l.presets = presets
	return l
}

// List returns a copy of the presets in save order.
func (l *Library) List() []settings.Preset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.presets)
}

// Get returns the preset with name.
func (l *Library) Get(name string) (settings.Preset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := slices.IndexFunc(l.presets, func(p settings.Preset) bool { return p.Name == name })
	if i < 0 {
		return settings.Preset{}, false
	}
	return l.presets[i], true
}

// SeedIfEmpty stores presets when the library has none.
func (l *Library) SeedIfEmpty(presets []settings.Preset) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.presets) > 0 {
		return false
	}
	l.presets = slices.Clone(presets)
	l.persist()
	return true
}

// Save adds p, replacing any preset with the same name. The saved preset
// moves to the end of the list.
func (l *Library) Save(p settings.Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset name is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.presets = slices.DeleteFunc(l.presets, func(e settings.Preset) bool { return e.Name == p.Name })
	l.presets = append(l.presets, p)
	l.persist()
	return nil
}

// Delete removes the preset with name and reports whether it existed.
func (l *Library) Delete(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.presets)
	l.presets = slices.DeleteFunc(l.presets, func(e settings.Preset) bool { return e.Name == name })
	if len(l.presets) == n {
		return false
	}
	l.persist()
	return true
}

// Reload rereads the store and reports whether the list changed.
func (l *Library) Reload() (bool, error) {
	presets, err := l.store.Load()
	if err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if slices.Equal(presets, l.presets) {
		return false, nil
	}
	l.presets = presets
	return true, nil
}

func (l *Library) persist() {
	if err := l.store.Save(l.presets); err != nil {
		logger.Log.Warn("Failed to persist presets", zap.Error(err))
	}
}

// Watch reloads the library whenever the store file changes on disk and
// calls onChange with the new list. It stops when ctx is done.
func (l *Library) Watch(ctx context.Context, onChange func([]settings.Preset)) error {
	fileStore, ok := l.store.(*FileStore)
	if !ok {
		return ErrNotWatchable
	}
	target := filepath.Clean(fileStore.Path())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch presets: %w", err)
	}
	// Watch the directory: Save replaces the file by rename.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch presets: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				changed, err := l.Reload()
				if err != nil {
					logger.Log.Warn("Preset reload failed", zap.String("path", target), zap.Error(err))
					continue
				}
				if changed && onChange != nil {
					onChange(l.List())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Log.Warn("Preset watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
