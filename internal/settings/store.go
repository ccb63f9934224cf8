package settings

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/compactd/compactd/internal/watch"
)

// Store owns the settings file. It publishes a snapshot after every
// successful load or update, and never before the first one, so observers
// can rely on each emission being real user state.
type Store struct {
	path string

	mu      sync.Mutex
	current Settings
	raw     []byte
	loaded  bool

	value *watch.Value[Settings]
}

func NewStore(path string) *Store {
	return &Store{
		path:  path,
		value: watch.NewValue[Settings](),
	}
}

// Load reads the settings file. A missing file is seeded with defaults so the
// first run starts from a known document.
func (s *Store) Load() error {
	contents, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		defaults := NewDefault()
		if err := s.persist(&defaults); err != nil {
			return fmt.Errorf("failed to seed settings file: %w", err)
		}
		zap.S().Named("settings").Infof("seeded default settings at %s", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	return s.apply(contents)
}

// Current returns the last good snapshot.
func (s *Store) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Loaded reports whether a first load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Subscribe observes settings snapshots. Nothing is delivered until the first
// successful load.
func (s *Store) Subscribe() *watch.Subscription[Settings] {
	return s.value.Subscribe()
}

// Update copies the current document, applies mutate, validates and persists
// it, then publishes the new snapshot.
func (s *Store) Update(mutate func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return Settings{}, fmt.Errorf("settings not loaded yet")
	}

	next := s.current
	next.CustomFolders = append([]string{}, s.current.CustomFolders...)
	next.ExcludedPaths = append([]string{}, s.current.ExcludedPaths...)
	mutate(&next)

	if err := next.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	if err := s.persistLocked(&next); err != nil {
		return Settings{}, err
	}
	return next, nil
}

// Watch reloads the file whenever it is rewritten. Invalid content is logged
// and dropped; the last good snapshot stays in place. Watch blocks until ctx
// is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory, not the file: editors and atomic writers replace
	// the file, which would drop a file-level watch
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch settings dir: %w", err)
	}

	logger := zap.S().Named("settings")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				logger.Warnf("settings file changed but reload failed: %s", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("settings watcher error: %s", err)
		}
	}
}

// Reload re-reads the file and publishes when the content actually changed.
func (s *Store) Reload() error {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}
	return s.apply(contents)
}

func (s *Store) Close() {
	s.value.Close()
}

// apply parses, validates and publishes contents. Byte-identical content is
// skipped so editor double-writes do not produce duplicate emissions.
func (s *Store) apply(contents []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && bytes.Equal(contents, s.raw) {
		return nil
	}

	parsed := NewDefault()
	if err := yaml.Unmarshal(contents, &parsed); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := parsed.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	s.current = parsed
	s.raw = contents
	s.loaded = true
	s.value.Set(parsed)
	return nil
}

func (s *Store) persist(doc *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(doc)
}

// persistLocked writes the document with a tmp+rename so a crash mid-write
// never leaves a truncated settings file, then publishes it.
func (s *Store) persistLocked(doc *Settings) error {
	contents, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	s.current = *doc
	s.raw = contents
	s.loaded = true
	s.value.Set(*doc)
	return nil
}
