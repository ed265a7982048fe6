// Package settings persists the user-facing preferences kept apart from the
// cache, such as whether the cache is used at all.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is the content of settings.yaml.
type Settings struct {
	CacheEnabled bool `yaml:"cacheEnabled" json:"cacheEnabled"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Settings {
	return Settings{CacheEnabled: true}
}

// Store reads and writes settings.yaml. Reads are served from memory once
// loaded; every write goes to disk before it becomes visible.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Settings
}

// Open loads path, falling back to Defaults when the file does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, current: Defaults()}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	current := Defaults()
	if err := yaml.Unmarshal(data, &current); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	s.current = current
	return s, nil
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) CacheEnabled() bool {
	return s.Get().CacheEnabled
}

// SetCacheEnabled persists the cache toggle.
func (s *Store) SetCacheEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current
	next.CacheEnabled = enabled
	if err := s.write(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

func (s *Store) write(v Settings) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
