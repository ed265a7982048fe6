// Package federation knows the configured backends and hands out one remote
// client per backend.
package federation

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownBackend  = errors.New("unknown backend")
	ErrBackendDisabled = errors.New("backend is disabled")
)

var backendIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Backend is one federation member as configured by the user.
type Backend struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	BaseURL   string `yaml:"baseUrl" json:"baseUrl"`
	AuthToken string `yaml:"authToken,omitempty" json:"-"`
	Enabled   bool   `yaml:"enabled" json:"enabled"`
}

// Validate checks the id and base URL.
func (b Backend) Validate() error {
	if !backendIDPattern.MatchString(b.ID) {
		return fmt.Errorf("invalid backend id %q", b.ID)
	}
	u, err := url.Parse(b.BaseURL)
	if err != nil {
		return fmt.Errorf("backend %s: invalid base url: %w", b.ID, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend %s: base url must be http or https, got %q", b.ID, b.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("backend %s: base url has no host", b.ID)
	}
	return nil
}

type registryFile struct {
	Backends []Backend `yaml:"backends"`
}

// Registry holds the configured backends, persisted as YAML.
type Registry struct {
	mu       sync.RWMutex
	path     string
	backends []Backend
}

// LoadRegistry reads the registry at path. A missing file yields an empty
// registry that will be created on the first Save.
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backend registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse backend registry: %w", err)
	}
	seen := make(map[string]bool, len(file.Backends))
	for _, b := range file.Backends {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("duplicate backend id %q", b.ID)
		}
		seen[b.ID] = true
	}
	r.backends = file.Backends
	return r, nil
}

// Path returns the file the registry is saved to.
func (r *Registry) Path() string { return r.path }

// List returns a copy of the configured backends in file order.
func (r *Registry) List() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.backends)
}

// IDs returns the ids of every configured backend, enabled or not.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.backends))
	for i, b := range r.backends {
		ids[i] = b.ID
	}
	return ids
}

// Get returns the backend with id.
func (r *Registry) Get(id string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.backends {
		if b.ID == id {
			return b, nil
		}
	}
	return Backend{}, fmt.Errorf("%w: %s", ErrUnknownBackend, id)
}

// Upsert adds b or replaces the backend with the same id. It reports
// whether the backend already existed.
func (r *Registry) Upsert(b Backend) (bool, error) {
	if err := b.Validate(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.backends {
		if r.backends[i].ID == b.ID {
			r.backends[i] = b
			return true, nil
		}
	}
	r.backends = append(r.backends, b)
	return false, nil
}

// Remove deletes the backend with id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.backends, func(b Backend) bool { return b.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownBackend, id)
	}
	r.backends = slices.Delete(r.backends, i, i+1)
	return nil
}

// Save writes the registry to its path, replacing the file atomically.
func (r *Registry) Save() error {
	r.mu.RLock()
	data, err := yaml.Marshal(registryFile{Backends: r.backends})
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal backend registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write backend registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace backend registry: %w", err)
	}
	return nil
}
