package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store provides persistence for configuration data.
type Store interface {
	// Load loads the configuration from disk
	Load() error

	// Save saves the configuration to disk
	Save() error

	// GetSection retrieves configuration data for a specific section
	GetSection(sectionID string) (map[string]any, error)

	// SetSection stores configuration data for a specific section
	SetSection(sectionID string, data map[string]any) error
}

// FileStore implements Store using a YAML file.
type FileStore struct {
	path string
	data map[string]map[string]any
	mu   sync.RWMutex
}

// fileEnvelope is the on-disk document shape.
type fileEnvelope struct {
	Version  string                    `yaml:"version"`
	Sections map[string]map[string]any `yaml:"sections"`
}

const storeVersion = "1.0"

// NewFileStore creates a file-based configuration store. If path is
// empty, defaults to ~/.chatvault/config.yaml. A missing file is not an
// error; the store starts empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".chatvault", "config.yaml")
	}

	store := &FileStore{
		path: path,
		data: make(map[string]map[string]any),
	}
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	return store, nil
}

// Load loads the configuration from disk.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = make(map[string]map[string]any)
			return nil
		}
		return fmt.Errorf("config: read file: %w", err)
	}

	var env fileEnvelope
	if err := yaml.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("config: decode file: %w", err)
	}
	if env.Sections != nil {
		s.data = env.Sections
	} else {
		s.data = make(map[string]map[string]any)
	}
	return nil
}

// Save saves the configuration to disk, writing a temporary file and
// renaming it into place.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	raw, err := yaml.Marshal(fileEnvelope{Version: storeVersion, Sections: s.data})
	if err != nil {
		return fmt.Errorf("config: encode file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("config: rename temp file: %w", err)
	}
	return nil
}

// GetSection retrieves configuration data for a specific section.
// An unknown section yields an empty map, not an error.
func (s *FileStore) GetSection(sectionID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if data, exists := s.data[sectionID]; exists {
		dataCopy := make(map[string]any, len(data))
		for k, v := range data {
			dataCopy[k] = v
		}
		return dataCopy, nil
	}
	return make(map[string]any), nil
}

// SetSection stores configuration data for a specific section.
func (s *FileStore) SetSection(sectionID string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataCopy := make(map[string]any, len(data))
	for k, v := range data {
		dataCopy[k] = v
	}
	s.data[sectionID] = dataCopy
	return nil
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}
