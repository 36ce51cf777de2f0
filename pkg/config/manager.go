package config

import (
	"fmt"
	"sync"
)

// Manager coordinates registered configuration sections with a backing
// store. It is constructed at application startup and passed to the
// components that need specific sections.
type Manager struct {
	store    Store
	sections map[string]Section
	mu       sync.RWMutex
}

// NewManager creates a manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// RegisterSection adds a section to the manager. Registering two
// sections with the same ID is an error.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("config: section %q already registered", id)
	}
	m.sections[id] = section
	return nil
}

// GetSection returns a registered section by ID.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	section, ok := m.sections[id]
	return section, ok
}

// LoadAll reads the store and applies its data to every registered
// section. Sections keep their defaults for anything the file omits.
func (m *Manager) LoadAll() error {
	if err := m.store.Load(); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, section := range m.sections {
		data, err := m.store.GetSection(id)
		if err != nil {
			return fmt.Errorf("config: get section %q: %w", id, err)
		}
		if len(data) == 0 {
			continue
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("config: apply section %q: %w", id, err)
		}
		if err := section.Validate(); err != nil {
			return fmt.Errorf("config: validate section %q: %w", id, err)
		}
	}
	return nil
}

// SaveAll writes every registered section's current data to the store
// and persists it.
func (m *Manager) SaveAll() error {
	m.mu.RLock()
	for id, section := range m.sections {
		if err := m.store.SetSection(id, section.Data()); err != nil {
			m.mu.RUnlock()
			return fmt.Errorf("config: set section %q: %w", id, err)
		}
	}
	m.mu.RUnlock()

	return m.store.Save()
}
