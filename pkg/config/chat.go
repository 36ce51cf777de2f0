package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDChat is the identifier for the chat settings section
	SectionIDChat = "chat"

	// Default values for chat settings
	defaultAutoGenerateTitle = false
	defaultSaveDebounce      = 1500 * time.Millisecond
)

// ChatSection manages conversation persistence settings: where the
// encrypted snapshot lives, how long mutations are debounced before a
// save, and whether titles are auto-generated. It satisfies the
// conversation manager's Preferences dependency.
type ChatSection struct {
	AutoTitle    bool
	SaveDebounce time.Duration
	DataDir      string
	mu           sync.RWMutex
}

// NewChatSection creates a chat section with default settings.
func NewChatSection() *ChatSection {
	return &ChatSection{
		AutoTitle:    defaultAutoGenerateTitle,
		SaveDebounce: defaultSaveDebounce,
	}
}

// ID returns the section identifier.
func (s *ChatSection) ID() string {
	return SectionIDChat
}

// Title returns the section title.
func (s *ChatSection) Title() string {
	return "Chat Settings"
}

// Description returns the section description.
func (s *ChatSection) Description() string {
	return "Configure conversation persistence, the save debounce window, and title auto-generation."
}

// AutoGenerateTitle reports whether conversation titles should be
// derived from the first user message.
func (s *ChatSection) AutoGenerateTitle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AutoTitle
}

// SetAutoGenerateTitle toggles title auto-generation.
func (s *ChatSection) SetAutoGenerateTitle(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AutoTitle = enabled
}

// GetSaveDebounce returns the configured save debounce window.
func (s *ChatSection) GetSaveDebounce() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SaveDebounce
}

// SetSaveDebounce updates the save debounce window.
func (s *ChatSection) SetSaveDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveDebounce = d
}

// GetDataDir returns the configured snapshot directory, or empty for
// the application default.
func (s *ChatSection) GetDataDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DataDir
}

// SetDataDir updates the snapshot directory.
func (s *ChatSection) SetDataDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DataDir = dir
}

// Data returns the current configuration data.
func (s *ChatSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"auto_generate_title": s.AutoTitle,
		"save_debounce":       s.SaveDebounce.String(),
		"data_dir":            s.DataDir,
	}
}

// SetData updates the configuration from the provided data.
func (s *ChatSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "auto_generate_title":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for auto_generate_title: expected bool, got %T", value)
			}
			s.AutoTitle = enabled

		case "save_debounce":
			switch v := value.(type) {
			case string:
				duration, err := time.ParseDuration(v)
				if err != nil {
					return fmt.Errorf("invalid duration string for save_debounce: %w", err)
				}
				s.SaveDebounce = duration
			case int:
				s.SaveDebounce = time.Duration(v)
			case int64:
				s.SaveDebounce = time.Duration(v)
			default:
				return fmt.Errorf("invalid value type for save_debounce: expected duration string, got %T", value)
			}

		case "data_dir":
			dir, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for data_dir: expected string, got %T", value)
			}
			s.DataDir = dir
		}
	}
	return nil
}

// Validate checks the section's current settings.
func (s *ChatSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.SaveDebounce < 0 {
		return fmt.Errorf("save_debounce must not be negative")
	}
	return nil
}

// Reset restores the default chat settings.
func (s *ChatSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AutoTitle = defaultAutoGenerateTitle
	s.SaveDebounce = defaultSaveDebounce
	s.DataDir = ""
}

var _ Section = (*ChatSection)(nil)
