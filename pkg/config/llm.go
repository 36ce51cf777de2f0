package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"

	// DefaultModel is used until the user selects a model.
	DefaultModel = "gpt-4o-mini"
)

// LLMSection holds the model selection consulted when a new
// conversation is created. It satisfies the conversation manager's
// ModelProvider dependency.
type LLMSection struct {
	Model string
	mu    sync.RWMutex
}

// NewLLMSection creates an LLM section with the default model selected.
func NewLLMSection() *LLMSection {
	return &LLMSection{Model: DefaultModel}
}

// ID returns the section identifier.
func (s *LLMSection) ID() string {
	return SectionIDLLM
}

// Title returns the section title.
func (s *LLMSection) Title() string {
	return "LLM Settings"
}

// Description returns the section description.
func (s *LLMSection) Description() string {
	return "Configure which LLM model new conversations are created with."
}

// SelectedModel returns the currently selected model identifier.
func (s *LLMSection) SelectedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Model
}

// SetModel updates the selected model.
func (s *LLMSection) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = model
}

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"model": s.Model,
	}
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "model":
			model, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for model: expected string, got %T", value)
			}
			s.Model = model
		}
	}
	return nil
}

// Validate checks the section's current settings.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	return nil
}

// Reset restores the default model selection.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = DefaultModel
}

var _ Section = (*LLMSection)(nil)
