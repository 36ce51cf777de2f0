// Package config provides sectioned application configuration backed by
// a YAML file. Sections are explicitly constructed and injected into
// their consumers; there is no global configuration singleton.
package config

// Section is a named group of related settings that knows how to
// serialize itself to and from generic configuration data.
type Section interface {
	// ID returns the stable section identifier used as the storage key.
	ID() string

	// Title returns the human-readable section title.
	Title() string

	// Description returns a short description of what the section controls.
	Description() string

	// Data returns the section's current settings as generic data.
	Data() map[string]any

	// SetData applies generic data to the section's settings.
	SetData(data map[string]any) error

	// Validate checks the section's current settings for consistency.
	Validate() error

	// Reset restores the section's default settings.
	Reset()
}
