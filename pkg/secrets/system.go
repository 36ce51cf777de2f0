package secrets

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// defaultService is the service name registered with the platform
// secure store (Keychain on macOS, Secret Service on Linux, Credential
// Manager on Windows).
const defaultService = "com.entrhq.chatvault"

// SystemKeychain is a Keychain backed by the operating system's secure
// storage. Key material is base64-encoded because the platform APIs
// store strings, not raw bytes.
type SystemKeychain struct {
	service string
}

// NewSystemKeychain creates a platform-backed keychain. If service is
// empty the default chatvault service name is used.
func NewSystemKeychain(service string) *SystemKeychain {
	if service == "" {
		service = defaultService
	}
	return &SystemKeychain{service: service}
}

// Get returns the key material stored under id.
func (k *SystemKeychain) Get(id string) ([]byte, bool, error) {
	encoded, err := keyring.Get(k.service, id)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("secrets: keychain get %q: %w", id, err)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("secrets: keychain decode %q: %w", id, err)
	}
	return key, true, nil
}

// Set stores key material under id.
func (k *SystemKeychain) Set(id string, key []byte) error {
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := keyring.Set(k.service, id, encoded); err != nil {
		return fmt.Errorf("secrets: keychain set %q: %w", id, err)
	}
	return nil
}

// Delete removes the key stored under id.
func (k *SystemKeychain) Delete(id string) error {
	err := keyring.Delete(k.service, id)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("secrets: keychain delete %q: %w", id, err)
	}
	return nil
}

var _ Keychain = (*SystemKeychain)(nil)
