// Package secrets provides the keychain capability used to hold the
// symmetric key that encrypts the persisted conversation snapshot. Key
// material lives in the platform secure store (or an injectable in-memory
// fake for tests) and is never written to the snapshot file itself.
package secrets

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// KeySize is the length in bytes of generated key material (AES-256).
const KeySize = 32

// Keychain stores symmetric key material by string identifier. For a
// fixed backing, Get must return byte-identical material for an
// identifier after a Set, so a second process (or store instance) using
// the same backing can decrypt data written by the first.
type Keychain interface {
	// Get returns the key material for id. The second return is false
	// when no key is stored under id.
	Get(id string) ([]byte, bool, error)

	// Set stores key material under id, replacing any prior value.
	Set(id string, key []byte) error

	// Delete removes the key stored under id. Deleting an absent id is
	// not an error.
	Delete(id string) error
}

// GenerateKey returns fresh random key material.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("secrets: generate key: %w", err)
	}
	return key, nil
}

// MemoryKeychain is an in-memory Keychain for tests and ephemeral use.
// Safe for concurrent use.
type MemoryKeychain struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

// NewMemoryKeychain creates an empty in-memory keychain.
func NewMemoryKeychain() *MemoryKeychain {
	return &MemoryKeychain{keys: make(map[string][]byte)}
}

// Get returns a copy of the stored key material for id.
func (k *MemoryKeychain) Get(id string) ([]byte, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	key, ok := k.keys[id]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(key))
	copy(out, key)
	return out, true, nil
}

// Set stores a copy of key under id.
func (k *MemoryKeychain) Set(id string, key []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	stored := make([]byte, len(key))
	copy(stored, key)
	k.keys[id] = stored
	return nil
}

// Delete removes the key stored under id.
func (k *MemoryKeychain) Delete(id string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.keys, id)
	return nil
}

var _ Keychain = (*MemoryKeychain)(nil)
