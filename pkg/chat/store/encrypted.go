// Package store persists the full conversation snapshot to a single
// encrypted file. The snapshot is serialized as JSON, sealed with
// AES-256-GCM under a key held in the keychain, and replaced atomically
// on every save. The store imposes no ordering between concurrent
// saves; the conversation manager serializes writes.
package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/entrhq/chatvault/pkg/chat"
	"github.com/entrhq/chatvault/pkg/secrets"
)

// SnapshotFileName is the conventional name of the encrypted snapshot
// file inside the store directory.
const SnapshotFileName = "conversations.enc"

const envelopeVersion = 1

// envelope is the serialized form of a snapshot before encryption.
type envelope struct {
	Version       int                  `json:"version"`
	Conversations []*chat.Conversation `json:"conversations"`
}

// EncryptedStore reads and writes the encrypted conversation snapshot.
// The encryption key is resolved lazily from the keychain and generated
// on first use.
type EncryptedStore struct {
	path     string
	keyID    string
	keychain secrets.Keychain

	mu   sync.Mutex
	aead cipher.AEAD // resolved on first use
}

// NewEncryptedStore creates a store writing to dir/conversations.enc,
// with key material addressed by keyID in the given keychain. The
// directory is created on the first save.
func NewEncryptedStore(dir, keyID string, keychain secrets.Keychain) *EncryptedStore {
	return &EncryptedStore{
		path:     filepath.Join(dir, SnapshotFileName),
		keyID:    keyID,
		keychain: keychain,
	}
}

// Path returns the snapshot file path.
func (s *EncryptedStore) Path() string {
	return s.path
}

// resolveAEAD returns the sealed cipher for this store's key,
// generating and persisting key material on the first lookup miss.
// Idempotent across repeated calls within a process.
func (s *EncryptedStore) resolveAEAD() (cipher.AEAD, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.aead != nil {
		return s.aead, nil
	}

	key, ok, err := s.keychain.Get(s.keyID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %q: %v", ErrKeyUnavailable, s.keyID, err)
	}
	if !ok {
		key, err = secrets.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("%w: generate: %v", ErrKeyUnavailable, err)
		}
		if err := s.keychain.Set(s.keyID, key); err != nil {
			return nil, fmt.Errorf("%w: persist %q: %v", ErrKeyUnavailable, s.keyID, err)
		}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: cipher init: %v", ErrKeyUnavailable, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: gcm init: %v", ErrKeyUnavailable, err)
	}
	s.aead = aead
	return aead, nil
}

// encrypt seals plaintext with a random nonce prefixed to the result.
func (s *EncryptedStore) encrypt(plaintext []byte) ([]byte, error) {
	aead, err := s.resolveAEAD()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrEncryption, err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens nonce-prefixed ciphertext produced by encrypt.
func (s *EncryptedStore) decrypt(ciphertext []byte) ([]byte, error) {
	aead, err := s.resolveAEAD()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext shorter than nonce", ErrDecryption)
	}
	nonce, payload := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}

// Load reads, decrypts, and deserializes the persisted snapshot. A
// missing file is the first-run / post-clear state and yields an empty
// slice, not an error.
func (s *EncryptedStore) Load(ctx context.Context) ([]*chat.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*chat.Conversation{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, s.path, err)
	}

	plaintext, err := s.decrypt(raw)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrDecryption, err)
	}
	if env.Conversations == nil {
		return []*chat.Conversation{}, nil
	}
	return env.Conversations, nil
}

// Save serializes and encrypts the full snapshot and replaces the
// target file atomically via a temporary path and rename, so a crash
// mid-write never leaves a half-written file readable as valid.
func (s *EncryptedStore) Save(ctx context.Context, conversations []*chat.Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := envelope{Version: envelopeVersion, Conversations: conversations}
	plaintext, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", ErrEncryption, err)
	}

	ciphertext, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", ErrIO, dir, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, ciphertext, 0o600); err != nil {
		return fmt.Errorf("%w: write temp file: %v", ErrIO, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("%w: replace %s: %v", ErrIO, s.path, err)
	}
	return nil
}

// Clear removes the persisted snapshot file. An absent file is a no-op.
func (s *EncryptedStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", ErrIO, s.path, err)
	}
	return nil
}

var _ chat.Store = (*EncryptedStore)(nil)
