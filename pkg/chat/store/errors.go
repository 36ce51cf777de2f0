package store

import "errors"

// Sentinel errors describing how a store operation failed. Callers use
// errors.Is to branch on the failure class; the wrapped error carries
// the underlying cause.
var (
	// ErrKeyUnavailable means the keychain could neither return an
	// existing key nor persist a freshly generated one.
	ErrKeyUnavailable = errors.New("store: encryption key unavailable")

	// ErrEncryption means the snapshot could not be sealed.
	ErrEncryption = errors.New("store: encryption failed")

	// ErrDecryption means the persisted file could not be opened with
	// the resolved key: wrong key, truncated file, or corrupted
	// ciphertext. It covers deserialization of the decrypted payload
	// too, since a garbled plaintext indicates the same class of loss.
	ErrDecryption = errors.New("store: decryption failed")

	// ErrIO is a filesystem-level failure reading or writing the
	// snapshot file.
	ErrIO = errors.New("store: io failure")
)
