// Package store provides the durable key/record storage used by the catalog.
// Records are opaque byte slices produced with Packer and read back with Unpacker.
package store

import "errors"

// ErrLocked is returned when another process already holds the store.
var ErrLocked = errors.New("store: locked by another process")

// DecodeFunc is called once per record during Load.
type DecodeFunc func(key string, data []byte) error

// Store is a versioned key/record store.
type Store interface {
	// Store writes data under key. When overwrite is false an existing
	// record is left untouched.
	Store(key string, data []byte, overwrite bool) error
	Delete(key string) error
	// Load calls decode for every record. A decode error stops the scan.
	Load(decode DecodeFunc) error
	Close() error
}

// Verify implementations at compile time.
var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Memory)(nil)
)
