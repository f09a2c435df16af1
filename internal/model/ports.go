package model

import "context"

// ── Storage Port Interfaces ──
// These interfaces decouple business logic from concrete storage
// implementations (Redis, SQLite, in-memory). Each implementation
// satisfies one or more of these interfaces.

// KVStore is the durable storage collaborator: a namespaced string
// key-value store holding JSON blobs (one key per logical mapping:
// accounts, per-account watchlists).
type KVStore interface {
	// Get returns the stored value for key. ok is false when the key is
	// absent; absence is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value for key. Readers never observe a partial write.
	Set(ctx context.Context, key, value string) error

	// Delete erases the key entirely. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases underlying resources.
	Close() error
}

// Catalog supplies the tradable instrument universe on demand.
// The engine treats it as read-only and does not cache beyond a single load.
type Catalog interface {
	Fetch(ctx context.Context) ([]Instrument, error)
}
