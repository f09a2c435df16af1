// Package watchlist persists each account's followed instruments.
//
// The durable mapping is accountIdentity → ordered JSON array of entries,
// one KV key per account. This store is the system of record; in-memory
// session state is a read-through/write-through cache of one entry here.
package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"watchlist-systemv1/internal/model"
)

const keyPrefix = "watchlist:"

// Repository loads and saves per-account watchlists. The mutex serializes
// read-modify-write cycles (Add/Remove) so a save never clobbers a
// concurrent mutation of the same account.
type Repository struct {
	mu sync.Mutex
	kv model.KVStore
}

// NewRepository creates a repository on top of the given KV store.
func NewRepository(kv model.KVStore) *Repository {
	return &Repository{kv: kv}
}

func key(identity string) string {
	return keyPrefix + identity
}

// Load returns the persisted entries for identity, or an empty slice when
// none exist. Load never fails: storage errors and malformed content are
// logged and treated as "no data" — the repository self-heals on the next
// save. Availability over strict integrity, for this non-critical cache.
func (r *Repository) Load(ctx context.Context, identity string) []model.WatchlistEntry {
	raw, ok, err := r.kv.Get(ctx, key(identity))
	if err != nil {
		slog.Warn("watchlist load failed, treating as empty", "identity", identity, "err", err)
		return []model.WatchlistEntry{}
	}
	if !ok {
		return []model.WatchlistEntry{}
	}

	var entries []model.WatchlistEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		slog.Warn("discarding malformed watchlist data", "identity", identity, "err", err)
		return []model.WatchlistEntry{}
	}
	if entries == nil {
		entries = []model.WatchlistEntry{}
	}
	return entries
}

// Save replaces the persisted set for identity with a single KV write, so
// readers never observe a partial update.
func (r *Repository) Save(ctx context.Context, identity string, entries []model.WatchlistEntry) error {
	if entries == nil {
		entries = []model.WatchlistEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode watchlist for %s: %w", identity, err)
	}
	if err := r.kv.Set(ctx, key(identity), string(data)); err != nil {
		return fmt.Errorf("save watchlist for %s: %w", identity, err)
	}
	return nil
}

// Add appends an add-time snapshot of inst to identity's watchlist and
// returns the canonical set. Adding a symbol already present is a no-op
// that returns the unchanged set.
func (r *Repository) Add(ctx context.Context, identity string, inst model.Instrument) ([]model.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.Load(ctx, identity)
	if model.HasSymbol(entries, inst.Symbol) {
		return entries, nil
	}
	entries = append(entries, model.NewWatchlistEntry(inst))
	if err := r.Save(ctx, identity, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Remove filters symbol out of identity's watchlist and returns the
// canonical set. Removing a symbol that is not present is a no-op.
func (r *Repository) Remove(ctx context.Context, identity, symbol string) ([]model.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.Load(ctx, identity)
	kept := make([]model.WatchlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.Symbol != symbol {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return entries, nil
	}
	if err := r.Save(ctx, identity, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// DeleteAccountData erases the persisted mapping entry for identity.
// Called when the account itself is deleted.
func (r *Repository) DeleteAccountData(ctx context.Context, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.kv.Delete(ctx, key(identity)); err != nil {
		return fmt.Errorf("delete watchlist for %s: %w", identity, err)
	}
	return nil
}
