package session

import (
	"sync"

	"watchlist-systemv1/internal/model"
	"watchlist-systemv1/internal/pnl"
	"watchlist-systemv1/internal/simulator"
)

// Session is the explicit per-login context object: the authenticated
// account, a write-through cache of its persisted watchlist, and the
// simulator owning that watchlist's live prices. Created on login, torn
// down on logout — no module-level state.
type Session struct {
	Token   string
	Account model.Account

	mu      sync.Mutex
	entries []model.WatchlistEntry
	sim     *simulator.Simulator
}

// Identity returns the account username the session belongs to.
func (s *Session) Identity() string { return s.Account.Username }

// Entries returns a copy of the session's cached watchlist.
func (s *Session) Entries() []model.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.WatchlistEntry(nil), s.entries...)
}

// setEntries installs the canonical set returned by the repository and
// feeds it to the simulator, which seeds/evicts live prices and moves
// between idle and running as the set empties or fills.
func (s *Session) setEntries(entries []model.WatchlistEntry) {
	s.mu.Lock()
	s.entries = append([]model.WatchlistEntry(nil), entries...)
	s.mu.Unlock()
	s.sim.SetWatchlist(entries)
}

// Prices returns a copy of the session's live-price map.
func (s *Session) Prices() map[string]int64 {
	return s.sim.Prices()
}

// Snapshot derives the current P&L display state.
func (s *Session) Snapshot() pnl.Snapshot {
	return pnl.BuildSnapshot(s.Entries(), s.sim.Prices())
}

// SimulatorRunning reports whether the session's tick loop is active.
func (s *Session) SimulatorRunning() bool {
	return s.sim.Running()
}
