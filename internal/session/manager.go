// Package session wires account activation to watchlist loading and
// simulator lifecycle. Login loads the account's persisted watchlist and
// hands it to a fresh simulator; logout stops the simulator and clears
// live prices while leaving durable data retrievable on the next login;
// admin-driven account deletion cascades to the durable watchlist mapping.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"watchlist-systemv1/internal/account"
	"watchlist-systemv1/internal/model"
	"watchlist-systemv1/internal/notification"
	"watchlist-systemv1/internal/simulator"
	"watchlist-systemv1/internal/watchlist"
)

var (
	// ErrNoSession is returned when a token maps to no live session.
	ErrNoSession = errors.New("not logged in")

	// ErrNotAdmin rejects account-management calls from non-admin sessions.
	ErrNotAdmin = errors.New("admin role required")
)

// Config configures the session manager.
type Config struct {
	// TickInterval is the simulator period for every session.
	// Zero falls back to simulator.DefaultInterval.
	TickInterval time.Duration

	// OnTick, if set, observes every completed simulator tick of every
	// live session (gateway broadcast, metrics).
	OnTick func(sess *Session, res simulator.TickResult)

	// Notifier receives fire-and-forget watchlist lifecycle events.
	// Nil disables notifications.
	Notifier notification.Notifier
}

// Manager owns all live sessions, keyed by opaque token.
type Manager struct {
	accounts *account.Store
	repo     *watchlist.Repository
	cfg      Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager over the given stores.
func NewManager(accounts *account.Store, repo *watchlist.Repository, cfg Config) *Manager {
	return &Manager{
		accounts: accounts,
		repo:     repo,
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Login authenticates the account, loads its persisted watchlist, and
// starts a session whose simulator transitions to running if the loaded
// set is non-empty.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	acct, err := m.accounts.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		Token:   token,
		Account: acct,
		sim:     simulator.New(m.cfg.TickInterval),
	}
	if m.cfg.OnTick != nil {
		sess.sim.OnTick = func(res simulator.TickResult) {
			m.cfg.OnTick(sess, res)
		}
	}
	sess.setEntries(m.repo.Load(ctx, acct.Username))

	m.mu.Lock()
	m.sessions[sess.Token] = sess
	m.mu.Unlock()

	slog.Info("session started", "identity", acct.Username, "entries", len(sess.Entries()))
	return sess, nil
}

// Get returns the live session for token.
func (m *Manager) Get(token string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[token]
	return sess, ok
}

// Logout tears the session down: the simulator stops and the live-price
// map is cleared. Durable watchlist data is untouched. Unknown tokens are
// a no-op.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	sess, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if !ok {
		return
	}
	sess.sim.Stop()
	slog.Info("session ended", "identity", sess.Identity())
}

// AddToWatchlist adds an add-time snapshot of inst to the session
// account's watchlist and returns the canonical set. The simulator seeds
// the new symbol before its next tick.
func (m *Manager) AddToWatchlist(ctx context.Context, token string, inst model.Instrument) ([]model.WatchlistEntry, error) {
	sess, ok := m.Get(token)
	if !ok {
		return nil, ErrNoSession
	}
	entries, err := m.repo.Add(ctx, sess.Identity(), inst)
	if err != nil {
		return nil, err
	}
	sess.setEntries(entries)
	m.notify(notification.Event{Type: "watchlist_add", Identity: sess.Identity(), Symbol: inst.Symbol})
	return entries, nil
}

// RemoveFromWatchlist removes symbol from the session account's watchlist
// and returns the canonical set. The live price is evicted in the same
// call; emptying the set stops the simulator and cancels its timer.
func (m *Manager) RemoveFromWatchlist(ctx context.Context, token, symbol string) ([]model.WatchlistEntry, error) {
	sess, ok := m.Get(token)
	if !ok {
		return nil, ErrNoSession
	}
	entries, err := m.repo.Remove(ctx, sess.Identity(), symbol)
	if err != nil {
		return nil, err
	}
	sess.setEntries(entries)
	m.notify(notification.Event{Type: "watchlist_remove", Identity: sess.Identity(), Symbol: symbol})
	return entries, nil
}

// Accounts lists all accounts. Admin only.
func (m *Manager) Accounts(ctx context.Context, token string) ([]model.Account, error) {
	sess, ok := m.Get(token)
	if !ok {
		return nil, ErrNoSession
	}
	if !sess.Account.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return m.accounts.List(ctx)
}

// CreateAccount creates a new login record. Admin only.
func (m *Manager) CreateAccount(ctx context.Context, token string, acct model.Account) error {
	sess, ok := m.Get(token)
	if !ok {
		return ErrNoSession
	}
	if !sess.Account.IsAdmin() {
		return ErrNotAdmin
	}
	return m.accounts.Add(ctx, acct)
}

// DeleteAccount removes the account for username and cascades to its
// durable watchlist mapping. Admin only; self-deletion and removal of the
// last admin are rejected at the account-store boundary. Any live session
// of the deleted identity is force-logged-out.
func (m *Manager) DeleteAccount(ctx context.Context, token, username string) error {
	sess, ok := m.Get(token)
	if !ok {
		return ErrNoSession
	}
	if !sess.Account.IsAdmin() {
		return ErrNotAdmin
	}
	if err := m.accounts.Remove(ctx, sess.Identity(), username); err != nil {
		return err
	}
	if err := m.repo.DeleteAccountData(ctx, username); err != nil {
		return err
	}

	m.mu.Lock()
	var orphaned []*Session
	for tok, other := range m.sessions {
		if other.Identity() == username {
			orphaned = append(orphaned, other)
			delete(m.sessions, tok)
		}
	}
	m.mu.Unlock()
	for _, other := range orphaned {
		other.sim.Stop()
	}

	m.notify(notification.Event{Type: "account_deleted", Identity: username})
	slog.Info("account deleted", "identity", username, "by", sess.Identity())
	return nil
}

// ActiveSessions returns the number of live sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunningSimulators returns how many live sessions have an active tick loop.
func (m *Manager) RunningSimulators() int {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.Unlock()

	n := 0
	for _, sess := range sessions {
		if sess.SimulatorRunning() {
			n++
		}
	}
	return n
}

// CloseAll stops every live session's simulator. Called on shutdown so no
// timer outlives the process's serving state.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for tok, sess := range m.sessions {
		sessions = append(sessions, sess)
		delete(m.sessions, tok)
	}
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.sim.Stop()
	}
}

// notify delivers ev in the background. Delivery failures are logged and
// never surfaced to the mutation that triggered them.
func (m *Manager) notify(ev notification.Event) {
	if m.cfg.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.cfg.Notifier.Send(ctx, ev); err != nil {
			slog.Warn("notification delivery failed", "type", ev.Type, "err", err)
		}
	}()
}
