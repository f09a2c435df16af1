package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"watchlist-systemv1/internal/account"
	"watchlist-systemv1/internal/model"
	"watchlist-systemv1/internal/simulator"
	"watchlist-systemv1/internal/store/mem"
	"watchlist-systemv1/internal/watchlist"
)

var xyz = model.Instrument{Symbol: "XYZ", Name: "Xyz Corp", InitialPrice: 10000}

// newManager builds a manager over a fresh in-memory store with the
// bootstrap admin plus accounts alice and bob.
func newManager(t *testing.T, cfg Config) (*Manager, *watchlist.Repository) {
	t.Helper()
	ctx := context.Background()
	kv := mem.New()
	accounts := account.NewStore(kv)
	for _, name := range []string{"alice", "bob"} {
		if err := accounts.Add(ctx, model.Account{Username: name, Password: "pw", Role: model.RoleUser}); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	repo := watchlist.NewRepository(kv)
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Hour
	}
	m := NewManager(accounts, repo, cfg)
	t.Cleanup(m.CloseAll)
	return m, repo
}

func login(t *testing.T, m *Manager, username string) *Session {
	t.Helper()
	password := "pw"
	if username == "admin" {
		password = "0000" // bootstrap credentials
	}
	sess, err := m.Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return sess
}

func TestManager_LoginLoadsPersistedWatchlist(t *testing.T) {
	ctx := context.Background()
	m, repo := newManager(t, Config{})
	repo.Add(ctx, "alice", xyz)

	sess := login(t, m, "alice")
	entries := sess.Entries()
	if len(entries) != 1 || entries[0].Symbol != "XYZ" {
		t.Fatalf("loaded entries = %+v, want persisted XYZ", entries)
	}
	if !sess.SimulatorRunning() {
		t.Error("simulator should be running for a non-empty watchlist")
	}
	if got := sess.Prices()["XYZ"]; got != 10000 {
		t.Errorf("seeded live price = %d, want 10000", got)
	}
}

func TestManager_LoginEmptyWatchlistStaysIdle(t *testing.T) {
	m, _ := newManager(t, Config{})
	sess := login(t, m, "alice")

	if sess.SimulatorRunning() {
		t.Error("simulator should be idle for an empty watchlist")
	}
	snap := sess.Snapshot()
	if snap.HasData {
		t.Error("empty watchlist must report no data")
	}
	if snap.Total != "0.00" {
		t.Errorf("aggregate = %s, want 0.00", snap.Total)
	}
}

func TestManager_InvalidLogin(t *testing.T) {
	m, _ := newManager(t, Config{})
	if _, err := m.Login(context.Background(), "alice", "nope"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestManager_AddRemoveDrivesSimulator(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, Config{})
	sess := login(t, m, "alice")

	entries, err := m.AddToWatchlist(ctx, sess.Token, xyz)
	if err != nil {
		t.Fatalf("AddToWatchlist: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}
	if !sess.SimulatorRunning() {
		t.Fatal("add should start the simulator")
	}

	// Removing the only entry evicts the live price, stops the simulator
	// and cancels its timer
	entries, err = m.RemoveFromWatchlist(ctx, sess.Token, "XYZ")
	if err != nil {
		t.Fatalf("RemoveFromWatchlist: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries after remove = %+v", entries)
	}
	if sess.SimulatorRunning() {
		t.Error("remove of last entry should stop the simulator")
	}
	if len(sess.Prices()) != 0 {
		t.Errorf("live prices should be cleared, got %v", sess.Prices())
	}
}

func TestManager_LogoutKeepsDurableData(t *testing.T) {
	ctx := context.Background()
	m, repo := newManager(t, Config{})
	sess := login(t, m, "alice")
	m.AddToWatchlist(ctx, sess.Token, xyz)

	m.Logout(sess.Token)
	if sess.SimulatorRunning() {
		t.Error("logout must stop the simulator")
	}
	if _, ok := m.Get(sess.Token); ok {
		t.Error("token should be dead after logout")
	}

	// Durable data survives for the next login of the same identity
	if entries := repo.Load(ctx, "alice"); len(entries) != 1 {
		t.Errorf("persisted watchlist lost on logout: %+v", entries)
	}
	again := login(t, m, "alice")
	if got := again.Entries(); len(got) != 1 || got[0].Symbol != "XYZ" {
		t.Errorf("re-login entries = %+v, want XYZ", got)
	}
}

func TestManager_SessionsAreIsolatedPerAccount(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, Config{})
	alice := login(t, m, "alice")
	bob := login(t, m, "bob")

	m.AddToWatchlist(ctx, alice.Token, xyz)
	if len(bob.Entries()) != 0 {
		t.Error("alice's add leaked into bob's session")
	}
	if bob.SimulatorRunning() {
		t.Error("bob's simulator should stay idle")
	}
	if m.ActiveSessions() != 2 {
		t.Errorf("active sessions = %d, want 2", m.ActiveSessions())
	}
	if m.RunningSimulators() != 1 {
		t.Errorf("running simulators = %d, want 1", m.RunningSimulators())
	}
}

func TestManager_DeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	m, repo := newManager(t, Config{})
	repo.Add(ctx, "bob", xyz)

	bob := login(t, m, "bob")
	admin := login(t, m, "admin")

	if err := m.DeleteAccount(ctx, admin.Token, "bob"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	// Cascade: durable mapping gone, live session force-logged-out
	if entries := repo.Load(ctx, "bob"); len(entries) != 0 {
		t.Errorf("bob's watchlist should be erased, got %+v", entries)
	}
	if _, ok := m.Get(bob.Token); ok {
		t.Error("bob's session should be terminated")
	}
	if bob.SimulatorRunning() {
		t.Error("bob's simulator should be stopped")
	}
	if _, err := m.Login(ctx, "bob", "pw"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Errorf("deleted account login: got %v, want ErrInvalidCredentials", err)
	}
}

func TestManager_DeleteAccountPolicy(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, Config{})
	admin := login(t, m, "admin")
	alice := login(t, m, "alice")

	// Self-deletion rejected
	if err := m.DeleteAccount(ctx, admin.Token, "admin"); !errors.Is(err, account.ErrSelfRemoval) {
		t.Errorf("self delete: got %v, want ErrSelfRemoval", err)
	}
	// Non-admin rejected
	if err := m.DeleteAccount(ctx, alice.Token, "bob"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("non-admin delete: got %v, want ErrNotAdmin", err)
	}
	// Dead token rejected
	if err := m.DeleteAccount(ctx, "bogus", "bob"); !errors.Is(err, ErrNoSession) {
		t.Errorf("dead token: got %v, want ErrNoSession", err)
	}
}

func TestManager_AdminAccountOps(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, Config{})
	admin := login(t, m, "admin")
	alice := login(t, m, "alice")

	if err := m.CreateAccount(ctx, admin.Token, model.Account{Username: "carol", Password: "pw", Role: model.RoleUser}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	accts, err := m.Accounts(ctx, admin.Token)
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(accts) != 4 { // admin, alice, bob, carol
		t.Errorf("accounts = %d, want 4", len(accts))
	}

	if _, err := m.Accounts(ctx, alice.Token); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("non-admin list: got %v, want ErrNotAdmin", err)
	}
	if err := m.CreateAccount(ctx, alice.Token, model.Account{Username: "dave", Password: "pw", Role: model.RoleUser}); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("non-admin create: got %v, want ErrNotAdmin", err)
	}
}

func TestManager_TokensAreUniqueHex(t *testing.T) {
	m, _ := newManager(t, Config{})
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		sess := login(t, m, "alice")
		if len(sess.Token) != 32 {
			t.Fatalf("token %q: length %d, want 32 hex chars", sess.Token, len(sess.Token))
		}
		if seen[sess.Token] {
			t.Fatalf("duplicate token issued: %s", sess.Token)
		}
		seen[sess.Token] = true
	}
}

func TestManager_OnTickObservesSessionTicks(t *testing.T) {
	ctx := context.Background()
	ticked := make(chan string, 1)
	m, _ := newManager(t, Config{
		TickInterval: 5 * time.Millisecond,
		OnTick: func(sess *Session, res simulator.TickResult) {
			select {
			case ticked <- sess.Identity():
			default:
			}
		},
	})
	sess := login(t, m, "alice")
	m.AddToWatchlist(ctx, sess.Token, xyz)

	select {
	case id := <-ticked:
		if id != "alice" {
			t.Errorf("tick identity = %s, want alice", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no tick observed within 2s")
	}
}
