// Package account holds login records and the role policy around removing
// them. Records live as one JSON blob in the durable KV store; a fresh
// store bootstraps a single admin account so the system is usable on first
// run.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"watchlist-systemv1/internal/model"
)

const accountsKey = "accounts"

// Bootstrap credentials for a store with no persisted accounts.
const (
	bootstrapUsername = "admin"
	bootstrapPassword = "0000"
)

var (
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrDuplicateUsername rejects creating an account whose username
	// already exists.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrSelfRemoval rejects an account removing itself.
	ErrSelfRemoval = errors.New("you cannot remove yourself")

	// ErrLastAdmin rejects removing the only remaining admin account.
	ErrLastAdmin = errors.New("at least one admin account must remain")
)

// Store keeps all login records in a single KV entry. The mutex serializes
// read-modify-write cycles; concurrent admin sessions are last-writer-wins
// at the blob level, which matches the KV collaborator's contract.
type Store struct {
	mu sync.Mutex
	kv model.KVStore
}

// NewStore creates an account store on top of the given KV store.
func NewStore(kv model.KVStore) *Store {
	return &Store{kv: kv}
}

// load reads the account list, bootstrapping the default admin when no
// usable data exists. Malformed durable content is discarded and logged,
// never propagated.
func (s *Store) load(ctx context.Context) ([]model.Account, error) {
	raw, ok, err := s.kv.Get(ctx, accountsKey)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	if ok {
		var accts []model.Account
		if jerr := json.Unmarshal([]byte(raw), &accts); jerr != nil {
			slog.Warn("discarding malformed account data", "key", accountsKey, "err", jerr)
		} else if len(accts) == 0 {
			// A validly-empty list has no admin and could never regain
			// one; re-bootstrap so the system stays administrable.
			slog.Warn("stored account list is empty, re-bootstrapping", "key", accountsKey)
		} else {
			return accts, nil
		}
	}

	accts := []model.Account{{
		Username: bootstrapUsername,
		Password: bootstrapPassword,
		Role:     model.RoleAdmin,
	}}
	if err := s.save(ctx, accts); err != nil {
		return nil, err
	}
	slog.Info("bootstrapped default admin account", "username", bootstrapUsername)
	return accts, nil
}

func (s *Store) save(ctx context.Context, accts []model.Account) error {
	data, err := json.Marshal(accts)
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := s.kv.Set(ctx, accountsKey, string(data)); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

// Authenticate checks username/password and returns the matching account.
// Comparison is flat — this store carries no credential security.
func (s *Store) Authenticate(ctx context.Context, username, password string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accts, err := s.load(ctx)
	if err != nil {
		return model.Account{}, err
	}
	for _, a := range accts {
		if a.Username == username && a.Password == password {
			return a, nil
		}
	}
	return model.Account{}, ErrInvalidCredentials
}

// List returns all accounts.
func (s *Store) List(ctx context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the account for username. Absence is not an error.
func (s *Store) Get(ctx context.Context, username string) (model.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accts, err := s.load(ctx)
	if err != nil {
		return model.Account{}, false, err
	}
	for _, a := range accts {
		if a.Username == username {
			return a, true, nil
		}
	}
	return model.Account{}, false, nil
}

// Add creates a new account. Duplicate usernames are rejected with no
// partial mutation.
func (s *Store) Add(ctx context.Context, acct model.Account) error {
	if acct.Username == "" {
		return errors.New("username must not be empty")
	}
	if acct.Role != model.RoleAdmin && acct.Role != model.RoleUser {
		return fmt.Errorf("unknown role %q", acct.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accts, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, a := range accts {
		if a.Username == acct.Username {
			return ErrDuplicateUsername
		}
	}
	return s.save(ctx, append(accts, acct))
}

// Remove deletes the account for username on behalf of actor. Policy:
// the actor may never remove itself, and the last admin may not be
// removed. Removing an unknown username is a no-op.
func (s *Store) Remove(ctx context.Context, actor, username string) error {
	if actor == username {
		return ErrSelfRemoval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accts, err := s.load(ctx)
	if err != nil {
		return err
	}

	admins := 0
	for _, a := range accts {
		if a.IsAdmin() {
			admins++
		}
	}

	kept := make([]model.Account, 0, len(accts))
	removed := false
	for _, a := range accts {
		if a.Username == username {
			if a.IsAdmin() && admins <= 1 {
				return ErrLastAdmin
			}
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return nil
	}
	return s.save(ctx, kept)
}
