// Package mem implements the model.KVStore port in process memory.
// Used for local development runs and as the test double for the
// repository and account-store packages. Nothing survives a restart.
package mem

import (
	"context"
	"sync"
)

// KV is a mutex-guarded in-memory key-value store.
type KV struct {
	mu   sync.RWMutex
	data map[string]string
}

// New creates an empty in-memory store.
func New() *KV {
	return &KV{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (kv *KV) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.data[key]
	return v, ok, nil
}

// Set replaces the value for key.
func (kv *KV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return nil
}

// Delete removes key.
func (kv *KV) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

// Close is a no-op for the in-memory store.
func (kv *KV) Close() error { return nil }

// Len returns the number of stored keys.
func (kv *KV) Len() int {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return len(kv.data)
}
