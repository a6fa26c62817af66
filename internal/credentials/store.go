// Package credentials persists the session token between runs.
//
// Every read and write of the durable token goes through a Store so flows
// never touch storage directly.
package credentials

import (
	"context"
	"sync"
)

// Store persists a single token string under a well-known key.
type Store interface {
	// Load returns "" and a nil error when nothing is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored token.
func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Save replaces the stored token.
func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear drops the stored token.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// HasToken reports whether store currently holds a non-empty token. Load
// errors count as "no token" since absence gates the same way.
func HasToken(ctx context.Context, store Store) bool {
	if store == nil {
		return false
	}
	token, err := store.Load(ctx)
	return err == nil && token != ""
}
