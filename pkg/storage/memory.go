package storage

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore holds the encoded artifact in memory. It round-trips through
// the same gob encoding as the durable backends.
type MemoryStore struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Saver.
func (s *MemoryStore) Save(ctx context.Context, a *Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := marshal(a)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.saves++
	s.mu.Unlock()
	return nil
}

// Load implements Loader.
func (s *MemoryStore) Load(ctx context.Context) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if data == nil {
		return nil, ErrNotFound
	}
	return Decode(bytes.NewReader(data))
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// SetRaw replaces the stored bytes, e.g. with a corrupt payload.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}

// String identifies the backend in logs.
func (s *MemoryStore) String() string { return "memory" }
