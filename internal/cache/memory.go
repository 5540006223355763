package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and as the
// degraded mode when Redis is unreachable at startup.  Expiry is
// checked lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	val       []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	val := make([]byte, len(e.val))
	copy(val, e.val)
	return val, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memEntry{val: make([]byte, len(val))}
	copy(e.val, val)
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *MemoryStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memEntry)
	return nil
}

// Len reports the number of live entries; handy in tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
