package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	raw     []byte
	expires time.Time
}

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{TTL: ttl, Now: time.Now, entries: map[string]memoryEntry{}}
}

func (s *MemoryStore) Get(_ context.Context, token, key string, dst any) (bool, error) {
	if token == "" {
		return false, ErrNoSession
	}
	s.mu.Lock()
	e, ok := s.entries[redisKey(token, key)]
	if ok && s.TTL > 0 && !s.Now().Before(e.expires) {
		delete(s.entries, redisKey(token, key))
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.raw, dst)
}

func (s *MemoryStore) Set(_ context.Context, token, key string, value any) error {
	if token == "" {
		return ErrNoSession
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = map[string]memoryEntry{}
	}
	s.entries[redisKey(token, key)] = memoryEntry{raw: raw, expires: s.Now().Add(s.TTL)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token, key string) error {
	if token == "" {
		return ErrNoSession
	}
	s.mu.Lock()
	delete(s.entries, redisKey(token, key))
	s.mu.Unlock()
	return nil
}
