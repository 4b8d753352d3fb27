package store

import (
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned when no artifact is stored under a slot key.
	ErrNotFound = errors.New("no artifact for slot key")

	// ErrAlreadyExists is returned by Write when an artifact is already
	// present for the key. Artifacts are write-once; callers racing on the
	// same slot treat this as success.
	ErrAlreadyExists = errors.New("artifact already exists for slot key")
)

// MemoryStore is a concurrency-safe in-memory artifact store. It backs tests
// and throwaway deployments; fs and badger are the durable backends.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Exists reports whether an artifact is stored under key.
func (s *MemoryStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Read returns the artifact stored under key.
func (s *MemoryStore) Read(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write stores the artifact under key. The check and the insert happen under
// one lock, so concurrent writers for the same key see exactly one success.
func (s *MemoryStore) Write(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; ok {
		return ErrAlreadyExists
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[key] = cp
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
