package store

import (
	"sync"

	"github.com/kilupskalvis/gitsim/internal/models"
)

// MemoryStore keeps the encoded document in memory. State is lost on exit.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Load() (*models.Document, error) { return load(s) }

func (s *MemoryStore) Save(doc *models.Document) error { return save(s, doc) }

func (s *MemoryStore) Clear() error { return s.deleteValue(StateKey) }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) getValue(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *MemoryStore) setValue(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte{}, value...)
	return nil
}

func (s *MemoryStore) deleteValue(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
