// Package store persists whole-repository snapshots under a single key of
// a key-value store. Every save overwrites the previous document; there
// is no partial or incremental write.
package store

import (
	"fmt"

	"github.com/kilupskalvis/gitsim/internal/models"
)

// StateKey is the fixed key the state document is stored under.
const StateKey = "gitVisualizer_state"

// Backend names accepted by Open.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// StateStore loads and saves the state document.
type StateStore interface {
	// Load returns (nil, nil) if no state has been saved.
	Load() (*models.Document, error)
	Save(doc *models.Document) error
	Clear() error
	Close() error
}

// Open returns the backend named by kind, storing data at path.
// The memory backend ignores path.
func Open(kind, path string) (StateStore, error) {
	switch kind {
	case "", BackendBolt:
		return NewBoltStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// kv is the raw key-value contract each backend implements.
type kv interface {
	getValue(key string) ([]byte, error)
	setValue(key string, value []byte) error
	deleteValue(key string) error
}

func load(s kv) (*models.Document, error) {
	data, err := s.getValue(StateKey)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return Decode(data)
}

func save(s kv, doc *models.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := s.setValue(StateKey, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
