package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kilupskalvis/gitsim/internal/models"
	bolt "go.etcd.io/bbolt"
)

var bucketKV = []byte("kv")

// BoltStore keeps the state document in a bbolt database file.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates a bbolt database at the given path.
func NewBoltStore(dbPath string) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketKV); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketKV, err)
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Load() (*models.Document, error) { return load(s) }

func (s *BoltStore) Save(doc *models.Document) error { return save(s, doc) }

// Clear removes the persisted state.
func (s *BoltStore) Clear() error {
	return s.deleteValue(StateKey)
}

func (s *BoltStore) getValue(key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKV)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			// bbolt values are only valid for the life of the transaction.
			val = append([]byte{}, v...)
		}
		return nil
	})
	return val, err
}

func (s *BoltStore) setValue(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKV)
		if b == nil {
			return fmt.Errorf("kv bucket not found")
		}
		return b.Put([]byte(key), value)
	})
}

func (s *BoltStore) deleteValue(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKV)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
