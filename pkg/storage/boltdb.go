package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/printloft/storefront/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketLocal   = []byte("local")
	bucketSession = []byte("session")

	keyIdentity = []byte("identity")
)

// BoltStore implements KV and SessionStore using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store in dataDir
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "storefront.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketLocal, bucketSession} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database, for components that keep their own
// buckets in the same file
func (s *BoltStore) DB() *bolt.DB {
	return s.db
}

// Path returns the database file path
func (s *BoltStore) Path() string {
	return s.db.Path()
}

// Get returns the value stored under key
func (s *BoltStore) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketLocal).Get([]byte(key))
		if data == nil {
			return nil
		}
		// Copy out: bolt memory is only valid inside the transaction
		value = string(data)
		found = true
		return nil
	})
	return value, found, err
}

// Set stores value under key
func (s *BoltStore) Set(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLocal).Put([]byte(key), []byte(value))
	})
}

// Remove deletes key. Missing keys are not an error.
func (s *BoltStore) Remove(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLocal).Delete([]byte(key))
	})
}

// LoadIdentity returns the persisted identity, or the zero Identity if none was saved
func (s *BoltStore) LoadIdentity() (types.Identity, error) {
	var identity types.Identity
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(keyIdentity)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &identity)
	})
	return identity, err
}

// SaveIdentity persists identity; saving an anonymous identity clears it
func (s *BoltStore) SaveIdentity(identity types.Identity) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if identity.IsAnonymous() {
			return b.Delete(keyIdentity)
		}
		data, err := json.Marshal(identity)
		if err != nil {
			return err
		}
		return b.Put(keyIdentity, data)
	})
}
