package storage

import (
	"errors"
	"sync"

	"github.com/printloft/storefront/pkg/types"
)

// CartKey is the local key holding the anonymous cart document
const CartKey = "cart"

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("storage: store is closed")

// KV is the device-scoped string key-value store.
// Get reports ok=false when the key is absent.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// SessionStore persists the signed-in identity between process runs
type SessionStore interface {
	LoadIdentity() (types.Identity, error)
	SaveIdentity(identity types.Identity) error
}

// MemoryStore is a KV held in process memory, for tests and single-run demos
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	failOn map[string]error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]string),
		failOn: make(map[string]error),
	}
}

// FailWith makes every operation on key return err until cleared with a nil err
func (m *MemoryStore) FailWith(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOn, key)
		return
	}
	m.failOn[key] = err
}

// Get returns the value stored under key
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failOn[key]; err != nil {
		return "", false, err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[key]; err != nil {
		return err
	}
	m.data[key] = value
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[key]; err != nil {
		return err
	}
	delete(m.data, key)
	return nil
}
