package state

import (
	"context"
	"sync"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	loadErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}}
}

func (m *memStore) Name() string { return "memory" }

func (m *memStore) Load(_ context.Context, handle string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, ok := m.blobs[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *memStore) Save(_ context.Context, handle string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.blobs[handle] = append([]byte(nil), data...)
	return nil
}
