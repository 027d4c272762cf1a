package storage

import (
	"context"
	"errors"
	"sync"
)

// MemoryCoverStore is the development fallback when no S3 endpoint is
// configured. Covers do not survive a restart.
type MemoryCoverStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	cts   map[string]string
}

func NewMemoryCoverStore() *MemoryCoverStore {
	return &MemoryCoverStore{
		blobs: map[string][]byte{},
		cts:   map[string]string{},
	}
}

func (m *MemoryCoverStore) Save(_ context.Context, bookID string, data []byte, contentType string) (string, error) {
	key := "covers/" + bookID
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.blobs[key] = cp
	m.cts[key] = contentType
	m.mu.Unlock()
	return key, nil
}

func (m *MemoryCoverStore) Read(_ context.Context, handle string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[handle]
	if !ok {
		return nil, "", errors.New("no such object: " + handle)
	}
	return data, m.cts[handle], nil
}
