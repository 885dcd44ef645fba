package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps collections of records in memory. It is safe for
// concurrent use; records handed to Add must not be mutated afterwards.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]Record),
	}
}

// Add appends records to a collection, creating it if necessary
func (m *MemoryStore) Add(collection string, records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.collections[collection] = append(m.collections[collection], records...)
}

// Collections returns the number of collections held by the store
func (m *MemoryStore) Collections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections)
}

// Get returns the first record in collection whose key equals id
func (m *MemoryStore) Get(ctx context.Context, collection, key, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := m.collection(collection)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if record.ID(key) == id {
			return record, nil
		}
	}

	return nil, fmt.Errorf("%s %s=%s: %w", collection, key, id, ErrNotFound)
}

// Filter returns the records whose key is one of ids, in insertion order
func (m *MemoryStore) Filter(ctx context.Context, collection, key string, ids []string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := m.collection(collection)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	result := make([]Record, 0, len(ids))
	for _, record := range records {
		if wanted[record.ID(key)] {
			result = append(result, record)
		}
	}

	return result, nil
}

// All returns every record in collection
func (m *MemoryStore) All(ctx context.Context, collection string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := m.collection(collection)
	if err != nil {
		return nil, err
	}

	result := make([]Record, len(records))
	copy(result, records)
	return result, nil
}

func (m *MemoryStore) collection(name string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return records, nil
}
