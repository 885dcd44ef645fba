package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMemoryStore() *MemoryStore {
	m := NewMemoryStore()
	m.Add("people",
		Record{"id": 9, "name": "Ada"},
		Record{"id": 10, "name": "Grace"},
	)
	m.Add("tags",
		Record{"id": 1, "name": "go"},
		Record{"id": 2, "name": "json"},
	)
	return m
}

func TestMemoryStore_Get(t *testing.T) {
	m := setupMemoryStore()

	record, err := m.Get(context.Background(), "people", "id", "9")
	require.NoError(t, err)
	assert.Equal(t, "Ada", record["name"])

	record, err = m.Get(context.Background(), "tags", "name", "json")
	require.NoError(t, err)
	assert.Equal(t, 2, record["id"])
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	m := setupMemoryStore()

	_, err := m.Get(context.Background(), "people", "id", "404")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestMemoryStore_UnknownCollection(t *testing.T) {
	m := setupMemoryStore()

	_, err := m.Filter(context.Background(), "nope", "id", []string{"1"})
	assert.ErrorIs(t, err, ErrUnknownCollection)

	_, err = m.All(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestMemoryStore_Filter(t *testing.T) {
	m := setupMemoryStore()

	records, err := m.Filter(context.Background(), "people", "id", []string{"10", "9", "77"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Insertion order, not request order
	assert.Equal(t, "Ada", records[0]["name"])
	assert.Equal(t, "Grace", records[1]["name"])
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	m := setupMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Get(ctx, "people", "id", "9")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_All(t *testing.T) {
	m := setupMemoryStore()

	records, err := m.All(context.Background(), "tags")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, m.Collections())
}

func TestRecord_ID(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		key      string
		expected string
	}{
		{"int", Record{"id": 7}, "id", "7"},
		{"int64", Record{"id": int64(8)}, "id", "8"},
		{"string", Record{"slug": "go"}, "slug", "go"},
		{"missing", Record{}, "id", ""},
		{"nil", Record{"id": nil}, "id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.ID(tt.key))
		})
	}
}
