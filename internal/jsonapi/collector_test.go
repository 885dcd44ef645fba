package jsonapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/compound/internal/orm/store"
)

func TestCollector_Collect(t *testing.T) {
	c := NewCollector()
	assert.True(t, c.Empty())

	c.Collect([]string{"9"}, "author", "people")
	c.Collect([]string{"10", "9"}, "editor", "people")
	c.Collect([]string{"go"}, "tags", "tags")
	c.Collect(nil, "comments", "comments")

	assert.False(t, c.Empty())
	assert.Equal(t, []string{"10", "9"}, c.IDsByType("people"))
	assert.Equal(t, []string{"9"}, c.IDsByName("author"))
	assert.Equal(t, []string{"author", "editor", "tags"}, c.Names())
	assert.Equal(t, []string{"people", "tags"}, c.Types())
	assert.Empty(t, c.IDsByType("comments"))

	// collecting is idempotent
	c.Collect([]string{"9"}, "author", "people")
	assert.Equal(t, []string{"9"}, c.IDsByName("author"))

	c.Reset()
	assert.True(t, c.Empty())
}

func TestCache_Resolve(t *testing.T) {
	cache := NewCache()
	cache.Put("people", "9", store.Record{"id": "9"})

	var fetched [][]string
	fetch := func(ctx context.Context, ids []string) ([]store.Record, error) {
		fetched = append(fetched, ids)
		var out []store.Record
		for _, id := range ids {
			if id != "404" {
				out = append(out, store.Record{"id": id})
			}
		}
		return out, nil
	}
	idOf := func(r store.Record) string { return r.ID("id") }

	got, err := cache.Resolve(context.Background(), "people", []string{"10", "404", "9"}, fetch, idOf)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "9"}, PluckIDs(got, "id"))
	assert.Equal(t, [][]string{{"10", "404"}}, fetched)

	// hits and known misses never reach the store again
	got, err = cache.Resolve(context.Background(), "people", []string{"9", "10", "404"}, fetch, idOf)
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "10"}, PluckIDs(got, "id"))
	assert.Len(t, fetched, 1)
	assert.Equal(t, 1, cache.Fetches())
	assert.Equal(t, 2, cache.Len("people"))
}

func TestCache_ResolveWithoutFetch(t *testing.T) {
	cache := NewCache()
	cache.Put("tags", "go", store.Record{"name": "go"})

	got, err := cache.Resolve(context.Background(), "tags", []string{"db", "go"}, nil, func(r store.Record) string {
		return r.ID("name")
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 0, cache.Fetches())
	assert.Empty(t, cache.Residual("tags", []string{"db", "go"}))
}

func TestCache_ResolveError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewCache().Resolve(context.Background(), "people", []string{"1"},
		func(ctx context.Context, ids []string) ([]store.Record, error) { return nil, boom },
		func(r store.Record) string { return r.ID("id") })
	assert.ErrorIs(t, err, boom)
}

func TestScope_Child(t *testing.T) {
	scope := NewScope()
	scope.Collector().Collect([]string{"1"}, "author", "people")
	scope.Cache().Put("people", "1", store.Record{"id": 1})

	child := scope.child()
	assert.True(t, child.Collector().Empty())
	_, ok := child.Cache().Lookup("people", "1")
	assert.True(t, ok)

	scope.Close()
	assert.Nil(t, scope.Collector())
	assert.Nil(t, scope.Cache())
}
