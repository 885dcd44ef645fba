package jsonapi

import (
	"context"

	"github.com/conduit-lang/compound/internal/orm/store"
)

// FetchFunc loads the entities for ids of one relation type
type FetchFunc func(ctx context.Context, ids []string) ([]store.Record, error)

// Cache holds the entities resolved while assembling one document, keyed by
// relation type and id. Ids a fetch did not return are remembered as missing
// so they are never requested twice.
type Cache struct {
	entries map[string]map[string]store.Record
	missing map[string]map[string]struct{}
	fetches int
}

// NewCache creates an empty request cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]map[string]store.Record),
		missing: make(map[string]map[string]struct{}),
	}
}

// Put stores an entity for a relation type
func (c *Cache) Put(relationType, id string, entity store.Record) {
	entries, ok := c.entries[relationType]
	if !ok {
		entries = make(map[string]store.Record)
		c.entries[relationType] = entries
	}
	entries[id] = entity
	delete(c.missing[relationType], id)
}

// Lookup returns a cached entity
func (c *Cache) Lookup(relationType, id string) (store.Record, bool) {
	entity, ok := c.entries[relationType][id]
	return entity, ok
}

// Len returns the number of cached entities of a relation type
func (c *Cache) Len(relationType string) int {
	return len(c.entries[relationType])
}

// Fetches returns how many times Resolve had to call its fetch function
func (c *Cache) Fetches() int {
	return c.fetches
}

// Residual returns the ids neither cached nor known to be missing
func (c *Cache) Residual(relationType string, ids []string) []string {
	var residual []string
	for _, id := range ids {
		if _, ok := c.entries[relationType][id]; ok {
			continue
		}
		if _, ok := c.missing[relationType][id]; ok {
			continue
		}
		residual = append(residual, id)
	}
	return residual
}

// Resolve returns the entities for ids, fetching only the ids not already
// cached. fetch may be nil, in which case uncached ids are treated as
// missing. idOf extracts the id of a fetched entity. The result follows
// the order of ids and skips missing ones.
func (c *Cache) Resolve(ctx context.Context, relationType string, ids []string, fetch FetchFunc, idOf func(store.Record) string) ([]store.Record, error) {
	residual := c.Residual(relationType, ids)

	if len(residual) > 0 && fetch != nil {
		c.fetches++
		entities, err := fetch(ctx, residual)
		if err != nil {
			return nil, err
		}
		for _, entity := range entities {
			if id := idOf(entity); id != "" {
				c.Put(relationType, id, entity)
			}
		}
	}

	for _, id := range residual {
		if _, ok := c.entries[relationType][id]; ok {
			continue
		}
		missing, ok := c.missing[relationType]
		if !ok {
			missing = make(map[string]struct{})
			c.missing[relationType] = missing
		}
		missing[id] = struct{}{}
	}

	result := make([]store.Record, 0, len(ids))
	for _, id := range ids {
		if entity, ok := c.entries[relationType][id]; ok {
			result = append(result, entity)
		}
	}
	return result, nil
}
