// Package store defines the entity store the document engine reads related
// resources from, together with memory, SQL and redis-backed implementations.
package store

import (
	"context"

	"github.com/spf13/cast"
)

// TimestampFormat is the wire format of time values
const TimestampFormat = "2006-01-02T15:04:05Z"

// Record is a single entity as loaded from a store. Keys are attribute or
// column names.
type Record map[string]interface{}

// Value returns the value stored under name
func (r Record) Value(name string) (interface{}, bool) {
	v, ok := r[name]
	return v, ok
}

// ID returns the stringified value of the key attribute, or "" when the
// attribute is absent or nil.
func (r Record) ID(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// Store is the capability the engine uses to resolve entities by identifier.
//
// Get returns ErrNotFound when no record in collection has key == id.
// Filter returns every record in collection whose key is one of ids; the
// order of the result is not guaranteed to match ids and missing ids are
// simply absent.
type Store interface {
	Get(ctx context.Context, collection, key, id string) (Record, error)
	Filter(ctx context.Context, collection, key string, ids []string) ([]Record, error)
}

// Lister is implemented by stores that can enumerate a whole collection
type Lister interface {
	All(ctx context.Context, collection string) ([]Record, error)
}
