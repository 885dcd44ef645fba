package jsonapi

import (
	"fmt"

	"github.com/conduit-lang/compound/internal/orm/schema"
	"github.com/conduit-lang/compound/internal/orm/store"
)

// Serializer turns entities into ordered objects according to their schema
// and records every related id it emits into the scope's collector.
type Serializer struct {
	registry *schema.Registry
}

// NewSerializer creates a serializer resolving schemas from registry
func NewSerializer(registry *schema.Registry) *Serializer {
	return &Serializer{registry: registry}
}

// Serialize serializes data with the schema registered as name. With many
// set, data must be a collection and the result is []*Object in input
// order; otherwise data must be a single entity and the result is *Object.
// only restricts the emitted attributes and relationships; nil or empty
// means everything.
func (s *Serializer) Serialize(scope *Scope, name string, data interface{}, many bool, only []string, ac *schema.AccessContext) (interface{}, error) {
	rs, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if scope == nil {
		scope = NewScope()
		defer scope.Close()
	}

	sel := newSelection(rs, only)

	if !many {
		entity, err := asRecord(data)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}
		return s.serializeOne(scope, rs, entity, sel, ac)
	}

	entities, err := asRecords(data)
	if err != nil {
		return nil, fmt.Errorf("serializing %s: %w", name, err)
	}

	result := make([]*Object, 0, len(entities))
	for _, entity := range entities {
		obj, err := s.serializeOne(scope, rs, entity, sel, ac)
		if err != nil {
			return nil, err
		}
		result = append(result, obj)
	}
	return result, nil
}

func (s *Serializer) serializeOne(scope *Scope, rs *schema.ResourceSchema, entity store.Record, sel selection, ac *schema.AccessContext) (*Object, error) {
	obj := NewObject()
	obj.Set("id", entity.ID(rs.PrimaryKeyName()))

	for _, attr := range sel.attributes {
		obj.Set(attr, formatValue(entity[attr]))
	}

	if len(sel.links) == 0 {
		return obj, nil
	}

	links := NewObject()
	for _, field := range sel.links {
		idAttr := s.registry.IDAttribute(field)

		related, err := field.Extract(rs, entity, idAttr, ac)
		if err != nil {
			return nil, fmt.Errorf("serializing %s.%s: %w", rs.Type, field.Name, err)
		}

		relType := field.GetRelationType()
		scope.collector.Collect(related.IDs, field.Name, relType)

		if field.Strategy == schema.PrefetchedCollection {
			for _, e := range related.Entities {
				if id := e.ID(idAttr); id != "" {
					scope.cache.Put(relType, id, e)
				}
			}
		}

		links.Set(field.Name, linkValue(field, related))
	}
	obj.Set("links", links)

	return obj, nil
}

// linkValue is the "links" entry of a relationship: an id or null for
// to-one, an id array or null for to-many
func linkValue(field *schema.RelationshipField, related schema.Related) interface{} {
	if related.Empty() {
		return nil
	}
	if field.Kind == schema.ToOne {
		return related.IDs[0]
	}
	return related.IDs
}

// selection is the set of attributes and relationships one serialization emits
type selection struct {
	attributes []string
	links      []*schema.RelationshipField
}

// newSelection intersects only with the schema's declarations. Names the
// schema does not declare are dropped. A relationship is kept when only names
// it or names "links".
func newSelection(rs *schema.ResourceSchema, only []string) selection {
	if len(only) == 0 {
		return selection{attributes: rs.Attributes, links: rs.OrderedLinks()}
	}

	requested := make(map[string]bool, len(only))
	for _, name := range only {
		requested[name] = true
	}

	var sel selection
	for _, attr := range rs.Attributes {
		if requested[attr] {
			sel.attributes = append(sel.attributes, attr)
		}
	}
	for _, field := range rs.OrderedLinks() {
		if requested["links"] || requested[field.Name] {
			sel.links = append(sel.links, field)
		}
	}
	return sel
}

// FilterFields returns the names of only that rs declares, in declaration
// order. The result never contains undeclared names.
func FilterFields(rs *schema.ResourceSchema, only []string) []string {
	sel := newSelection(rs, only)
	names := make([]string, 0, len(sel.attributes)+len(sel.links))
	names = append(names, sel.attributes...)
	for _, field := range sel.links {
		names = append(names, field.Name)
	}
	return names
}

func asRecord(data interface{}) (store.Record, error) {
	switch v := data.(type) {
	case nil:
		return nil, ErrNotFound
	case store.Record:
		if v == nil {
			return nil, ErrNotFound
		}
		return v, nil
	case map[string]interface{}:
		if v == nil {
			return nil, ErrNotFound
		}
		return store.Record(v), nil
	case *store.Record:
		if v == nil || *v == nil {
			return nil, ErrNotFound
		}
		return *v, nil
	default:
		return nil, fmt.Errorf("%w: %T is not an entity", ErrInvalidData, data)
	}
}

func asRecords(data interface{}) ([]store.Record, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case []store.Record:
		return v, nil
	case []map[string]interface{}:
		records := make([]store.Record, len(v))
		for i, m := range v {
			records[i] = store.Record(m)
		}
		return records, nil
	case []interface{}:
		records := make([]store.Record, 0, len(v))
		for i, item := range v {
			r, err := asRecord(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			records = append(records, r)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a collection", ErrInvalidData, data)
	}
}
