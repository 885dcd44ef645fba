// Package schema describes which attributes and relationships a resource
// type exposes, and holds the registry the document engine resolves
// resource types from.
package schema

import (
	"context"

	"github.com/conduit-lang/compound/internal/orm/store"
)

// DefaultPrimaryKey is the primary key attribute used when a schema does not name one
const DefaultPrimaryKey = "id"

// AccessContext is handed to named accessors while an entity is serialized
type AccessContext struct {
	Context context.Context
	// BaseURL is the scheme and host of the current request, if any
	BaseURL string
	// Values carries caller supplied request data (current user, filters...)
	Values map[string]interface{}
}

// Value returns a caller supplied request value
func (c *AccessContext) Value(key string) (interface{}, bool) {
	if c == nil || c.Values == nil {
		return nil, false
	}
	v, ok := c.Values[key]
	return v, ok
}

// AccessorFunc computes the related entities (or ids) of a relationship
// for one entity. It may return nil, a single store.Record, an id, or a
// slice of either.
type AccessorFunc func(entity store.Record, ac *AccessContext) (interface{}, error)

// ResourceSchema represents the serialized shape of one resource type
type ResourceSchema struct {
	// Type is the resource type name ("posts", "people")
	Type string
	// PrimaryKey names the entity attribute emitted as "id"
	PrimaryKey string
	// Attributes lists the emitted attributes in output order
	Attributes []string
	// Links maps relationship names to their fields
	Links map[string]*RelationshipField
	// LinkOrder keeps relationship names in declaration order
	LinkOrder []string
	// Accessors holds the functions NamedAccessor relationships refer to
	Accessors map[string]AccessorFunc

	// Collection is the store collection primary entities are loaded from
	Collection string
	// Route names the detail route used for href templates
	Route string
	// RouteParams are extra route parameters needed to reverse Route
	RouteParams map[string]string
}

// NewResourceSchema creates a new ResourceSchema
func NewResourceSchema(typ string) *ResourceSchema {
	return &ResourceSchema{
		Type:        typ,
		PrimaryKey:  DefaultPrimaryKey,
		Attributes:  make([]string, 0),
		Links:       make(map[string]*RelationshipField),
		LinkOrder:   make([]string, 0),
		Accessors:   make(map[string]AccessorFunc),
		Collection:  typ,
		Route:       DetailRouteName(typ),
		RouteParams: make(map[string]string),
	}
}

// DetailRouteName returns the conventional detail route name for a resource type
func DetailRouteName(typ string) string {
	return typ + "-detail"
}

// WithPrimaryKey sets the attribute emitted as "id"
func (r *ResourceSchema) WithPrimaryKey(key string) *ResourceSchema {
	r.PrimaryKey = key
	return r
}

// WithAttributes appends attributes in output order. The primary key is
// always emitted and need not be listed.
func (r *ResourceSchema) WithAttributes(names ...string) *ResourceSchema {
	for _, name := range names {
		if name == "id" || r.HasAttribute(name) {
			continue
		}
		r.Attributes = append(r.Attributes, name)
	}
	return r
}

// WithLink declares a relationship. Redeclaring a name replaces the field
// but keeps its original position.
func (r *ResourceSchema) WithLink(name string, field *RelationshipField) *ResourceSchema {
	field.Name = name
	if _, exists := r.Links[name]; !exists {
		r.LinkOrder = append(r.LinkOrder, name)
	}
	r.Links[name] = field
	return r
}

// WithAccessor registers a named accessor
func (r *ResourceSchema) WithAccessor(name string, fn AccessorFunc) *ResourceSchema {
	r.Accessors[name] = fn
	return r
}

// WithCollection sets the store collection primary entities are loaded from
func (r *ResourceSchema) WithCollection(collection string) *ResourceSchema {
	r.Collection = collection
	return r
}

// WithRoute sets the detail route name and extra parameters used to reverse it
func (r *ResourceSchema) WithRoute(name string, params map[string]string) *ResourceSchema {
	r.Route = name
	for k, v := range params {
		r.RouteParams[k] = v
	}
	return r
}

// HasAttribute returns true if the resource declares the attribute
func (r *ResourceSchema) HasAttribute(name string) bool {
	for _, attr := range r.Attributes {
		if attr == name {
			return true
		}
	}
	return false
}

// HasLink returns true if the resource declares the relationship
func (r *ResourceSchema) HasLink(name string) bool {
	_, exists := r.Links[name]
	return exists
}

// Link returns a relationship field by name
func (r *ResourceSchema) Link(name string) (*RelationshipField, bool) {
	field, ok := r.Links[name]
	return field, ok
}

// OrderedLinks returns relationship fields in declaration order
func (r *ResourceSchema) OrderedLinks() []*RelationshipField {
	fields := make([]*RelationshipField, 0, len(r.LinkOrder))
	for _, name := range r.LinkOrder {
		fields = append(fields, r.Links[name])
	}
	return fields
}

// PrimaryKeyName returns the primary key attribute, defaulting to "id"
func (r *ResourceSchema) PrimaryKeyName() string {
	if r.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return r.PrimaryKey
}
