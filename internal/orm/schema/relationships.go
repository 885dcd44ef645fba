package schema

import (
	"fmt"
	"reflect"

	"github.com/spf13/cast"

	"github.com/conduit-lang/compound/internal/orm/store"
)

// RelationKind distinguishes to-one from to-many relationships
type RelationKind int

const (
	// ToOne relationships reference at most one entity
	ToOne RelationKind = iota
	// ToMany relationships reference an ordered list of entities
	ToMany
)

// String returns the string representation of the relation kind
func (k RelationKind) String() string {
	switch k {
	case ToOne:
		return "to_one"
	case ToMany:
		return "to_many"
	default:
		return "unknown"
	}
}

// ParseRelationKind converts a string to a RelationKind
func ParseRelationKind(s string) (RelationKind, error) {
	switch s {
	case "to_one", "to-one", "one":
		return ToOne, nil
	case "to_many", "to-many", "many":
		return ToMany, nil
	default:
		return 0, fmt.Errorf("unknown relation kind: %s", s)
	}
}

// Strategy selects how related entities are read from the owning entity
type Strategy int

const (
	// DirectAttribute reads the relation from an attribute of the entity
	DirectAttribute Strategy = iota
	// NamedAccessor calls an accessor registered on the owning schema
	NamedAccessor
	// PrefetchedCollection reads already loaded entities from an attribute;
	// compound resolution reuses them instead of querying the store
	PrefetchedCollection
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case DirectAttribute:
		return "attribute"
	case NamedAccessor:
		return "accessor"
	case PrefetchedCollection:
		return "prefetched"
	default:
		return "unknown"
	}
}

// RelationshipField describes one relationship a resource exposes under "links"
type RelationshipField struct {
	// Name is the relationship name; set by ResourceSchema.WithLink
	Name string
	Kind RelationKind
	// RelationType is the related resource type; defaults to Name
	RelationType string
	// IDAttribute is the related entity attribute used as its id; defaults
	// to the related schema's primary key
	IDAttribute string
	// Attribute is the owning entity attribute holding the relation; defaults to Name
	Attribute string
	Strategy  Strategy
	// Accessor names the ResourceSchema accessor used by NamedAccessor
	Accessor string
	// Model is the store collection related entities are fetched from.
	// Empty means the relation is not bound to the store.
	Model string
	// DisableCache bypasses the request cache when resolving this relation
	DisableCache bool
}

// ToOneField creates a to-one relationship to relType
func ToOneField(relType string) *RelationshipField {
	return &RelationshipField{Kind: ToOne, RelationType: relType}
}

// ToManyField creates a to-many relationship to relType
func ToManyField(relType string) *RelationshipField {
	return &RelationshipField{Kind: ToMany, RelationType: relType}
}

// WithModel binds the relationship to a store collection
func (f *RelationshipField) WithModel(collection string) *RelationshipField {
	f.Model = collection
	return f
}

// WithIDAttribute sets the related attribute used as id
func (f *RelationshipField) WithIDAttribute(attr string) *RelationshipField {
	f.IDAttribute = attr
	return f
}

// FromAttribute reads the relation from attr instead of the field name
func (f *RelationshipField) FromAttribute(attr string) *RelationshipField {
	f.Attribute = attr
	return f
}

// ViaAccessor reads the relation through a named accessor
func (f *RelationshipField) ViaAccessor(name string) *RelationshipField {
	f.Strategy = NamedAccessor
	f.Accessor = name
	return f
}

// Prefetched marks the relation attribute as holding loaded entities
func (f *RelationshipField) Prefetched() *RelationshipField {
	f.Strategy = PrefetchedCollection
	return f
}

// WithoutCache bypasses the request cache for this relation
func (f *RelationshipField) WithoutCache() *RelationshipField {
	f.DisableCache = true
	return f
}

// GetRelationType returns the related resource type
func (f *RelationshipField) GetRelationType() string {
	if f.RelationType == "" {
		return f.Name
	}
	return f.RelationType
}

// SourceAttribute returns the owning entity attribute holding the relation
func (f *RelationshipField) SourceAttribute() string {
	if f.Attribute == "" {
		return f.Name
	}
	return f.Attribute
}

// IsBound reports whether related entities can be fetched from the store
func (f *RelationshipField) IsBound() bool {
	return f.Model != ""
}

// CanResolve reports whether compound documents can side-load this relation
func (f *RelationshipField) CanResolve() bool {
	return f.IsBound() || f.Strategy == PrefetchedCollection
}

// Related is the result of extracting a relationship from one entity
type Related struct {
	// IDs are the stringified ids, in relation order
	IDs []string
	// Entities are the related entities when the relation held records
	// rather than bare ids
	Entities []store.Record
}

// Empty reports whether no related id was found
func (r Related) Empty() bool {
	return len(r.IDs) == 0
}

// Extract reads the related ids of entity. idAttr is the attribute used as
// id on related entities.
func (f *RelationshipField) Extract(owner *ResourceSchema, entity store.Record, idAttr string, ac *AccessContext) (Related, error) {
	raw, err := f.related(owner, entity, ac)
	if err != nil {
		return Related{}, err
	}

	switch f.Kind {
	case ToOne:
		return f.extractOne(raw, idAttr)
	case ToMany:
		return f.extractMany(raw, idAttr)
	default:
		return Related{}, fmt.Errorf("%w: relationship %s has unknown kind %d", ErrMisconfiguredRelation, f.Name, f.Kind)
	}
}

func (f *RelationshipField) related(owner *ResourceSchema, entity store.Record, ac *AccessContext) (interface{}, error) {
	if f.Strategy == NamedAccessor {
		fn, ok := owner.Accessors[f.Accessor]
		if !ok {
			return nil, fmt.Errorf("%w: accessor %q of relationship %s is not defined on %s",
				ErrMisconfiguredRelation, f.Accessor, f.Name, owner.Type)
		}
		return fn(entity, ac)
	}

	value := entity[f.SourceAttribute()]
	if fn, ok := value.(func() interface{}); ok {
		value = fn()
	}
	return value, nil
}

func (f *RelationshipField) extractOne(raw interface{}, idAttr string) (Related, error) {
	if isNil(raw) {
		return Related{}, nil
	}

	if isSlice(raw) {
		return Related{}, fmt.Errorf("%w: to-one relationship %s yielded a collection", ErrMisconfiguredRelation, f.Name)
	}

	id, entity, err := element(raw, idAttr)
	if err != nil {
		return Related{}, fmt.Errorf("relationship %s: %w", f.Name, err)
	}
	if id == "" {
		return Related{}, nil
	}

	related := Related{IDs: []string{id}}
	if entity != nil {
		related.Entities = []store.Record{entity}
	}
	return related, nil
}

func (f *RelationshipField) extractMany(raw interface{}, idAttr string) (Related, error) {
	if isNil(raw) {
		return Related{}, nil
	}

	var items []interface{}
	switch v := raw.(type) {
	case []store.Record:
		items = make([]interface{}, len(v))
		for i, r := range v {
			items[i] = r
		}
	case []map[string]interface{}:
		items = make([]interface{}, len(v))
		for i, r := range v {
			items[i] = store.Record(r)
		}
	case []interface{}:
		items = v
	case []string:
		items = make([]interface{}, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return Related{}, fmt.Errorf("%w: to-many relationship %s yielded %T", ErrMisconfiguredRelation, f.Name, raw)
		}
		items = make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	var related Related
	for _, item := range items {
		if isNil(item) {
			continue
		}
		id, entity, err := element(item, idAttr)
		if err != nil {
			return Related{}, fmt.Errorf("relationship %s: %w", f.Name, err)
		}
		if id == "" {
			continue
		}
		related.IDs = append(related.IDs, id)
		if entity != nil {
			related.Entities = append(related.Entities, entity)
		}
	}

	return related, nil
}

// element returns the id of a related value, which is either an entity or a bare id
func element(v interface{}, idAttr string) (string, store.Record, error) {
	switch e := v.(type) {
	case store.Record:
		return e.ID(idAttr), e, nil
	case map[string]interface{}:
		r := store.Record(e)
		return r.ID(idAttr), r, nil
	}

	id, err := cast.ToStringE(v)
	if err != nil {
		return "", nil, fmt.Errorf("%w: cannot use %T as an id", ErrMisconfiguredRelation, v)
	}
	return id, nil, nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func isSlice(v interface{}) bool {
	kind := reflect.ValueOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}
