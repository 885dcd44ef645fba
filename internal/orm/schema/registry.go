package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds every resource schema of the application. Schemas are
// registered during initialization; after Freeze the registry is read-only.
type Registry struct {
	schemas   map[string]*ResourceSchema
	validator *SchemaValidator
	frozen    bool
	mu        sync.RWMutex
}

// NewRegistry creates a new schema registry
func NewRegistry() *Registry {
	return &Registry{
		schemas:   make(map[string]*ResourceSchema),
		validator: NewSchemaValidator(),
	}
}

// Register registers a schema under its type name
func (r *Registry) Register(schema *ResourceSchema) error {
	if schema == nil {
		return &ValidationError{Message: "schema is nil"}
	}
	return r.RegisterAs(schema.Type, schema)
}

// RegisterAs registers a schema under an explicit name, which lets one
// schema back several resource names
func (r *Registry) RegisterAs(name string, schema *ResourceSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("cannot register %s: %w", name, ErrRegistryFrozen)
	}

	if _, exists := r.schemas[name]; exists {
		return fmt.Errorf("resource %s is already registered", name)
	}

	// Relationship targets are checked in ValidateAll to allow forward references
	if err := r.validator.ValidateStructural(schema); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", name, err)
	}

	r.schemas[name] = schema
	return nil
}

// MustRegister registers schemas and panics on the first failure
func (r *Registry) MustRegister(schemas ...*ResourceSchema) *Registry {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Get retrieves a resource schema by name
func (r *Registry) Get(name string) (*ResourceSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	return schema, nil
}

// MustGet retrieves a resource schema by name and panics if it is missing
func (r *Registry) MustGet(name string) *ResourceSchema {
	schema, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return schema
}

// Exists checks if a resource schema exists
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[name]
	return exists
}

// List returns all registered names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered schemas
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.schemas)
}

// IDAttribute returns the attribute identifying entities on the far side of field
func (r *Registry) IDAttribute(field *RelationshipField) string {
	if field.IDAttribute != "" {
		return field.IDAttribute
	}
	if target, err := r.Get(field.GetRelationType()); err == nil {
		return target.PrimaryKeyName()
	}
	return DefaultPrimaryKey
}

// ValidateAll checks every relationship target and accessor across all schemas
func (r *Registry) ValidateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return NewRelationshipValidator(r.schemas).Validate()
}

// Freeze validates the registry and rejects any further registration
func (r *Registry) Freeze() error {
	if err := r.ValidateAll(); err != nil {
		return fmt.Errorf("relationship validation failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	return nil
}

// Frozen reports whether Freeze has been called
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// RegistryStats summarizes the registry
type RegistryStats struct {
	TotalResources     int
	TotalAttributes    int
	TotalRelationships int
	ToManyRelations    int
	UnboundRelations   int
}

// GetStats returns statistics about the registry
func (r *Registry) GetStats() *RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &RegistryStats{TotalResources: len(r.schemas)}
	for _, schema := range r.schemas {
		stats.TotalAttributes += len(schema.Attributes)
		stats.TotalRelationships += len(schema.Links)
		for _, field := range schema.Links {
			if field.Kind == ToMany {
				stats.ToManyRelations++
			}
			if !field.CanResolve() {
				stats.UnboundRelations++
			}
		}
	}
	return stats
}
