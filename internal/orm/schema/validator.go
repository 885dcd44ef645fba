package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a schema validation error with context
type ValidationError struct {
	Resource string
	Field    string
	Message  string
	Hint     string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Resource != "" {
		b.WriteString(e.Resource)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// SchemaValidator validates a single schema in isolation
type SchemaValidator struct{}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// ValidateStructural validates a schema without cross-resource checks.
// This is used during registration to allow forward references.
func (v *SchemaValidator) ValidateStructural(schema *ResourceSchema) error {
	if schema == nil {
		return &ValidationError{Message: "schema is nil"}
	}

	if schema.Type == "" {
		return &ValidationError{Message: "resource type is required"}
	}

	if strings.Contains(schema.Type, ".") {
		return &ValidationError{
			Resource: schema.Type,
			Message:  "resource type must not contain '.'",
			Hint:     "dots separate relationship names in link paths",
		}
	}

	seen := make(map[string]bool, len(schema.Attributes))
	for _, attr := range schema.Attributes {
		if seen[attr] {
			return &ValidationError{Resource: schema.Type, Field: attr, Message: "duplicate attribute"}
		}
		seen[attr] = true
	}

	if len(schema.LinkOrder) != len(schema.Links) {
		return &ValidationError{
			Resource: schema.Type,
			Message:  "links and link order disagree",
			Hint:     "declare relationships with WithLink",
		}
	}

	for _, name := range schema.LinkOrder {
		field, ok := schema.Links[name]
		if !ok || field == nil {
			return &ValidationError{Resource: schema.Type, Field: name, Message: "relationship is not declared"}
		}
		if strings.Contains(name, ".") {
			return &ValidationError{Resource: schema.Type, Field: name, Message: "relationship name must not contain '.'"}
		}
		if name == "links" || name == "id" {
			return &ValidationError{Resource: schema.Type, Field: name, Message: "relationship name is reserved"}
		}
		if field.Strategy == NamedAccessor && field.Accessor == "" {
			return &ValidationError{
				Resource: schema.Type,
				Field:    name,
				Message:  "accessor relationship has no accessor name",
			}
		}
	}

	return nil
}

// RelationshipValidator validates relationships across all schemas
type RelationshipValidator struct {
	schemas map[string]*ResourceSchema
}

// NewRelationshipValidator creates a validator over a set of schemas
func NewRelationshipValidator(schemas map[string]*ResourceSchema) *RelationshipValidator {
	return &RelationshipValidator{schemas: schemas}
}

// Validate checks that every relationship targets a registered resource and
// every accessor relationship names a defined accessor
func (v *RelationshipValidator) Validate() error {
	var errs []string

	names := make([]string, 0, len(v.schemas))
	for name := range v.schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		schema := v.schemas[name]
		for _, field := range schema.OrderedLinks() {
			target := field.GetRelationType()
			if _, ok := v.schemas[target]; !ok {
				errs = append(errs, (&ValidationError{
					Resource: name,
					Field:    field.Name,
					Message:  fmt.Sprintf("relationship targets unregistered resource %q", target),
				}).Error())
			}
			if field.Strategy == NamedAccessor {
				if _, ok := schema.Accessors[field.Accessor]; !ok {
					errs = append(errs, (&ValidationError{
						Resource: name,
						Field:    field.Name,
						Message:  fmt.Sprintf("accessor %q is not defined", field.Accessor),
					}).Error())
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n%s", ErrMisconfiguredRelation, strings.Join(errs, "\n"))
	}
	return nil
}
