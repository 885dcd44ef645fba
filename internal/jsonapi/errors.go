package jsonapi

import (
	"errors"

	"github.com/conduit-lang/compound/internal/orm/schema"
	"github.com/conduit-lang/compound/internal/orm/store"
)

var (
	// ErrUnknownSchema is returned when a resource type is not registered
	ErrUnknownSchema = schema.ErrUnknownSchema

	// ErrMisconfiguredRelation is returned when compound resolution needs a
	// relationship that has neither a store binding nor prefetched entities
	ErrMisconfiguredRelation = schema.ErrMisconfiguredRelation

	// ErrUnresolvableRelation is returned when a link path names a
	// relationship the current schema does not declare
	ErrUnresolvableRelation = errors.New("unresolvable relation")

	// ErrNotFound is returned when a requested single entity does not exist
	ErrNotFound = store.ErrNotFound

	// ErrInvalidData is returned when the data handed to the serializer is
	// neither an entity nor a collection of entities
	ErrInvalidData = errors.New("invalid data")
)

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnknownSchema returns true if the error is ErrUnknownSchema
func IsUnknownSchema(err error) bool {
	return errors.Is(err, ErrUnknownSchema)
}

// IsMisconfigured returns true if the error is ErrMisconfiguredRelation
func IsMisconfigured(err error) bool {
	return errors.Is(err, ErrMisconfiguredRelation)
}

// IsUnresolvable returns true if the error is ErrUnresolvableRelation
func IsUnresolvable(err error) bool {
	return errors.Is(err, ErrUnresolvableRelation)
}
