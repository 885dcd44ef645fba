package schema

import "errors"

var (
	// ErrUnknownSchema is returned when a resource type is not registered
	ErrUnknownSchema = errors.New("unknown schema")

	// ErrMisconfiguredRelation is returned when a relationship cannot be
	// extracted or resolved the way it is declared
	ErrMisconfiguredRelation = errors.New("misconfigured relation")

	// ErrRegistryFrozen is returned when registering after Freeze
	ErrRegistryFrozen = errors.New("registry is frozen")
)

// IsUnknownSchema returns true if the error is ErrUnknownSchema
func IsUnknownSchema(err error) bool {
	return errors.Is(err, ErrUnknownSchema)
}

// IsMisconfigured returns true if the error is ErrMisconfiguredRelation
func IsMisconfigured(err error) bool {
	return errors.Is(err, ErrMisconfiguredRelation)
}
