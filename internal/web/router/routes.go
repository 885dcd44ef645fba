package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRouteNotFound is returned when no route carries the requested name
	ErrRouteNotFound = errors.New("route not found")

	// ErrMissingParameter is returned when reversing a route without all its parameters
	ErrMissingParameter = errors.New("missing route parameter")
)

// DefaultIDParam is the detail route parameter holding comma-separated ids
const DefaultIDParam = "pks"

// ResourceDefinition represents a resource that can be registered with the router
type ResourceDefinition struct {
	Name        string      // Resource type (e.g., "posts")
	BasePath    string      // Base path (e.g., "/api/posts")
	IDParamName string      // ID parameter name (default: "pks")
	Operations  []Operation // Enabled operations
}

// NewResourceDefinition creates a new resource definition with defaults
func NewResourceDefinition(name string) *ResourceDefinition {
	return &ResourceDefinition{
		Name:        name,
		BasePath:    "/" + name,
		IDParamName: DefaultIDParam,
		Operations:  []Operation{OpList, OpDetail},
	}
}

// WithPrefix mounts the resource below prefix ("/api")
func (d *ResourceDefinition) WithPrefix(prefix string) *ResourceDefinition {
	d.BasePath = strings.TrimRight(prefix, "/") + "/" + d.Name
	return d
}

// ResourceHandlers contains handlers for resource operations
type ResourceHandlers struct {
	List   http.HandlerFunc
	Detail http.HandlerFunc
}

// Validate checks that all required handlers are present
func (h *ResourceHandlers) Validate(operations []Operation) error {
	for _, op := range operations {
		if h.GetHandler(op) == nil {
			return fmt.Errorf("missing handler for operation: %s", op)
		}
	}
	return nil
}

// GetHandler returns the handler for the given operation
func (h *ResourceHandlers) GetHandler(op Operation) http.HandlerFunc {
	switch op {
	case OpList:
		return h.List
	case OpDetail:
		return h.Detail
	default:
		return nil
	}
}

// RouteName returns the name of a resource's route for op ("posts-detail")
func RouteName(resource string, op Operation) string {
	return fmt.Sprintf("%s-%s", resource, op)
}

// RegisterResource registers the read routes of a resource
func (r *Router) RegisterResource(def *ResourceDefinition, handlers ResourceHandlers) error {
	if err := handlers.Validate(def.Operations); err != nil {
		return fmt.Errorf("invalid handlers: %w", err)
	}

	for _, op := range def.Operations {
		if err := r.registerResourceOperation(def, op, handlers); err != nil {
			return fmt.Errorf("failed to register operation %s: %w", op, err)
		}
	}

	return nil
}

// registerResourceOperation registers a single resource operation
func (r *Router) registerResourceOperation(def *ResourceDefinition, op Operation, handlers ResourceHandlers) error {
	handler := handlers.GetHandler(op)
	if handler == nil {
		return fmt.Errorf("missing handler for operation: %s", op)
	}

	var route *Route
	switch op {
	case OpList:
		route = r.Get(def.BasePath, handler)
	case OpDetail:
		pattern := fmt.Sprintf("%s/{%s}", def.BasePath, def.IDParamName)
		route = r.Get(pattern, handler)
	default:
		return fmt.Errorf("unknown operation: %s", op)
	}

	route.WithResource(def.Name, op).Named(RouteName(def.Name, op))
	return nil
}

// RouteList returns a formatted list of all routes
func (r *Router) RouteList() string {
	var sb strings.Builder
	sb.WriteString("Registered Routes:\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("%-8s %-40s %-20s\n", "METHOD", "PATTERN", "NAME"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	for _, info := range r.GetRoutes() {
		sb.WriteString(fmt.Sprintf("%-8s %-40s %-20s\n", info.Method, info.Pattern, info.Name))
	}

	return sb.String()
}

// URL generates a URL for a named route with parameters. Values are inserted
// verbatim.
func (r *Router) URL(name string, params map[string]string) (string, error) {
	route, err := r.GetRoute(name)
	if err != nil {
		return "", err
	}

	segments := strings.Split(route.Pattern, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, "{") || !strings.HasSuffix(segment, "}") {
			continue
		}
		param := strings.Trim(segment, "{}")
		if j := strings.Index(param, ":"); j >= 0 {
			param = param[:j]
		}

		value, ok := params[param]
		if !ok || value == "" {
			return "", fmt.Errorf("%w %q for route %s", ErrMissingParameter, param, name)
		}
		segments[i] = value
	}

	return strings.Join(segments, "/"), nil
}
