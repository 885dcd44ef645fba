package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/compound/internal/web/middleware"
)

// Router manages HTTP routing using chi framework
type Router struct {
	mux    chi.Router
	routes map[string]*Route

	// For introspection and debugging
	registeredRoutes []*RouteInfo
}

// Route represents a single registered route
type Route struct {
	Pattern string           // /posts/{pks}
	Method  string           // GET, HEAD
	Handler http.HandlerFunc // Handler function
	Name    string           // Named route for URL generation

	// Resource metadata (if registered through RegisterResource)
	ResourceName string
	Operation    Operation
}

// RouteInfo provides metadata about a route for introspection
type RouteInfo struct {
	Pattern    string
	Method     string
	Name       string
	Resource   string
	Parameters []string
}

// Operation represents a read operation on a resource
type Operation int

const (
	// OpList represents the list operation (GET /posts)
	OpList Operation = iota
	// OpDetail represents the detail operation (GET /posts/{pks})
	OpDetail
)

// String returns the string representation of Operation
func (o Operation) String() string {
	switch o {
	case OpList:
		return "list"
	case OpDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// NewRouter creates a new Router instance
func NewRouter() *Router {
	return &Router{
		mux:              chi.NewRouter(),
		routes:           make(map[string]*Route),
		registeredRoutes: make([]*RouteInfo, 0),
	}
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use adds middleware to the router. Middleware must be added before routes.
func (r *Router) Use(middlewares ...middleware.Middleware) {
	for _, m := range middlewares {
		r.mux.Use(m)
	}
}

// Get registers a GET route
func (r *Router) Get(pattern string, handler http.HandlerFunc) *Route {
	return r.addRoute(http.MethodGet, pattern, handler)
}

// addRoute registers a route with the given method, pattern, and handler
func (r *Router) addRoute(method, pattern string, handler http.HandlerFunc) *Route {
	route := &Route{
		Pattern: pattern,
		Method:  method,
		Handler: handler,
	}

	r.mux.Method(method, pattern, handler)

	routeKey := fmt.Sprintf("%s:%s", method, pattern)
	r.routes[routeKey] = route

	r.registeredRoutes = append(r.registeredRoutes, &RouteInfo{
		Pattern:    pattern,
		Method:     method,
		Parameters: extractParameters(pattern),
	})

	return route
}

// Named sets a name for the route (for URL generation)
func (route *Route) Named(name string) *Route {
	route.Name = name
	return route
}

// WithResource sets resource metadata for the route
func (route *Route) WithResource(resourceName string, op Operation) *Route {
	route.ResourceName = resourceName
	route.Operation = op
	return route
}

// GetRoutes returns all registered routes for introspection
func (r *Router) GetRoutes() []RouteInfo {
	routes := make([]RouteInfo, len(r.registeredRoutes))
	for i, info := range r.registeredRoutes {
		routes[i] = *info
		if route, ok := r.routes[info.Method+":"+info.Pattern]; ok {
			routes[i].Name = route.Name
			routes[i].Resource = route.ResourceName
		}
	}
	return routes
}

// GetRoute returns a route by name
func (r *Router) GetRoute(name string) (*Route, error) {
	for _, route := range r.routes {
		if route.Name == name {
			return route, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, name)
}

// NotFound sets the handler for 404 Not Found
func (r *Router) NotFound(handler http.HandlerFunc) {
	r.mux.NotFound(handler)
}

// MethodNotAllowed sets the handler for 405 Method Not Allowed
func (r *Router) MethodNotAllowed(handler http.HandlerFunc) {
	r.mux.MethodNotAllowed(handler)
}

// extractParameters returns the parameter names of a route pattern
func extractParameters(pattern string) []string {
	params := make([]string, 0)
	for _, part := range strings.Split(pattern, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := strings.Trim(part, "{}")
			// chi regexp params look like {id:[0-9]+}
			if i := strings.Index(name, ":"); i >= 0 {
				name = name[:i]
			}
			params = append(params, name)
		}
	}
	return params
}
