package jsonapi

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/compound/internal/orm/schema"
)

const (
	// PKsParam is the route parameter holding the comma-separated ids of a
	// detail route
	PKsParam = "pks"

	placeholderSeed = "123456789"
)

// RouteReverser builds the path of a named route
type RouteReverser interface {
	URL(name string, params map[string]string) (string, error)
}

// TemplateOption configures a TemplateCompiler
type TemplateOption func(*TemplateCompiler)

// WithPathTokens makes templates use the link path as their token
// ("/people/{posts.author}") instead of "{pks}"
func WithPathTokens() TemplateOption {
	return func(c *TemplateCompiler) {
		c.pathTokens = true
	}
}

// TemplateCompiler turns relationship paths such as "posts.author" into href
// templates pointing at the detail route of the related type
type TemplateCompiler struct {
	registry   *schema.Registry
	routes     RouteReverser
	pathTokens bool
}

// NewTemplateCompiler creates a template compiler
func NewTemplateCompiler(registry *schema.Registry, routes RouteReverser, opts ...TemplateOption) *TemplateCompiler {
	c := &TemplateCompiler{
		registry: registry,
		routes:   routes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve walks a dotted path from its root schema through declared
// relationships and returns the schema at its end
func (c *TemplateCompiler) Resolve(path string) (*schema.ResourceSchema, error) {
	parts := strings.Split(path, ".")

	current, err := c.registry.Get(parts[0])
	if err != nil {
		return nil, err
	}

	for _, part := range parts[1:] {
		field, ok := current.Link(part)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not declare relationship %q (path: %s)",
				ErrUnresolvableRelation, current.Type, part, path)
		}

		current, err = c.registry.Get(field.GetRelationType())
		if err != nil {
			return nil, fmt.Errorf("%w: relationship %q (path: %s): %v",
				ErrUnresolvableRelation, part, path, err)
		}
	}

	return current, nil
}

// Compile returns the href template of path. The href is made absolute when
// baseURL is not empty.
func (c *TemplateCompiler) Compile(path, baseURL string) (Link, error) {
	target, err := c.Resolve(path)
	if err != nil {
		return Link{}, err
	}

	href, err := c.detailTemplate(target, path)
	if err != nil {
		return Link{}, err
	}

	if baseURL != "" {
		href = strings.TrimRight(baseURL, "/") + href
	}

	return Link{Href: href, Type: target.Type}, nil
}

func (c *TemplateCompiler) detailTemplate(target *schema.ResourceSchema, path string) (string, error) {
	if c.routes == nil {
		return "", fmt.Errorf("%w: no routes to reverse %s", ErrUnresolvableRelation, target.Route)
	}

	params := make(map[string]string, len(target.RouteParams)+1)
	for k, v := range target.RouteParams {
		params[k] = v
	}

	placeholder := placeholderFor(params)
	params[PKsParam] = placeholder

	url, err := c.routes.URL(target.Route, params)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnresolvableRelation, path, err)
	}

	return strings.Replace(url, placeholder, c.token(path), 1), nil
}

func (c *TemplateCompiler) token(path string) string {
	if c.pathTokens {
		return "{" + path + "}"
	}
	return "{" + PKsParam + "}"
}

// placeholderFor returns a numeric placeholder that no other parameter value
// contains, so replacing it in the reversed URL only touches the id segment
func placeholderFor(params map[string]string) string {
	placeholder := placeholderSeed
	for collides(placeholder, params) {
		placeholder += placeholder
	}
	return placeholder
}

func collides(placeholder string, params map[string]string) bool {
	for _, v := range params {
		if strings.Contains(v, placeholder) {
			return true
		}
	}
	return false
}
