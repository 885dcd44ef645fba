package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ParamExtractor provides utilities for extracting and converting parameters
type ParamExtractor struct {
	req *http.Request
}

// NewParamExtractor creates a new parameter extractor for the given request
func NewParamExtractor(req *http.Request) *ParamExtractor {
	return &ParamExtractor{req: req}
}

// PathParam extracts a path parameter by name
func (p *ParamExtractor) PathParam(name string) string {
	return chi.URLParam(p.req, name)
}

// PathParamList extracts a comma-separated path parameter ("1,2,3").
// Empty elements are dropped.
func (p *ParamExtractor) PathParamList(name string) []string {
	return splitList(chi.URLParam(p.req, name))
}

// QueryParam extracts a query parameter by name
func (p *ParamExtractor) QueryParam(name string) string {
	return p.req.URL.Query().Get(name)
}

// QueryParamBool extracts a query parameter and converts it to bool.
// A parameter present without a value ("?compound") is true.
func (p *ParamExtractor) QueryParamBool(name string, defaultValue bool) bool {
	values, present := p.req.URL.Query()[name]
	if !present {
		return defaultValue
	}
	if len(values) == 0 || values[0] == "" {
		return true
	}

	b, err := strconv.ParseBool(values[0])
	if err != nil {
		return defaultValue
	}

	return b
}

// QueryParamList extracts a query parameter given either repeated
// (?fields=a&fields=b) or comma-separated (?fields=a,b)
func (p *ParamExtractor) QueryParamList(name string) []string {
	var list []string
	for _, value := range p.req.URL.Query()[name] {
		list = append(list, splitList(value)...)
	}
	return list
}

// BaseURL returns the scheme and host the request was addressed to
func (p *ParamExtractor) BaseURL() string {
	scheme := "http"
	if p.req.TLS != nil {
		scheme = "https"
	}
	if forwarded := p.req.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + p.req.Host
}

func splitList(s string) []string {
	var list []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}
