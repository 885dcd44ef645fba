// Package handler exposes registered resources over read-only HTTP endpoints
// that answer with compound documents.
package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/conduit-lang/compound/internal/jsonapi"
	"github.com/conduit-lang/compound/internal/orm/schema"
	"github.com/conduit-lang/compound/internal/web/middleware"
	"github.com/conduit-lang/compound/internal/web/response"
	"github.com/conduit-lang/compound/internal/web/router"
)

const (
	// FieldsParam restricts the emitted attributes and relationships
	FieldsParam = "fields"
	// CompoundParam toggles side-loading of linked resources
	CompoundParam = "compound"
)

// Config controls how documents are built for HTTP requests
type Config struct {
	// Prefix mounts every resource below a path ("/api")
	Prefix string
	// Compound is the default when a request does not pass ?compound
	Compound bool
	// SelfLink adds an href template for the primary resource
	SelfLink bool
	// AbsoluteURLs prefixes href templates with the request's scheme and host
	AbsoluteURLs bool
	// ShowErrorDetails exposes internal error messages in 500 responses
	ShowErrorDetails bool
}

// Handler serves list and detail requests for every registered resource
type Handler struct {
	registry  *schema.Registry
	assembler *jsonapi.Assembler
	logger    *zap.Logger
	config    Config
}

// New creates a resource handler
func New(registry *schema.Registry, assembler *jsonapi.Assembler, logger *zap.Logger, config Config) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		registry:  registry,
		assembler: assembler,
		logger:    logger,
		config:    config,
	}
}

// Register adds list and detail routes for every registered resource and
// installs JSON not found handlers
func (h *Handler) Register(r *router.Router) error {
	for _, name := range h.registry.List() {
		def := router.NewResourceDefinition(name)
		if h.config.Prefix != "" {
			def.WithPrefix(h.config.Prefix)
		}

		if err := r.RegisterResource(def, router.ResourceHandlers{
			List:   h.List(name),
			Detail: h.Detail(name),
		}); err != nil {
			return fmt.Errorf("registering %s: %w", name, err)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.RenderNotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.RenderMethodNotAllowed(w, []string{http.MethodGet})
	})

	return nil
}

// List returns the handler for GET /<name>
func (h *Handler) List(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.assembler.List(r.Context(), name)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		h.render(w, r, name, records, true)
	}
}

// Detail returns the handler for GET /<name>/{pks}. Several comma-separated
// ids produce a collection.
func (h *Handler) Detail(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := router.NewParamExtractor(r).PathParamList(router.DefaultIDParam)
		if len(ids) == 0 {
			response.RenderBadRequest(w, "no ids given")
			return
		}

		data, many, err := h.assembler.Find(r.Context(), name, ids)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		h.render(w, r, name, data, many)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data interface{}, many bool) {
	params := router.NewParamExtractor(r)

	req := jsonapi.Request{
		Name:     name,
		Data:     data,
		Many:     many,
		Only:     params.QueryParamList(FieldsParam),
		Compound: params.QueryParamBool(CompoundParam, h.config.Compound),
		SelfLink: h.config.SelfLink,
		Values: map[string]interface{}{
			"request_id": middleware.GetRequestID(r.Context()),
		},
	}
	if h.config.AbsoluteURLs {
		req.BaseURL = params.BaseURL()
	}

	doc, err := h.assembler.Assemble(r.Context(), req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if err := response.RenderDocument(w, r, http.StatusOK, doc); err != nil {
		h.logger.Error("rendering document failed",
			zap.String("resource", name),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
	}
}

// renderError maps engine errors to responses. Missing entities and unknown
// resources are 404s; configuration and store failures are 500s.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case jsonapi.IsNotFound(err), jsonapi.IsUnknownSchema(err):
		response.RenderNotFound(w, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		response.RenderInternalError(w, err, h.config.ShowErrorDetails)
	}
}
