// Package jsonapi assembles compound documents: primary resources, the href
// templates of their relationships and the related resources they reference,
// side-loaded one level deep.
package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/compound/internal/orm/schema"
	"github.com/conduit-lang/compound/internal/orm/store"
)

// Request describes one document to assemble
type Request struct {
	// Name is the registered schema name; primary data is emitted under it
	Name string
	// Data is a store.Record (Many false) or a collection of records
	Data interface{}
	Many bool
	// Only restricts the primary resources' attributes and relationships
	Only []string
	// Compound side-loads referenced resources under "linked"
	Compound bool
	// SelfLink adds an href template for the primary resource itself
	SelfLink bool
	// BaseURL makes href templates absolute ("https://api.example.com")
	BaseURL string
	// Values is passed to named accessors
	Values map[string]interface{}
}

// Option configures an Assembler
type Option func(*Assembler)

// WithLogger sets the assembler's logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithoutCache disables the request cache for every relationship
func WithoutCache() Option {
	return func(a *Assembler) {
		a.useCache = false
	}
}

// WithTemplateOptions configures the href template compiler
func WithTemplateOptions(opts ...TemplateOption) Option {
	return func(a *Assembler) {
		a.templateOpts = append(a.templateOpts, opts...)
	}
}

// Assembler builds compound documents
type Assembler struct {
	registry     *schema.Registry
	store        store.Store
	serializer   *Serializer
	templates    *TemplateCompiler
	templateOpts []TemplateOption
	logger       *zap.Logger
	useCache     bool
}

// NewAssembler creates an assembler reading schemas from registry, related
// entities from st and detail routes from routes
func NewAssembler(registry *schema.Registry, st store.Store, routes RouteReverser, opts ...Option) *Assembler {
	a := &Assembler{
		registry:   registry,
		store:      st,
		serializer: NewSerializer(registry),
		logger:     zap.NewNop(),
		useCache:   true,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.templates = NewTemplateCompiler(registry, routes, a.templateOpts...)
	return a
}

// Templates returns the assembler's href template compiler
func (a *Assembler) Templates() *TemplateCompiler {
	return a.templates
}

// Assemble builds the document described by req
func (a *Assembler) Assemble(ctx context.Context, req Request) (*Document, error) {
	rs, err := a.registry.Get(req.Name)
	if err != nil {
		return nil, err
	}

	scope := NewScope()
	defer scope.Close()

	ac := &schema.AccessContext{Context: ctx, BaseURL: req.BaseURL, Values: req.Values}

	data, err := a.serializer.Serialize(scope, req.Name, req.Data, req.Many, req.Only, ac)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Name:  req.Name,
		Data:  data,
		Links: make(map[string]Link),
	}

	if req.Compound && !scope.collector.Empty() {
		selected := newSelection(rs, req.Only).links
		linked, subPaths, err := a.resolveLinked(ctx, scope, rs, selected, ac)
		if err != nil {
			return nil, err
		}
		doc.Linked = linked

		for _, sub := range subPaths {
			link, err := a.templates.Compile(req.Name+"."+sub, req.BaseURL)
			if err != nil {
				return nil, err
			}
			doc.Links[sub] = link
		}
	}

	for _, name := range scope.collector.Names() {
		path := req.Name + "." + name
		link, err := a.templates.Compile(path, req.BaseURL)
		if err != nil {
			return nil, err
		}
		doc.Links[path] = link
	}

	if req.SelfLink {
		if _, exists := doc.Links[req.Name]; !exists {
			link, err := a.templates.Compile(req.Name, req.BaseURL)
			if err != nil {
				return nil, err
			}
			doc.Links[req.Name] = link
		}
	}

	return doc, nil
}

// AssembleJSON assembles the document and encodes it
func (a *Assembler) AssembleJSON(ctx context.Context, req Request) ([]byte, error) {
	doc, err := a.Assemble(ctx, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// resolveLinked loads and serializes every resource the selected
// relationships of the primary data referenced. Linked resources are
// serialized in a child scope: their own relationship ids only produce link
// paths and are never side-loaded.
func (a *Assembler) resolveLinked(ctx context.Context, scope *Scope, rs *schema.ResourceSchema, selected []*schema.RelationshipField, ac *schema.AccessContext) (map[string][]*Object, []string, error) {
	linked := make(map[string][]*Object)
	var subPaths []string
	seenPath := make(map[string]bool)

	fieldsByType := make(map[string][]*schema.RelationshipField)
	var types []string
	for _, field := range selected {
		relType := field.GetRelationType()
		if len(scope.collector.IDsByType(relType)) == 0 {
			continue
		}
		if !field.CanResolve() {
			return nil, nil, fmt.Errorf("%w: relationship %q of %s has no model and is not prefetched; "+
				"bind it to a store collection or disable compound documents",
				ErrMisconfiguredRelation, field.Name, rs.Type)
		}
		if _, exists := fieldsByType[relType]; !exists {
			types = append(types, relType)
		}
		fieldsByType[relType] = append(fieldsByType[relType], field)
	}

	for _, relType := range types {
		fields := fieldsByType[relType]
		ids := scope.collector.IDsByType(relType)

		entities, err := a.fetchLinked(ctx, scope, relType, fields, ids)
		if err != nil {
			return nil, nil, err
		}

		child := scope.child()
		serialized, err := a.serializer.Serialize(child, relType, entities, true, nil, ac)
		if err != nil {
			return nil, nil, err
		}
		linked[relType] = serialized.([]*Object)

		for _, field := range fields {
			for _, sub := range child.collector.Names() {
				path := field.Name + "." + sub
				if !seenPath[path] {
					seenPath[path] = true
					subPaths = append(subPaths, path)
				}
			}
		}
	}

	return linked, subPaths, nil
}

// fetchLinked returns the entities of relType for ids, sorted like ids.
// Ids missing from the store are skipped.
func (a *Assembler) fetchLinked(ctx context.Context, scope *Scope, relType string, fields []*schema.RelationshipField, ids []string) ([]store.Record, error) {
	var bound *schema.RelationshipField
	for _, field := range fields {
		if field.IsBound() {
			bound = field
			break
		}
	}

	keyField := fields[0]
	if bound != nil {
		keyField = bound
	}
	idAttr := a.registry.IDAttribute(keyField)
	idOf := func(r store.Record) string { return r.ID(idAttr) }

	var fetch FetchFunc
	if bound != nil {
		model := bound.Model
		fetch = func(ctx context.Context, residual []string) ([]store.Record, error) {
			a.logger.Debug("fetching linked entities",
				zap.String("type", relType),
				zap.String("model", model),
				zap.Strings("ids", residual))
			records, err := a.store.Filter(ctx, model, idAttr, residual)
			if err != nil {
				return nil, fmt.Errorf("loading linked %s: %w", relType, err)
			}
			return records, nil
		}
	}

	if bound != nil && (!a.useCache || bound.DisableCache) {
		return a.fetchUncached(ctx, scope, relType, ids, fetch, idOf)
	}

	entities, err := scope.cache.Resolve(ctx, relType, ids, fetch, idOf)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("resolved linked entities",
		zap.String("type", relType),
		zap.Int("requested", len(ids)),
		zap.Int("found", len(entities)))
	return entities, nil
}

// fetchUncached asks the store for every id, falling back to prefetched
// entities for ids the store did not return
func (a *Assembler) fetchUncached(ctx context.Context, scope *Scope, relType string, ids []string, fetch FetchFunc, idOf func(store.Record) string) ([]store.Record, error) {
	records, err := fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]store.Record, len(records))
	for _, r := range records {
		byID[idOf(r)] = r
	}

	entities := make([]store.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			entities = append(entities, r)
			continue
		}
		if r, ok := scope.cache.Lookup(relType, id); ok {
			entities = append(entities, r)
		}
	}
	return entities, nil
}

// Find loads the primary entities of name by id. A single id yields a
// store.Record and ErrNotFound when it is missing; several ids yield a
// []store.Record in the order requested, skipping missing ones.
func (a *Assembler) Find(ctx context.Context, name string, ids []string) (interface{}, bool, error) {
	rs, err := a.registry.Get(name)
	if err != nil {
		return nil, false, err
	}

	if len(ids) == 1 {
		record, err := a.store.Get(ctx, rs.Collection, rs.PrimaryKeyName(), ids[0])
		if err != nil {
			return nil, false, fmt.Errorf("finding %s %s: %w", name, ids[0], err)
		}
		return record, false, nil
	}

	records, err := a.store.Filter(ctx, rs.Collection, rs.PrimaryKeyName(), ids)
	if err != nil {
		return nil, true, fmt.Errorf("finding %s: %w", name, err)
	}

	byID := make(map[string]store.Record, len(records))
	for _, r := range records {
		byID[r.ID(rs.PrimaryKeyName())] = r
	}
	ordered := make([]store.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered, true, nil
}

// List loads every primary entity of name. The store must implement
// store.Lister.
func (a *Assembler) List(ctx context.Context, name string) ([]store.Record, error) {
	rs, err := a.registry.Get(name)
	if err != nil {
		return nil, err
	}

	lister, ok := a.store.(store.Lister)
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", name, store.ErrListingUnsupported)
	}

	records, err := lister.All(ctx, rs.Collection)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", name, err)
	}
	return records, nil
}
