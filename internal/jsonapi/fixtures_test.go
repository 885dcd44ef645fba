package jsonapi

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/compound/internal/orm/schema"
	"github.com/conduit-lang/compound/internal/orm/store"
	"github.com/conduit-lang/compound/internal/web/router"
)

// countingStore records every Filter call made through it
type countingStore struct {
	store.Store

	mu      sync.Mutex
	filters []filterCall
}

type filterCall struct {
	collection string
	ids        []string
}

func (c *countingStore) Filter(ctx context.Context, collection, key string, ids []string) ([]store.Record, error) {
	c.mu.Lock()
	c.filters = append(c.filters, filterCall{collection: collection, ids: append([]string(nil), ids...)})
	c.mu.Unlock()
	return c.Store.Filter(ctx, collection, key, ids)
}

func (c *countingStore) calls(collection string) []filterCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var calls []filterCall
	for _, call := range c.filters {
		if call.collection == collection {
			calls = append(calls, call)
		}
	}
	return calls
}

// newRoutes registers list and detail routes for every resource type
func newRoutes(t *testing.T, types ...string) *router.Router {
	t.Helper()
	r := router.NewRouter()
	noop := func(w http.ResponseWriter, req *http.Request) {}
	for _, typ := range types {
		require.NoError(t, r.RegisterResource(router.NewResourceDefinition(typ), router.ResourceHandlers{
			List:   noop,
			Detail: noop,
		}))
	}
	return r
}

// scenarioRegistry is the smallest posts/people setup
func scenarioRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	registry := schema.NewRegistry()
	registry.MustRegister(
		schema.NewResourceSchema("people").WithAttributes("name"),
		schema.NewResourceSchema("posts").
			WithAttributes("title").
			WithLink("author", schema.ToOneField("people").WithModel("people")),
	)
	require.NoError(t, registry.Freeze())
	return registry
}

func scenarioStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	st.Add("people",
		store.Record{"id": 9, "name": "Ada"},
		store.Record{"id": 10, "name": "Grace"},
	)
	st.Add("posts",
		store.Record{"id": 1, "title": "Hello", "author": 9},
		store.Record{"id": 2, "title": "Again", "author": 10},
	)
	return st
}

// blogRegistry exercises every relationship strategy
func blogRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	posts := schema.NewResourceSchema("posts").
		WithAttributes("title", "published").
		WithLink("author", schema.ToOneField("people").WithModel("people").FromAttribute("author_id")).
		WithLink("editor", schema.ToOneField("people").WithModel("people").FromAttribute("editor_id")).
		WithLink("tags", schema.ToManyField("tags").Prefetched()).
		WithLink("featured", schema.ToOneField("tags").WithModel("tags").FromAttribute("featured_tag")).
		WithLink("comments", schema.ToManyField("comments").WithModel("comments").ViaAccessor("visible_comments")).
		WithAccessor("visible_comments", func(entity store.Record, ac *schema.AccessContext) (interface{}, error) {
			if staff, _ := ac.Value("staff"); staff == true {
				return entity["comment_ids"], nil
			}
			return entity["public_comment_ids"], nil
		})

	registry := schema.NewRegistry()
	registry.MustRegister(
		schema.NewResourceSchema("people").
			WithAttributes("name").
			WithLink("posts", schema.ToManyField("posts").FromAttribute("post_ids")),
		posts,
		schema.NewResourceSchema("tags").WithPrimaryKey("name").WithAttributes("label"),
		schema.NewResourceSchema("comments").
			WithAttributes("body").
			WithLink("author", schema.ToOneField("people").WithModel("people").FromAttribute("author_id")),
	)
	require.NoError(t, registry.Freeze())
	return registry
}

func blogStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	st.Add("people",
		store.Record{"id": 9, "name": "Ada", "post_ids": []int{1}},
		store.Record{"id": 10, "name": "Grace", "post_ids": []int{2}},
	)
	st.Add("tags",
		store.Record{"name": "go", "label": "Go"},
		store.Record{"name": "rust", "label": "Rust"},
	)
	st.Add("comments",
		store.Record{"id": 100, "body": "First", "author_id": 10},
		store.Record{"id": 101, "body": "Spam", "author_id": 9},
	)
	st.Add("posts", blogPost())
	return st
}

func blogPost() store.Record {
	return store.Record{
		"id":        1,
		"title":     "Compound documents",
		"published": time.Date(2014, 1, 2, 3, 4, 5, 0, time.FixedZone("CEST", 2*60*60)),
		"author_id": 9,
		"editor_id": 10,
		"tags": []store.Record{
			{"name": "go", "label": "Go"},
			{"name": "db", "label": "Databases"},
		},
		"featured_tag":       "go",
		"comment_ids":        []int{100, 101},
		"public_comment_ids": []int{100},
	}
}
