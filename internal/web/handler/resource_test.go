package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/compound/internal/jsonapi"
	"github.com/conduit-lang/compound/internal/orm/schema"
	"github.com/conduit-lang/compound/internal/orm/store"
	"github.com/conduit-lang/compound/internal/web/response"
	"github.com/conduit-lang/compound/internal/web/router"
)

func setupServer(t *testing.T, config Config, authorField *schema.RelationshipField) (http.Handler, *observer.ObservedLogs) {
	t.Helper()

	registry := schema.NewRegistry()
	registry.MustRegister(
		schema.NewResourceSchema("people").WithAttributes("name"),
		schema.NewResourceSchema("posts").
			WithAttributes("title").
			WithLink("author", authorField),
	)
	require.NoError(t, registry.Freeze())

	st := store.NewMemoryStore()
	st.Add("people", store.Record{"id": 9, "name": "Ada"})
	st.Add("posts",
		store.Record{"id": 1, "title": "Hello", "author": 9},
		store.Record{"id": 2, "title": "Again", "author": nil},
	)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	r := router.NewRouter()
	assembler := jsonapi.NewAssembler(registry, st, r, jsonapi.WithLogger(logger))
	require.NoError(t, New(registry, assembler, logger, config).Register(r))

	return r, logs
}

func boundAuthor() *schema.RelationshipField {
	return schema.ToOneField("people").WithModel("people")
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestDetail_Compound(t *testing.T) {
	h, _ := setupServer(t, Config{}, boundAuthor())

	w := get(t, h, "/posts/1?compound")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.JSONAPIMediaType, w.Header().Get("Content-Type"))
	assert.Equal(t,
		`{"links":{"posts.author":{"href":"/people/{pks}","type":"people"}},`+
			`"posts":{"id":"1","title":"Hello","links":{"author":"9"}},`+
			`"linked":{"people":[{"id":"9","name":"Ada"}]}}`,
		w.Body.String())
}

func TestDetail_CommaSeparatedIDs(t *testing.T) {
	h, _ := setupServer(t, Config{}, boundAuthor())

	w := get(t, h, "/posts/2,1")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Posts []map[string]interface{} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Len(t, doc.Posts, 2)
	assert.Equal(t, "2", doc.Posts[0]["id"])
	assert.Equal(t, map[string]interface{}{"author": nil}, doc.Posts[0]["links"])
}

func TestDetail_NotFound(t *testing.T) {
	h, _ := setupServer(t, Config{}, boundAuthor())

	w := get(t, h, "/posts/404")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Code)
}

func TestList_Fields(t *testing.T) {
	h, _ := setupServer(t, Config{}, boundAuthor())

	w := get(t, h, "/posts?fields=title")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"posts":[{"id":"1","title":"Hello"},{"id":"2","title":"Again"}]}`, w.Body.String())
}

func TestDetail_AbsoluteURLsAndSelfLink(t *testing.T) {
	h, _ := setupServer(t, Config{AbsoluteURLs: true, SelfLink: true, Prefix: "/api"}, boundAuthor())

	w := get(t, h, "/api/posts/1")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Links map[string]jsonapi.Link `json:"links"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "http://example.com/api/people/{pks}", doc.Links["posts.author"].Href)
	assert.Equal(t, "http://example.com/api/posts/{pks}", doc.Links["posts"].Href)
}

func TestDetail_CompoundByDefault(t *testing.T) {
	h, _ := setupServer(t, Config{Compound: true}, boundAuthor())

	assert.Contains(t, get(t, h, "/posts/1").Body.String(), `"linked"`)
	assert.NotContains(t, get(t, h, "/posts/1?compound=false").Body.String(), `"linked"`)
}

func TestDetail_MisconfiguredRelation(t *testing.T) {
	h, logs := setupServer(t, Config{}, schema.ToOneField("people"))

	w := get(t, h, "/posts/1?compound=true")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "no model")
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestRoutingErrors(t *testing.T) {
	h, _ := setupServer(t, Config{}, boundAuthor())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/comments/1").Code)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET", w.Header().Get("Allow"))
}
