package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResourceDefinition(t *testing.T) {
	def := NewResourceDefinition("posts")

	assert.Equal(t, "posts", def.Name)
	assert.Equal(t, "/posts", def.BasePath)
	assert.Equal(t, "pks", def.IDParamName)
	assert.Equal(t, []Operation{OpList, OpDetail}, def.Operations)

	def.WithPrefix("/api/")
	assert.Equal(t, "/api/posts", def.BasePath)
}

func TestResourceHandlersValidate(t *testing.T) {
	handlers := ResourceHandlers{
		List:   func(w http.ResponseWriter, r *http.Request) {},
		Detail: func(w http.ResponseWriter, r *http.Request) {},
	}
	assert.NoError(t, handlers.Validate([]Operation{OpList, OpDetail}))

	incomplete := ResourceHandlers{List: func(w http.ResponseWriter, r *http.Request) {}}
	assert.Error(t, incomplete.Validate([]Operation{OpList, OpDetail}))
	assert.Nil(t, incomplete.GetHandler(Operation(42)))
}

func TestRegisterResource(t *testing.T) {
	router := NewRouter()

	err := router.RegisterResource(NewResourceDefinition("posts"), ResourceHandlers{
		List: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("list"))
		},
		Detail: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("detail " + NewParamExtractor(r).PathParam("pks")))
		},
	})
	require.NoError(t, err)

	tests := []struct {
		path string
		body string
	}{
		{path: "/posts", body: "list"},
		{path: "/posts/1,2", body: "detail 1,2"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}

	detail, err := router.GetRoute("posts-detail")
	require.NoError(t, err)
	assert.Equal(t, "posts", detail.ResourceName)
	assert.Equal(t, OpDetail, detail.Operation)

	list, err := router.GetRoute(RouteName("posts", OpList))
	require.NoError(t, err)
	assert.Equal(t, "/posts", list.Pattern)
}

func TestRegisterResourceMissingHandler(t *testing.T) {
	router := NewRouter()
	err := router.RegisterResource(NewResourceDefinition("posts"), ResourceHandlers{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing handler")
}

func TestRouterURL(t *testing.T) {
	router := NewRouter()
	noop := func(w http.ResponseWriter, r *http.Request) {}
	router.Get("/people/{pks}", noop).Named("people-detail")
	router.Get("/blogs/{blog}/posts/{pks}", noop).Named("blog-posts")

	tests := []struct {
		name    string
		route   string
		params  map[string]string
		want    string
		wantErr error
	}{
		{
			name:   "single parameter",
			route:  "people-detail",
			params: map[string]string{"pks": "9"},
			want:   "/people/9",
		},
		{
			name:   "values inserted verbatim",
			route:  "people-detail",
			params: map[string]string{"pks": "1,2"},
			want:   "/people/1,2",
		},
		{
			name:   "extra parameters",
			route:  "blog-posts",
			params: map[string]string{"blog": "main", "pks": "123456789"},
			want:   "/blogs/main/posts/123456789",
		},
		{
			name:    "missing parameter",
			route:   "blog-posts",
			params:  map[string]string{"pks": "1"},
			wantErr: ErrMissingParameter,
		},
		{
			name:    "unknown route",
			route:   "comments-detail",
			wantErr: ErrRouteNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := router.URL(tt.route, tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouteList(t *testing.T) {
	router := NewRouter()
	require.NoError(t, router.RegisterResource(NewResourceDefinition("people"), ResourceHandlers{
		List:   func(w http.ResponseWriter, r *http.Request) {},
		Detail: func(w http.ResponseWriter, r *http.Request) {},
	}))

	list := router.RouteList()
	assert.True(t, strings.HasPrefix(list, "Registered Routes:"))
	assert.Contains(t, list, "/people/{pks}")
	assert.Contains(t, list, "people-detail")

	routes := router.GetRoutes()
	require.Len(t, routes, 2)
	assert.Equal(t, "people-list", routes[0].Name)
	assert.Equal(t, []string{"pks"}, routes[1].Parameters)
}
