package jsonapi

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/compound/internal/orm/schema"
	"github.com/conduit-lang/compound/internal/orm/store"
)

func TestAssemble_RedisHitMatchesMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	registry := schema.NewRegistry()
	registry.MustRegister(
		schema.NewResourceSchema("people").WithAttributes("name", "joined"),
		schema.NewResourceSchema("posts").
			WithAttributes("title").
			WithLink("author", schema.ToOneField("people").WithModel("people")),
	)
	require.NoError(t, registry.Freeze())

	inner := store.NewMemoryStore()
	inner.Add("people", store.Record{
		"id":     9,
		"name":   "Ada",
		"joined": time.Date(2014, 1, 2, 3, 4, 5, 500000000, time.FixedZone("CEST", 2*60*60)),
	})
	inner.Add("posts", store.Record{"id": 1, "title": "Hello", "author": 9})

	st := store.NewRedisStore(client, inner, store.DefaultRedisConfig())
	a := NewAssembler(registry, st, newRoutes(t, "people", "posts"))
	ctx := context.Background()

	render := func() string {
		data, many, err := a.Find(ctx, "posts", []string{"1"})
		require.NoError(t, err)
		out, err := a.AssembleJSON(ctx, Request{Name: "posts", Data: data, Many: many, Compound: true})
		require.NoError(t, err)
		return string(out)
	}

	miss := render()
	require.True(t, mr.Exists("compound:people:id:9"))
	hit := render()

	assert.JSONEq(t, miss, hit)
	assert.Contains(t, hit, `"joined":"2014-01-02T01:04:05Z"`)
}
