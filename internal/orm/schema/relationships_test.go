package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/compound/internal/orm/store"
)

func TestRelationshipField_Defaults(t *testing.T) {
	s := NewResourceSchema("comments").WithLink("post", &RelationshipField{Kind: ToOne})
	field, ok := s.Link("post")
	require.True(t, ok)

	assert.Equal(t, "post", field.Name)
	assert.Equal(t, "post", field.GetRelationType())
	assert.Equal(t, "post", field.SourceAttribute())
	assert.False(t, field.IsBound())
	assert.False(t, field.CanResolve())

	field.Prefetched()
	assert.True(t, field.CanResolve())
}

func TestRelationshipField_ExtractToOne(t *testing.T) {
	owner := NewResourceSchema("posts")
	field := ToOneField("people")
	owner.WithLink("author", field)

	tests := []struct {
		name     string
		entity   store.Record
		expected []string
		entities int
	}{
		{"bare id", store.Record{"author": 9}, []string{"9"}, 0},
		{"string id", store.Record{"author": "9"}, []string{"9"}, 0},
		{"entity", store.Record{"author": store.Record{"id": 9, "name": "Ada"}}, []string{"9"}, 1},
		{"plain map", store.Record{"author": map[string]interface{}{"id": int64(9)}}, []string{"9"}, 1},
		{"nil", store.Record{"author": nil}, nil, 0},
		{"missing", store.Record{}, nil, 0},
		{"nil record", store.Record{"author": store.Record(nil)}, nil, 0},
		{"empty id", store.Record{"author": ""}, nil, 0},
		{"callable", store.Record{"author": func() interface{} { return 11 }}, []string{"11"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			related, err := field.Extract(owner, tt.entity, "id", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, related.IDs)
			assert.Len(t, related.Entities, tt.entities)
		})
	}
}

func TestRelationshipField_ExtractToOneRejectsCollection(t *testing.T) {
	owner := NewResourceSchema("posts").WithLink("author", ToOneField("people"))
	field, _ := owner.Link("author")

	_, err := field.Extract(owner, store.Record{"author": []int{1, 2}}, "id", nil)
	assert.True(t, IsMisconfigured(err))
}

func TestRelationshipField_ExtractToMany(t *testing.T) {
	owner := NewResourceSchema("posts")
	field := ToManyField("tags").WithIDAttribute("name")
	owner.WithLink("tags", field)

	tests := []struct {
		name     string
		value    interface{}
		expected []string
	}{
		{"records", []store.Record{{"name": "go"}, {"name": "json"}}, []string{"go", "json"}},
		{"maps", []map[string]interface{}{{"name": "go"}}, []string{"go"}},
		{"strings", []string{"b", "a"}, []string{"b", "a"}},
		{"ints", []int{3, 1, 2}, []string{"3", "1", "2"}},
		{"mixed", []interface{}{"go", store.Record{"name": "json"}, nil}, []string{"go", "json"}},
		{"empty", []string{}, nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			related, err := field.Extract(owner, store.Record{"tags": tt.value}, "name", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, related.IDs)
		})
	}
}

func TestRelationshipField_ExtractToManyRejectsScalar(t *testing.T) {
	owner := NewResourceSchema("posts").WithLink("tags", ToManyField("tags"))
	field, _ := owner.Link("tags")

	_, err := field.Extract(owner, store.Record{"tags": 42}, "id", nil)
	assert.True(t, IsMisconfigured(err))
}

func TestRelationshipField_NamedAccessor(t *testing.T) {
	owner := NewResourceSchema("posts").
		WithLink("comments", ToManyField("comments").ViaAccessor("approved_comments")).
		WithAccessor("approved_comments", func(entity store.Record, ac *AccessContext) (interface{}, error) {
			var approved []store.Record
			for _, c := range entity["comments"].([]store.Record) {
				if c["approved"] == true {
					approved = append(approved, c)
				}
			}
			if user, ok := ac.Value("user"); ok && user == "admin" {
				return entity["comments"], nil
			}
			return approved, nil
		})
	field, _ := owner.Link("comments")

	entity := store.Record{"comments": []store.Record{
		{"id": 1, "approved": true},
		{"id": 2, "approved": false},
	}}

	ac := &AccessContext{Context: context.Background()}
	related, err := field.Extract(owner, entity, "id", ac)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, related.IDs)

	ac.Values = map[string]interface{}{"user": "admin"}
	related, err = field.Extract(owner, entity, "id", ac)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, related.IDs)
}

func TestRelationshipField_NamedAccessorErrors(t *testing.T) {
	boom := errors.New("boom")
	owner := NewResourceSchema("posts").
		WithLink("missing", ToManyField("comments").ViaAccessor("nope")).
		WithLink("failing", ToManyField("comments").ViaAccessor("fail")).
		WithAccessor("fail", func(store.Record, *AccessContext) (interface{}, error) {
			return nil, boom
		})

	missing, _ := owner.Link("missing")
	_, err := missing.Extract(owner, store.Record{}, "id", nil)
	assert.True(t, IsMisconfigured(err))

	failing, _ := owner.Link("failing")
	_, err = failing.Extract(owner, store.Record{}, "id", nil)
	assert.ErrorIs(t, err, boom)
}

func TestParseRelationKind(t *testing.T) {
	kind, err := ParseRelationKind("to_many")
	require.NoError(t, err)
	assert.Equal(t, ToMany, kind)

	kind, err = ParseRelationKind("one")
	require.NoError(t, err)
	assert.Equal(t, ToOne, kind)

	_, err = ParseRelationKind("several")
	assert.Error(t, err)

	assert.Equal(t, "to_one", ToOne.String())
	assert.Equal(t, "prefetched", PrefetchedCollection.String())
}
