package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/compound/internal/orm/store"
)

func TestSchemaValidator_ValidateStructural(t *testing.T) {
	tests := []struct {
		name    string
		schema  *ResourceSchema
		wantErr string
	}{
		{
			name:   "valid",
			schema: NewResourceSchema("posts").WithAttributes("title").WithLink("author", ToOneField("people")),
		},
		{
			name:    "missing type",
			schema:  NewResourceSchema(""),
			wantErr: "resource type is required",
		},
		{
			name:    "dotted type",
			schema:  NewResourceSchema("blog.posts"),
			wantErr: "must not contain '.'",
		},
		{
			name: "duplicate attribute",
			schema: &ResourceSchema{
				Type:       "posts",
				Attributes: []string{"title", "title"},
			},
			wantErr: "duplicate attribute",
		},
		{
			name:    "reserved link name",
			schema:  NewResourceSchema("posts").WithLink("links", ToOneField("people")),
			wantErr: "reserved",
		},
		{
			name:    "dotted link name",
			schema:  NewResourceSchema("posts").WithLink("a.b", ToOneField("people")),
			wantErr: "must not contain '.'",
		},
		{
			name: "link without order",
			schema: &ResourceSchema{
				Type:  "posts",
				Links: map[string]*RelationshipField{"author": ToOneField("people")},
			},
			wantErr: "links and link order disagree",
		},
		{
			name: "accessor without name",
			schema: NewResourceSchema("posts").WithLink("comments",
				&RelationshipField{Kind: ToMany, Strategy: NamedAccessor}),
			wantErr: "no accessor name",
		},
	}

	v := NewSchemaValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStructural(tt.schema)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRelationshipValidator_Validate(t *testing.T) {
	schemas := map[string]*ResourceSchema{
		"people": NewResourceSchema("people"),
		"posts": NewResourceSchema("posts").
			WithLink("author", ToOneField("people")).
			WithLink("comments", ToManyField("comments").ViaAccessor("approved")),
	}

	err := NewRelationshipValidator(schemas).Validate()
	require.Error(t, err)
	assert.True(t, IsMisconfigured(err))
	assert.Contains(t, err.Error(), `posts.comments: relationship targets unregistered resource "comments"`)
	assert.Contains(t, err.Error(), `accessor "approved" is not defined`)

	schemas["comments"] = NewResourceSchema("comments")
	schemas["posts"].WithAccessor("approved", func(store.Record, *AccessContext) (interface{}, error) {
		return nil, nil
	})
	assert.NoError(t, NewRelationshipValidator(schemas).Validate())
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Resource: "posts", Field: "author", Message: "broken", Hint: "fix it"}
	assert.Equal(t, "posts.author: broken\n  hint: fix it", err.Error())
}
