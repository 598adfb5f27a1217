package jsonapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{name: "string", in: `"42"`, want: "42"},
		{name: "number", in: `42`, want: "42"},
		{name: "null", in: `null`, want: ""},
		{name: "object", in: `{"x":1}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &id))
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestResourceRelationships(t *testing.T) {
	raw := `{
		"id": 1,
		"type": "stores",
		"attributes": {"name": "Corner Books", "rating": 4},
		"relationships": {
			"countries": {"data": {"id": "7", "type": "countries"}},
			"books": {"data": [{"id": "1", "type": "books"}, "junk", {"id": 2, "type": "books"}]},
			"broken": "not an object"
		}
	}`

	var r Resource
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	assert.Equal(t, ID("1"), r.ID)
	assert.Equal(t, "stores", r.Type)

	name, ok := r.Attributes.String("name")
	require.True(t, ok)
	assert.Equal(t, "Corner Books", name)

	country, ok := r.Relationship("countries").One()
	require.True(t, ok)
	assert.Equal(t, ID("7"), country.ID)

	books, ok := r.Relationship("books").Many()
	require.True(t, ok)
	assert.Equal(t, []Identifier{{ID: "1", Type: "books"}, {ID: "2", Type: "books"}}, books)

	assert.Contains(t, r.Relationships, "broken")
	_, ok = r.Relationship("broken").One()
	assert.False(t, ok)

	_, ok = r.Relationship("missing").Many()
	assert.False(t, ok)
}

func TestResourceMalformedMembers(t *testing.T) {
	var r Resource
	require.NoError(t, json.Unmarshal([]byte(`{"id":"3","attributes":[1,2],"relationships":[]}`), &r))

	assert.Equal(t, ID("3"), r.ID)
	assert.Nil(t, r.Attributes)
	assert.Nil(t, r.Relationships)

	_, ok := r.Relationship("books").Many()
	assert.False(t, ok)
}

func TestRelationshipOneRejectsArrays(t *testing.T) {
	rel := Relationship{Data: json.RawMessage(`[{"id":"1"}]`)}
	_, ok := rel.One()
	assert.False(t, ok)

	rel = Relationship{Data: json.RawMessage(`{"type":"authors"}`)}
	_, ok = rel.One()
	assert.False(t, ok, "identifier without id must not resolve")
}

func TestAttributesNumber(t *testing.T) {
	attrs := Attributes{
		"float":  float64(12.5),
		"int":    3,
		"string": " 250 ",
		"bad":    "lots",
		"bool":   true,
	}

	n, ok := attrs.Number("float")
	assert.True(t, ok)
	assert.Equal(t, 12.5, n)

	n, ok = attrs.Number("int")
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	n, ok = attrs.Number("string")
	assert.True(t, ok)
	assert.Equal(t, 250.0, n)

	_, ok = attrs.Number("bad")
	assert.False(t, ok)
	_, ok = attrs.Number("bool")
	assert.False(t, ok)
	_, ok = attrs.Number("missing")
	assert.False(t, ok)

	var nilAttrs Attributes
	_, ok = nilAttrs.String("name")
	assert.False(t, ok)
}
