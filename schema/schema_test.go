package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_MarshalPreservesDeclarationOrder(t *testing.T) {
	s := Object(
		Param{Name: "zebra", Type: TypeString, Required: true},
		Param{Name: "apple", Type: TypeNumber},
		Param{Name: "mango", Type: TypeBoolean, Default: true},
	)

	b, err := json.Marshal(s)
	require.NoError(t, err)

	js := string(b)
	zi := strings.Index(js, `"zebra"`)
	ai := strings.Index(js, `"apple"`)
	mi := strings.Index(js, `"mango"`)
	require.True(t, zi >= 0 && ai >= 0 && mi >= 0, "all properties present: %s", js)
	assert.Less(t, zi, ai)
	assert.Less(t, ai, mi)
}

func TestSchema_MarshalWireShape(t *testing.T) {
	s := Object(
		Param{Name: "name", Type: TypeString, Description: "who to greet", Required: true},
		Param{Name: "shout", Type: TypeBoolean, Default: false},
	)

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "object", m["type"])

	props, ok := m["properties"].(map[string]any)
	require.True(t, ok)
	name := props["name"].(map[string]any)
	assert.Equal(t, "string", name["type"])
	assert.Equal(t, "who to greet", name["description"])

	shout := props["shout"].(map[string]any)
	assert.Equal(t, false, shout["default"])

	assert.Equal(t, []any{"name"}, m["required"])
}

func TestSchema_MarshalEmptyRequiredOmitted(t *testing.T) {
	b, err := json.Marshal(Object(Param{Name: "x", Type: TypeString}))
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"required"`)
}

func TestSchema_RoundTrip(t *testing.T) {
	orig := Object(
		Param{Name: "first", Type: TypeString, Required: true, Description: "d1"},
		Param{Name: "second", Type: TypeInteger, Default: float64(2)},
		Param{Name: "third", Type: TypeArray},
	)

	b, err := json.Marshal(orig)
	require.NoError(t, err)

	var got Schema
	require.NoError(t, json.Unmarshal(b, &got))

	require.Len(t, got.Params, 3)
	assert.Equal(t, "first", got.Params[0].Name)
	assert.Equal(t, "second", got.Params[1].Name)
	assert.Equal(t, "third", got.Params[2].Name)
	assert.True(t, got.Params[0].Required)
	assert.False(t, got.Params[1].Required)
	assert.Equal(t, float64(2), got.Params[1].Default)
}

func TestSchema_UnmarshalOrderIgnoresNestedMentions(t *testing.T) {
	// "beta" is quoted inside an earlier property's description; that must
	// not pull it ahead of its actual position.
	data := `{"type":"object","properties":{` +
		`"alpha":{"type":"string","description":"see \"beta\" for details"},` +
		`"beta":{"type":"string"}}}`

	var s Schema
	require.NoError(t, json.Unmarshal([]byte(data), &s))
	require.Len(t, s.Params, 2)
	assert.Equal(t, "alpha", s.Params[0].Name)
	assert.Equal(t, "beta", s.Params[1].Name)
}

func TestSchema_UnmarshalOrderIgnoresRequiredPlacement(t *testing.T) {
	// A required list serialized ahead of properties must not reorder the
	// decoded params.
	data := `{"type":"object","required":["second"],"properties":{` +
		`"first":{"type":"string"},` +
		`"second":{"type":"integer"}}}`

	var s Schema
	require.NoError(t, json.Unmarshal([]byte(data), &s))
	require.Len(t, s.Params, 2)
	assert.Equal(t, "first", s.Params[0].Name)
	assert.Equal(t, "second", s.Params[1].Name)
	assert.True(t, s.Params[1].Required)
}

func TestSchema_ParamLookup(t *testing.T) {
	s := greetSchema()
	p, ok := s.Param("shout")
	require.True(t, ok)
	assert.Equal(t, TypeBoolean, p.Type)

	_, ok = s.Param("nope")
	assert.False(t, ok)
}
