package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func greetSchema() Schema {
	return Object(
		Param{Name: "name", Type: TypeString, Required: true},
		Param{Name: "shout", Type: TypeBoolean, Default: false},
		Param{Name: "times", Type: TypeInteger, Default: float64(1)},
	)
}

func TestValidate_MissingRequired(t *testing.T) {
	_, err := Validate(greetSchema(), map[string]any{"shout": true})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Param)
	assert.Equal(t, "missing required parameter name", err.Error())
}

func TestValidate_TypeMismatch(t *testing.T) {
	cases := []struct {
		name string
		args map[string]any
	}{
		{"string gets number", map[string]any{"name": 42.0}},
		{"boolean gets string", map[string]any{"name": "Ada", "shout": "yes"}},
		{"integer gets fraction", map[string]any{"name": "Ada", "times": 1.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(greetSchema(), tc.args)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), "type mismatch for")
		})
	}
}

func TestValidate_IntegralFloatIsInteger(t *testing.T) {
	out, err := Validate(greetSchema(), map[string]any{"name": "Ada", "times": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out["times"])
}

func TestValidate_DefaultsApplied(t *testing.T) {
	out, err := Validate(greetSchema(), map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", out["name"])
	assert.Equal(t, false, out["shout"])
	assert.Equal(t, float64(1), out["times"])
}

func TestValidate_UnknownKeysStripped(t *testing.T) {
	out, err := Validate(greetSchema(), map[string]any{"name": "Ada", "color": "red"})
	require.NoError(t, err)
	assert.NotContains(t, out, "color")
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	args := map[string]any{"name": "Ada", "color": "red"}
	_, err := Validate(greetSchema(), args)
	require.NoError(t, err)

	// Original map keeps its unknown key and gains no defaults.
	assert.Equal(t, map[string]any{"name": "Ada", "color": "red"}, args)
}

func TestValidate_NilArgs(t *testing.T) {
	out, err := Validate(Object(Param{Name: "verbose", Type: TypeBoolean, Default: true}), nil)
	require.NoError(t, err)
	assert.Equal(t, true, out["verbose"])

	_, err = Validate(greetSchema(), nil)
	require.Error(t, err)
}

func TestValidate_EmptySchemaSanitizesEverything(t *testing.T) {
	out, err := Validate(Schema{}, map[string]any{"anything": 1})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestValidate_ArrayAndObjectTypes(t *testing.T) {
	s := Object(
		Param{Name: "tags", Type: TypeArray, Required: true},
		Param{Name: "meta", Type: TypeObject, Required: true},
	)
	out, err := Validate(s, map[string]any{
		"tags": []any{"a", "b"},
		"meta": map[string]any{"k": "v"},
	})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = Validate(s, map[string]any{"tags": "a,b", "meta": map[string]any{}})
	require.Error(t, err)
}
