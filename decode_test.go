package jsontree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	v, err := DecodeJSON([]byte(` {"age": 43, "lat": -88.50, "tags": ["a"], "none": null} `))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"age":  json.Number("43"),
		"lat":  json.Number("-88.50"),
		"tags": []any{"a"},
		"none": nil,
	}, v)

	v, err = DecodeJSON([]byte("\"x\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestDecodeJSON_Rejections(t *testing.T) {
	t.Parallel()

	for _, blank := range []string{"", "  \n\t"} {
		_, err := DecodeJSON([]byte(blank))
		assert.ErrorIs(t, err, ErrEmptyRequest, "input %q", blank)
	}

	for _, bad := range []string{`{"a": `, `1 2`, `{} []`, `nope`} {
		_, err := DecodeJSON([]byte(bad))
		var de *DeserializeError
		assert.ErrorAs(t, err, &de, "input %q", bad)
	}
}
