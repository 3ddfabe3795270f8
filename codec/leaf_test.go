package codec

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/brettbedarf/jsontree"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLeaf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  jsontree.Record
	}{
		{"null", nil, jsontree.Record{Tag: jsontree.TagNull, Value: "null"}},
		{"true", true, jsontree.Record{Tag: jsontree.TagBool, Value: "true"}},
		{"false", false, jsontree.Record{Tag: jsontree.TagBool, Value: "false"}},
		{"string", "test_obj", jsontree.Record{Tag: jsontree.TagString, Value: "test_obj"}},
		{"empty_string", "", jsontree.Record{Tag: jsontree.TagString, Value: ""}},
		{"json_number", json.Number("-88.594938"), jsontree.Record{Tag: jsontree.TagNumber, Value: "-88.594938"}},
		{"float_integral", 43.0, jsontree.Record{Tag: jsontree.TagNumber, Value: "43"}},
		{"float", 48.9999, jsontree.Record{Tag: jsontree.TagNumber, Value: "48.9999"}},
		{"float32", float32(0.5), jsontree.Record{Tag: jsontree.TagNumber, Value: "0.5"}},
		{"int", -78, jsontree.Record{Tag: jsontree.TagNumber, Value: "-78"}},
		{"int64", int64(1) << 60, jsontree.Record{Tag: jsontree.TagNumber, Value: "1152921504606846976"}},
		{"uint64", uint64(math.MaxUint64), jsontree.Record{Tag: jsontree.TagNumber, Value: "18446744073709551615"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := encodeLeaf(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeLeaf_Rejects(t *testing.T) {
	t.Parallel()

	_, err := encodeLeaf(struct{}{})
	var unsupported *jsontree.UnsupportedValueError
	assert.ErrorAs(t, err, &unsupported)

	_, err = encodeLeaf([]string{"a"})
	assert.ErrorAs(t, err, &unsupported)

	_, err = encodeLeaf(math.NaN())
	assert.Error(t, err)

	_, err = encodeLeaf(json.Number("12abc"))
	assert.Error(t, err)
}

func TestDecodeLeaf(t *testing.T) {
	t.Parallel()

	tree := New(nil, nil, WithLogger(zerolog.Nop()))
	path := jsontree.Path{"leaf"}

	tests := []struct {
		name string
		rec  jsontree.Record
		want any
	}{
		{"null", jsontree.Record{Tag: jsontree.TagNull, Value: "null"}, nil},
		{"null_ignores_payload", jsontree.Record{Tag: jsontree.TagNull, Value: "whatever"}, nil},
		{"number", jsontree.Record{Tag: jsontree.TagNumber, Value: "43"}, json.Number("43")},
		{"number_exp", jsontree.Record{Tag: jsontree.TagNumber, Value: "-1.5e10"}, json.Number("-1.5e10")},
		{"number_fallback", jsontree.Record{Tag: jsontree.TagNumber, Value: "forty-three"}, "forty-three"},
		{"number_trailing_space", jsontree.Record{Tag: jsontree.TagNumber, Value: "43 "}, "43 "},
		{"number_leading_plus", jsontree.Record{Tag: jsontree.TagNumber, Value: "+1"}, "+1"},
		{"number_empty", jsontree.Record{Tag: jsontree.TagNumber, Value: ""}, ""},
		{"bool_true", jsontree.Record{Tag: jsontree.TagBool, Value: "true"}, true},
		{"bool_false", jsontree.Record{Tag: jsontree.TagBool, Value: "false"}, false},
		{"bool_fallback", jsontree.Record{Tag: jsontree.TagBool, Value: "True"}, "True"},
		{"string", jsontree.Record{Tag: jsontree.TagString, Value: "43"}, "43"},
		{"class_as_string", jsontree.Record{Tag: jsontree.TagClass, Value: "OBJECT"}, "OBJECT"},
		{"unknown_as_string", jsontree.Record{Tag: jsontree.TagUnknown, Value: "raw", RawTag: "BLOB"}, "raw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tree.decodeLeaf(path, tt.rec))
		})
	}
}
