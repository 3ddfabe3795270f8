package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/brettbedarf/jsontree"
	"github.com/fxamacker/cbor/v2"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("server: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("server: CBOR decoder initialization failed: " + err.Error())
	}
}

// isCBOR reports whether a Content-Type value names CBOR.
func isCBOR(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == contentTypeCBOR
}

// wantsCBOR reports whether an Accept header lists CBOR.
func wantsCBOR(accept string) bool {
	for part := range strings.SplitSeq(accept, ",") {
		if isCBOR(strings.TrimSpace(part)) {
			return true
		}
	}
	return false
}

// readBody decodes a PUT body into the JSON value model. The body must already
// be wrapped in http.MaxBytesReader.
func readBody(r *http.Request) (any, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, &jsontree.DeserializeError{Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, jsontree.ErrEmptyRequest
	}

	if isCBOR(r.Header.Get("Content-Type")) {
		var v any
		if err := cborDec.Unmarshal(data, &v); err != nil {
			return nil, &jsontree.DeserializeError{Err: err}
		}
		v, err = fromCBOR(v)
		if err != nil {
			return nil, &jsontree.DeserializeError{Err: err}
		}
		return v, nil
	}

	return jsontree.DecodeJSON(data)
}

// fromCBOR converts decoded CBOR into the JSON value model: numbers become
// json.Number and anything JSON cannot express is rejected.
func fromCBOR(v any) (any, error) {
	switch v := v.(type) {
	case nil, bool, string:
		return v, nil
	case uint64:
		return json.Number(strconv.FormatUint(v, 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(v, 10)), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("unsupported number %v", v)
		}
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case []any:
		for i, el := range v {
			conv, err := fromCBOR(el)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			v[i] = conv
		}
		return v, nil
	case map[string]any:
		for k, el := range v {
			conv, err := fromCBOR(el)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			v[k] = conv
		}
		return v, nil
	}
	return nil, fmt.Errorf("unsupported CBOR item of type %T", v)
}

// toCBOR replaces json.Number with a native number so CBOR encodes it as one
// rather than as a text string.
func toCBOR(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(string(v), 10, 64); err == nil {
			return u
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return string(v)
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = toCBOR(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, el := range v {
			out[k] = toCBOR(el)
		}
		return out
	}
	return v
}

// encodeValue renders v as CBOR when the client asks for it and as JSON
// otherwise.
func encodeValue(v any, accept string) (body []byte, contentType string, err error) {
	if wantsCBOR(accept) {
		body, err = cborEnc.Marshal(toCBOR(v))
		return body, contentTypeCBOR, err
	}
	body, err = json.Marshal(v)
	return body, contentTypeJSON, err
}
