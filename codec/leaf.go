package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/brettbedarf/jsontree"
)

const nullText = "null"

// encodeLeaf renders a scalar as a leaf record. Numbers are written in their
// canonical decimal form.
func encodeLeaf(value any) (jsontree.Record, error) {
	switch v := value.(type) {
	case nil:
		return jsontree.Record{Tag: jsontree.TagNull, Value: nullText}, nil
	case bool:
		return jsontree.Record{Tag: jsontree.TagBool, Value: strconv.FormatBool(v)}, nil
	case string:
		return jsontree.Record{Tag: jsontree.TagString, Value: v}, nil
	case json.Number:
		if !isNumber(string(v)) {
			return jsontree.Record{}, fmt.Errorf("invalid number literal %q", string(v))
		}
		return numberRecord(string(v)), nil
	case float64:
		return encodeFloat(v, 64)
	case float32:
		return encodeFloat(float64(v), 32)
	case int:
		return numberRecord(strconv.FormatInt(int64(v), 10)), nil
	case int8:
		return numberRecord(strconv.FormatInt(int64(v), 10)), nil
	case int16:
		return numberRecord(strconv.FormatInt(int64(v), 10)), nil
	case int32:
		return numberRecord(strconv.FormatInt(int64(v), 10)), nil
	case int64:
		return numberRecord(strconv.FormatInt(v, 10)), nil
	case uint:
		return numberRecord(strconv.FormatUint(uint64(v), 10)), nil
	case uint8:
		return numberRecord(strconv.FormatUint(uint64(v), 10)), nil
	case uint16:
		return numberRecord(strconv.FormatUint(uint64(v), 10)), nil
	case uint32:
		return numberRecord(strconv.FormatUint(uint64(v), 10)), nil
	case uint64:
		return numberRecord(strconv.FormatUint(v, 10)), nil
	}
	return jsontree.Record{}, &jsontree.UnsupportedValueError{Type: reflect.TypeOf(value)}
}

func numberRecord(text string) jsontree.Record {
	return jsontree.Record{Tag: jsontree.TagNumber, Value: text}
}

// encodeFloat uses the same formatting as encoding/json; NaN and infinities are
// rejected there and here.
func encodeFloat(f float64, bits int) (jsontree.Record, error) {
	var (
		b   []byte
		err error
	)
	if bits == 32 {
		b, err = json.Marshal(float32(f))
	} else {
		b, err = json.Marshal(f)
	}
	if err != nil {
		return jsontree.Record{}, err
	}
	return numberRecord(string(b)), nil
}

// decodeLeaf maps a record back onto a value. NUMBER and BOOL records whose
// text does not parse come back as a string of the raw text.
func (t *Tree) decodeLeaf(path jsontree.Path, rec jsontree.Record) any {
	switch rec.Tag {
	case jsontree.TagNull:
		return nil
	case jsontree.TagNumber:
		if isNumber(rec.Value) {
			return json.Number(rec.Value)
		}
		t.logger.Warn().Stringer("path", path).Str("value", rec.Value).Msg("Malformed number, reading as string")
		return rec.Value
	case jsontree.TagBool:
		switch rec.Value {
		case "true":
			return true
		case "false":
			return false
		}
		t.logger.Warn().Stringer("path", path).Str("value", rec.Value).Msg("Malformed bool, reading as string")
		return rec.Value
	default:
		return rec.Value
	}
}

// isNumber reports whether s is a single JSON number literal.
func isNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && !isDigit(c) {
		return false
	}
	if !isDigit(s[len(s)-1]) {
		return false
	}
	return json.Valid([]byte(s))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
