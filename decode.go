package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// DecodeJSON parses data as exactly one JSON value. Numbers come back as
// json.Number so they are stored as written. Blank input is [ErrEmptyRequest];
// anything else that does not parse is a [*DeserializeError].
func DecodeJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyRequest
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DeserializeError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DeserializeError{Err: errors.New("trailing data after JSON value")}
	}
	return v, nil
}
