package jsontree

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrEmptyRequest is returned by the transport when a write carries no body
	ErrEmptyRequest = errors.New("empty request body")
	// ErrInvalidPath marks a path or object key that cannot be used as a segment
	ErrInvalidPath = errors.New("invalid path")
)

// AggregateError bundles the independent failures of sibling operations under
// one collection. Errs may themselves be aggregates when failures happen
// deeper in the tree.
type AggregateError struct {
	Op   string
	Path Path
	Errs []error
}

// Aggregate returns nil when errs is empty and an [*AggregateError] otherwise.
func Aggregate(op string, path Path, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Op: op, Path: path, Errs: errs}
}

func (e *AggregateError) Unwrap() []error {
	return e.Errs
}

func (e *AggregateError) Error() string {
	buf := e.appendHeader(nil)
	buf = appendErrLines(buf, e.Errs, 1)
	return string(buf)
}

func (e *AggregateError) appendHeader(buf []byte) []byte {
	if e.Op != "" {
		buf = append(buf, e.Op...)
		buf = append(buf, ' ')
	}
	if len(e.Path) > 0 {
		buf = append(buf, e.Path.String()...)
		buf = append(buf, ": "...)
	}
	return fmt.Appendf(buf, "%d failed", len(e.Errs))
}

var bulletPrefix = []byte("• ")

func appendErrLines(buf []byte, errs []error, level int) []byte {
	for _, err := range errs {
		buf = append(buf, '\n')
		for range level {
			buf = append(buf, "  "...)
		}
		buf = append(buf, bulletPrefix...)
		if agg, ok := err.(*AggregateError); ok {
			buf = agg.appendHeader(buf)
			buf = appendErrLines(buf, agg.Errs, level+1)
			continue
		}
		buf = append(buf, err.Error()...)
	}
	return buf
}

// Leaves flattens nested aggregates into the list of individual failures.
func (e *AggregateError) Leaves() []error {
	var leaves []error
	for _, err := range e.Errs {
		if agg, ok := err.(*AggregateError); ok {
			leaves = append(leaves, agg.Leaves()...)
			continue
		}
		leaves = append(leaves, err)
	}
	return leaves
}

// IOError records a failed backend operation and the path it was applied to.
type IOError struct {
	Op   string
	Path Path
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DeserializeError is returned when a request body cannot be parsed into a value
type DeserializeError struct {
	Err error
}

func (e *DeserializeError) Error() string {
	return "deserialize: " + e.Err.Error()
}

func (e *DeserializeError) Unwrap() error { return e.Err }

// UnsupportedValueError is returned when the encoder is handed a Go value
// outside the JSON value model.
type UnsupportedValueError struct {
	Type reflect.Type
}

func (e *UnsupportedValueError) Error() string {
	if e.Type == nil {
		return "unsupported value type <nil>"
	}
	return "unsupported value type " + e.Type.String()
}
