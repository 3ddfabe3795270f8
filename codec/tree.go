// Package codec maps JSON values onto a tree of leaf records and collection
// directories held by a [jsontree.Backend], and reads them back.
//
// Scalars become a single two-line leaf record. Objects and arrays become a
// directory holding a class record plus one entry per member. Failures of
// sibling members never stop the others; they are reported together as a
// [jsontree.AggregateError].
package codec

import (
	"errors"

	"github.com/brettbedarf/jsontree"
	"github.com/brettbedarf/jsontree/internal/util"
	"github.com/rs/zerolog"
)

// Tree reads and writes JSON values below a fixed storage root.
// It holds no state besides its collaborators and is safe for concurrent use
// as long as the backend is.
type Tree struct {
	backend jsontree.Backend
	root    jsontree.Path
	logger  zerolog.Logger
}

// Option configures a [Tree]
type Option func(*Tree)

// WithLogger replaces the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// New creates a Tree storing values in backend below root.
func New(backend jsontree.Backend, root jsontree.Path, opts ...Option) *Tree {
	t := &Tree{
		backend: backend,
		root:    root,
		logger:  util.GetLogger("codec"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the storage root every request path is resolved against.
func (t *Tree) Root() jsontree.Path {
	return t.root
}

// Backend returns the storage backend.
func (t *Tree) Backend() jsontree.Backend {
	return t.backend
}

// Resolve joins a request path onto the storage root.
func (t *Tree) Resolve(path jsontree.Path) jsontree.Path {
	return t.root.Join(path)
}

// Get reads the value stored at path relative to the storage root.
// user is the caller identity; it is logged and otherwise ignored.
func (t *Tree) Get(path jsontree.Path, user string) (any, error) {
	t.logger.Trace().Str("user", user).Stringer("path", path).Msg("Get")
	return t.ReadPath(t.Resolve(path))
}

// Put writes value at path relative to the storage root.
// user is the caller identity; it is logged and otherwise ignored.
func (t *Tree) Put(path jsontree.Path, value any, user string) error {
	t.logger.Trace().Str("user", user).Stringer("path", path).Msg("Put")
	return t.WritePath(t.Resolve(path), value)
}

// ioErr tags a backend failure with the operation and path unless the backend
// already did.
func ioErr(op string, path jsontree.Path, err error) error {
	var ioe *jsontree.IOError
	if errors.As(err, &ioe) {
		return err
	}
	return &jsontree.IOError{Op: op, Path: path, Err: err}
}
