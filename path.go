// Package jsontree contains the core domain types and interfaces for storing
// JSON documents as a tree of plain files and directories.
package jsontree

import (
	"fmt"
	"strings"
)

// Path identifies exactly one entry in the document tree as an ordered list of
// names. Segments are never empty; an absolute storage root keeps its leading
// "/" as a segment of its own.
type Path []string

// ParsePath splits a slash-delimited string into segments, dropping the empty
// pieces produced by leading, trailing or doubled slashes.
func ParsePath(s string) Path {
	p := Path{}
	for seg := range strings.SplitSeq(s, "/") {
		if seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// ParseRoot is like [ParsePath] but keeps a leading "/" so that an absolute
// storage directory stays absolute once request segments are appended to it.
func ParseRoot(s string) Path {
	p := ParsePath(s)
	if strings.HasPrefix(s, "/") {
		return append(Path{"/"}, p...)
	}
	return p
}

// Child returns a new Path with name appended. The receiver is never modified.
func (p Path) Child(name string) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, name)
}

// Join returns a new Path made of p followed by other.
func (p Path) Join(other Path) Path {
	joined := make(Path, 0, len(p)+len(other))
	joined = append(joined, p...)
	return append(joined, other...)
}

// Name returns the last segment or "" for an empty Path.
func (p Path) Name() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) String() string {
	if len(p) > 0 && p[0] == "/" {
		return "/" + strings.Join(p[1:], "/")
	}
	return strings.Join(p, "/")
}

// ValidateSegment reports whether name can be used as a single path segment:
// it must be non-empty, must not be "." or "..", and must not contain a slash
// or a NUL byte.
func ValidateSegment(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("%w: %q contains a separator", ErrInvalidPath, name)
	}
	return nil
}

// Validate checks every segment with [ValidateSegment].
func (p Path) Validate() error {
	for _, seg := range p {
		if err := ValidateSegment(seg); err != nil {
			return err
		}
	}
	return nil
}
