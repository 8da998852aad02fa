// Package tomlpatch performs format-preserving edits on TOML documents.
//
// A span-tagging parse (Parse) produces a value tree where every value in
// assignment position carries the exact byte range it occupies in the source
// text. Replace and Delete use those spans to splice minimal edits into the
// original bytes, leaving comments, key ordering and hand-written formatting
// untouched. Every edit is verified by re-parsing the result with the plain
// decoder; a failed re-parse is reported as a CorruptionError and must be
// treated as a bug in the span arithmetic, never ignored.
//
// This is not a general TOML editor: paths must resolve to values that exist,
// and missing tables are never created implicitly.
package tomlpatch

import (
	"fmt"
	"strings"
)

// Path addresses a value inside a parsed document. Elements are string keys
// for tables and int indices for arrays.
type Path []any

// Key is a convenience constructor for a pure key path.
func Key(parts ...string) Path {
	p := make(Path, len(parts))
	for i, s := range parts {
		p[i] = s
	}
	return p
}

func (p Path) String() string {
	var b strings.Builder
	for i, part := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%v", part)
	}
	return b.String()
}

// PathNotFoundError reports a path whose intermediate or final key does not
// exist, or that indexes a non-container.
type PathNotFoundError struct {
	Path Path
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

// NotATaggedValueError reports a path that resolved to a structural table
// rather than a value in assignment position. It indicates a caller bug:
// edit rules must only ever target scalars, arrays, or inline tables.
type NotATaggedValueError struct {
	Path Path
}

func (e *NotATaggedValueError) Error() string {
	return fmt.Sprintf("path %s does not address a tagged value", e.Path)
}

// CorruptionError reports that an edit produced text the plain parser no
// longer accepts. The original content is left untouched by the caller.
type CorruptionError struct {
	Err error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("edit corrupted document: %v", e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }
