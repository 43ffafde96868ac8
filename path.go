package statebox

import (
	"fmt"
	"strconv"
	"strings"
)

// RootPath is the textual sentinel addressing the whole tree.
const RootPath = "*"

// Path is a parsed, validated address into the tree. The zero value is the
// root path.
type Path struct {
	segments []string
}

// Root returns the path addressing the whole tree.
func Root() Path {
	return Path{}
}

// ParsePath parses a dotted path. "*" and "" parse to the root path; every
// other input must consist of non-empty segments separated by dots.
func ParsePath(raw string) (Path, error) {
	if raw == "" || raw == RootPath {
		return Root(), nil
	}
	segments := strings.Split(raw, ".")
	for _, segment := range segments {
		if segment == "" {
			return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
		}
	}
	return Path{segments: segments}, nil
}

// MustParsePath is like ParsePath but panics on malformed input. Intended for
// package-level path constants.
func MustParsePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// PathOf builds a path from literal segments. Unlike ParsePath, a "*" segment
// is an ordinary key and segments may contain dots.
func PathOf(segments ...string) (Path, error) {
	if len(segments) == 0 {
		return Path{}, fmt.Errorf("%w: no segments", ErrInvalidPath)
	}
	for _, segment := range segments {
		if segment == "" {
			return Path{}, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, segments)
		}
	}
	return Path{segments: append([]string(nil), segments...)}, nil
}

// IsRoot reports whether p addresses the whole tree.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Child returns p extended by segment.
func (p Path) Child(segment string) (Path, error) {
	if segment == "" {
		return Path{}, fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	segments := make([]string, 0, len(p.segments)+1)
	segments = append(segments, p.segments...)
	return Path{segments: append(segments, segment)}, nil
}

func (p Path) String() string {
	if p.IsRoot() {
		return RootPath
	}
	return strings.Join(p.segments, ".")
}

// Key identifies the path in the subscriber registry. Root is the only empty
// key; every other key is the quoted segment list, so distinct paths never
// share a key whatever bytes their segments hold.
func (p Path) Key() string {
	if p.IsRoot() {
		return ""
	}
	quoted := make([]string, len(p.segments))
	for i, segment := range p.segments {
		quoted[i] = strconv.Quote(segment)
	}
	return strings.Join(quoted, ".")
}
