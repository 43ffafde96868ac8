package statebox

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		raw      string
		segments []string
		root     bool
		err      bool
	}{
		{raw: "*", root: true},
		{raw: "", root: true},
		{raw: "count", segments: []string{"count"}},
		{raw: "user.preferences.theme", segments: []string{"user", "preferences", "theme"}},
		{raw: "todos.0", segments: []string{"todos", "0"}},
		{raw: "a..b", err: true},
		{raw: ".a", err: true},
		{raw: "a.", err: true},
		{raw: ".", err: true},
	}
	for _, tc := range cases {
		p, err := ParsePath(tc.raw)
		if tc.err {
			if !errors.Is(err, ErrInvalidPath) {
				t.Fatalf("ParsePath(%q): expected ErrInvalidPath, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", tc.raw, err)
		}
		if p.IsRoot() != tc.root {
			t.Fatalf("ParsePath(%q).IsRoot() = %v", tc.raw, p.IsRoot())
		}
		if !tc.root {
			if diff := cmp.Diff(tc.segments, p.Segments()); diff != "" {
				t.Fatalf("ParsePath(%q) segments (-want +got):\n%s", tc.raw, diff)
			}
			if p.String() != tc.raw {
				t.Fatalf("expected String() %q, got %q", tc.raw, p.String())
			}
		}
	}
}

func TestRootStringAndKey(t *testing.T) {
	if Root().String() != RootPath {
		t.Fatalf("expected root to print as %q", RootPath)
	}
	literal, _ := PathOf("*")
	if literal.IsRoot() {
		t.Fatalf("literal star must not be root")
	}
	if literal.Key() == Root().Key() {
		t.Fatalf("literal star key collides with root key")
	}
}

func TestPathOfKeepsDotsInsideSegments(t *testing.T) {
	p, err := PathOf("hosts", "example.com")
	if err != nil {
		t.Fatalf("PathOf: %v", err)
	}
	dotted := MustParsePath("hosts.example.com")
	if p.Key() == dotted.Key() {
		t.Fatalf("segment with dot must not alias the dotted path")
	}

	store := New()
	if err := store.SetPath(p, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"hosts": map[string]any{"example.com": 1}}, store.Snapshot()); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestPathOfRejectsEmpty(t *testing.T) {
	if _, err := PathOf(); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected error for no segments, got %v", err)
	}
	if _, err := PathOf("a", ""); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected error for empty segment, got %v", err)
	}
}

func TestPathChildAndSegmentsCopy(t *testing.T) {
	p := MustParsePath("user")
	child, err := p.Child("name")
	if err != nil {
		t.Fatalf("child: %v", err)
	}
	if child.String() != "user.name" {
		t.Fatalf("expected user.name, got %s", child)
	}
	segments := child.Segments()
	segments[0] = "mutated"
	if child.String() != "user.name" {
		t.Fatalf("Segments leaked internal slice")
	}
	if _, err := p.Child(""); err == nil {
		t.Fatalf("expected error for empty child")
	}
}

func TestMustParsePathPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustParsePath("a..b")
}
