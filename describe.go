package statebox

import "github.com/goliatone/go-statebox/internal/tree"

// FieldDescriptor names one leaf of the tree and its Go type.
type FieldDescriptor struct {
	Path string
	Type string
}

// Paths lists the leaves of the current tree in sorted order. Sequences are
// reported as a single leaf typed by their first element and empty maps as a
// map leaf.
func (s *Store) Paths() []FieldDescriptor {
	snapshot := s.Snapshot()
	leaves := tree.Flatten(snapshot, "")
	out := make([]FieldDescriptor, 0, len(leaves))
	for _, leaf := range leaves {
		out = append(out, FieldDescriptor{Path: leaf.Path, Type: leaf.Type})
	}
	return out
}
