package tree

import (
	"errors"
	"strconv"
)

// ErrConflict reports that a write would have to descend through an existing
// leaf (scalar, struct, out-of-range sequence index) to reach its target.
var ErrConflict = errors.New("tree: path conflicts with existing leaf")

// Lookup walks root segment by segment. Maps are indexed by key and []any
// sequences by decimal index. A missing key, a nil or leaf intermediate, or an
// out-of-range index all report ok=false. The returned value is not copied.
func Lookup(root map[string]any, segments []string) (any, bool) {
	var current any = root
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, ok := sequenceIndex(node, segment)
			if !ok {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Assign stores value at segments inside root, growing missing (or nil)
// intermediates as maps. Existing maps and in-range sequence elements are
// descended into. Any other intermediate yields ErrConflict; because growth
// only starts once the walk has left existing nodes, root is untouched when an
// error is returned.
func Assign(root map[string]any, segments []string, value any) error {
	if len(segments) == 0 {
		return ErrConflict
	}

	var container any = root
	for i, segment := range segments {
		last := i == len(segments)-1
		switch node := container.(type) {
		case map[string]any:
			if last {
				node[segment] = value
				return nil
			}
			child, ok := node[segment]
			if !ok || child == nil {
				grown := map[string]any{}
				node[segment] = grown
				container = grown
				continue
			}
			if !isContainer(child) {
				return ErrConflict
			}
			container = child
		case []any:
			idx, ok := sequenceIndex(node, segment)
			if !ok {
				return ErrConflict
			}
			if last {
				node[idx] = value
				return nil
			}
			child := node[idx]
			if child == nil {
				grown := map[string]any{}
				node[idx] = grown
				container = grown
				continue
			}
			if !isContainer(child) {
				return ErrConflict
			}
			container = child
		default:
			return ErrConflict
		}
	}
	return nil
}

func isContainer(value any) bool {
	switch value.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

func sequenceIndex(seq []any, segment string) (int, bool) {
	idx, err := strconv.Atoi(segment)
	if err != nil || idx < 0 || idx >= len(seq) {
		return 0, false
	}
	return idx, true
}
