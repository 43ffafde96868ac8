package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Leaf names one addressable value and its Go type.
type Leaf struct {
	Path string
	Type string
}

// Flatten lists the leaves under value in sorted path order. Empty maps are
// reported as a single map leaf, sequences as one leaf typed by their first
// element.
func Flatten(value any, prefix string) []Leaf {
	if value == nil {
		if prefix == "" {
			return nil
		}
		return []Leaf{{Path: prefix, Type: "nil"}}
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []Leaf{{Path: prefix, Type: "map[string]any"}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var leaves []Leaf
		for _, key := range keys {
			leaves = append(leaves, Flatten(typed[key], Join(prefix, key))...)
		}
		return leaves
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []Leaf{{Path: prefix, Type: "[]" + elementType}}
	default:
		if prefix == "" {
			return nil
		}
		return []Leaf{{Path: prefix, Type: typeName(typed)}}
	}
}

// Join appends segment to a dotted prefix.
func Join(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
