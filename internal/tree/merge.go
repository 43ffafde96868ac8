package tree

// Merge folds src into dst. Nested maps present on both sides are merged
// recursively; every other value in src replaces the one in dst. Values taken
// from src are deep copied, so dst never aliases src.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		incoming, incomingIsMap := value.(map[string]any)
		existing, existingIsMap := dst[key].(map[string]any)
		if incomingIsMap && existingIsMap && incoming != nil && existing != nil {
			dst[key] = Merge(existing, incoming)
			continue
		}
		dst[key] = Clone(value)
	}
	return dst
}
