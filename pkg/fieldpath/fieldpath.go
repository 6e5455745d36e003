// Package fieldpath resolves dot-separated paths inside entity data bags.
package fieldpath

import "strings"

// Resolve walks a dot-separated path such as "buyer_profile.budget_max"
// through nested maps. It reports false as soon as a segment is missing or
// the current value is not a map; a missing value is never an error. A full
// walk reports true even when the leaf value itself is nil.
func Resolve(bag map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = bag

	for _, segment := range strings.Split(path, ".") {
		composite, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = composite[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}
