package plan

import "sort"

// Prune returns the edge keys in previous that are not in current, sorted.
//
// previous is expected to come from the last deployed manifest with only its
// pruning folders included, current from the manifest being deployed with
// every folder included.
func Prune(previous, current []string) []string {
	wanted := make(map[string]bool, len(current))
	for _, key := range current {
		wanted[key] = true
	}

	var stale []string
	seen := make(map[string]bool)
	for _, key := range previous {
		if wanted[key] || seen[key] {
			continue
		}
		seen[key] = true
		stale = append(stale, key)
	}
	sort.Strings(stale)
	return stale
}
