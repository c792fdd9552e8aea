package plan

import (
	"sort"
	"strings"
)

// Compact turns changed CDN keys into invalidation paths. Keys under a
// compactable folder that has more than one change are replaced by a
// folder wildcard, and wildcards nested under another compactable folder
// with changes are merged into that folder's wildcard. Keys outside every
// compactable folder are passed through. All results carry a leading slash.
//
// Folders are visited deepest first when folding and shallowest first when
// merging, so output order depends only on the folders, not on the order of
// changedKeys: merged folder paths in ascending folder order, then the
// pass-through keys in input order.
func Compact(changedKeys []string, compactableFolders []string) []string {
	if len(changedKeys) == 0 {
		return nil
	}
	folders := descendingFolders(compactableFolders)

	// Fold: each key is claimed by the deepest folder containing it.
	claimed := make([]bool, len(changedKeys))
	var folded []string
	for _, folder := range folders {
		folded = append(folded, collapse(changedKeys, claimed, folder)...)
	}

	// Merge: walk back up so ancestors claim their descendants' paths.
	merged := make([]bool, len(folded))
	result := make([]string, 0, len(folded))
	for i := len(folders) - 1; i >= 0; i-- {
		for _, p := range collapse(folded, merged, folders[i]) {
			result = append(result, "/"+p)
		}
	}

	for i, key := range changedKeys {
		if !claimed[i] {
			result = append(result, "/"+key)
		}
	}
	return result
}

// collapse claims the unclaimed entries of keys under folder. More than one
// claimed entry becomes the folder wildcard; a single one is kept as is.
func collapse(keys []string, claimed []bool, folder string) []string {
	idx := partition(keys, claimed, folder)
	switch len(idx) {
	case 0:
		return nil
	case 1:
		return []string{keys[idx[0]]}
	default:
		return []string{wildcard(folder)}
	}
}

// partition marks and returns the indexes of unclaimed keys under folder.
func partition(keys []string, claimed []bool, folder string) []int {
	prefix := folder + "/"
	if folder == "" {
		prefix = ""
	}
	var idx []int
	for i, key := range keys {
		if claimed[i] || !strings.HasPrefix(key, prefix) {
			continue
		}
		claimed[i] = true
		idx = append(idx, i)
	}
	return idx
}

func wildcard(folder string) string {
	if folder == "" {
		return "*"
	}
	return folder + "/*"
}

// descendingFolders normalizes folder paths and sorts them in descending
// order, which puts every folder before its ancestors.
func descendingFolders(folders []string) []string {
	seen := make(map[string]bool, len(folders))
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		f = strings.Trim(f, "/")
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
