package manifest

import (
	"path"
	"strings"
)

// JoinPath appends component to base with a single separating slash. An
// empty base yields component unchanged.
func JoinPath(base, component string) string {
	if base != "" && !strings.HasSuffix(base, "/") {
		return base + "/" + component
	}
	return base + component
}

// Key returns the CDN path of file within the folder, without a leading
// slash. Only the base name of the remote name is used.
func (f Folder) Key(file FilePair) string {
	return JoinPath(f.Path, path.Base(file.Remote))
}

// EdgeKey returns the absolute CDN path for a key.
func EdgeKey(key string) string {
	return "/" + strings.TrimPrefix(key, "/")
}

// ObjectKey returns the bucket key for a CDN key: the key below the origin
// path the distribution serves from.
func (m *Manifest) ObjectKey(key string) string {
	return JoinPath(m.OriginPath, strings.TrimPrefix(key, "/"))
}

// AllKnownKeys returns the edge keys this manifest is responsible for, in
// manifest order without duplicates. Unless includeAll is set only folders
// marked for pruning contribute.
func (m *Manifest) AllKnownKeys(includeAll bool) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, folder := range m.Folders {
		if !includeAll && !folder.Prune {
			continue
		}
		for _, file := range folder.Files {
			key := EdgeKey(folder.Key(file))
			if seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// FileIdentityKeys returns the identity key of every file in the manifest.
func (m *Manifest) FileIdentityKeys() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, folder := range m.Folders {
		for _, file := range folder.Files {
			id := file.IdentityKey()
			if seen[id] {
				continue
			}
			seen[id] = true
			keys = append(keys, id)
		}
	}
	return keys
}

// CompactableFolders returns the paths of folders whose invalidations may be
// folded into a wildcard.
func (m *Manifest) CompactableFolders() []string {
	var folders []string
	for _, folder := range m.Folders {
		if folder.CompactInvalidation {
			folders = append(folders, folder.Path)
		}
	}
	return folders
}
