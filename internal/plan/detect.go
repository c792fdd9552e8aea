package plan

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/ghv/print/internal/manifest"
	"github.com/ghv/print/internal/state"
)

// Change is a file that has to be uploaded.
type Change struct {
	LocalPath   string // path on disk
	Key         string // CDN path without the leading slash
	IdentityKey string // timestamp store key
}

// ModTimeFunc reports the modification time of path in unix seconds, or 0
// when it cannot be read.
type ModTimeFunc func(path string) float64

// FileModTime returns a ModTimeFunc backed by fs.
func FileModTime(fs afero.Fs) ModTimeFunc {
	return func(path string) float64 {
		info, err := fs.Stat(path)
		if err != nil {
			return 0
		}
		return float64(info.ModTime().UnixNano()) / 1e9
	}
}

// Detect lists the files of m that changed since they were last uploaded,
// in manifest order, and returns the store updated with their current
// modification times. A file is changed when it has no entry in prev or its
// modification time is strictly later than the entry. prev is not modified.
func Detect(root string, m *manifest.Manifest, prev state.Timestamps, modTime ModTimeFunc) ([]Change, state.Timestamps) {
	next := prev.Clone()
	var changes []Change
	for _, folder := range m.Folders {
		for _, file := range folder.Files {
			id := file.IdentityKey()
			local := filepath.Join(root, filepath.FromSlash(file.Local))
			current := modTime(local)
			if last, ok := prev[id]; ok && current <= last {
				continue
			}
			changes = append(changes, Change{
				LocalPath:   local,
				Key:         folder.Key(file),
				IdentityKey: id,
			})
			next[id] = current
		}
	}
	return changes, next
}
