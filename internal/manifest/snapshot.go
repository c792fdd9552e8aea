package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LoadPrevious loads the manifest snapshot taken after the last successful
// deployment in root. It returns nil without error when no snapshot exists,
// which is the case on a first deployment.
func LoadPrevious(fs afero.Fs, root string, overrides map[string]string) (*Manifest, error) {
	path := filepath.Join(root, PreviousFileName)
	if _, err := fs.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return Load(fs, path, overrides)
}

// SaveSnapshot copies the current manifest in root over the previous
// snapshot. The raw file is kept so variables resolve again on the next run.
func SaveSnapshot(fs afero.Fs, root string) error {
	current := filepath.Join(root, FileName)
	data, err := afero.ReadFile(fs, current)
	if err != nil {
		return fmt.Errorf("reading %s: %w", current, err)
	}
	previous := filepath.Join(root, PreviousFileName)
	if err := afero.WriteFile(fs, previous, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", previous, err)
	}
	return nil
}
