package state

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// FileName is the timestamp store kept in the site root.
const FileName = ".contents-ts.json"

// Timestamps maps a file identity key to the modification time, in unix
// seconds, of the copy last uploaded.
type Timestamps map[string]float64

// Load reads the timestamp store at path. A missing file is a cold start and
// yields an empty store. A file that cannot be read or decoded also yields
// an empty store, together with the error so the caller can report it.
func Load(fs afero.Fs, path string) (Timestamps, error) {
	data, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return Timestamps{}, nil
	}
	if err != nil {
		return Timestamps{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var ts Timestamps
	if err := json.Unmarshal(data, &ts); err != nil {
		return Timestamps{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if ts == nil {
		ts = Timestamps{}
	}
	return ts, nil
}

// Save writes the store to path with keys in sorted order.
func Save(fs afero.Fs, path string, ts Timestamps) error {
	if ts == nil {
		ts = Timestamps{}
	}
	data, err := json.MarshalIndent(ts, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding timestamps: %w", err)
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Clone returns an independent copy of the store.
func (ts Timestamps) Clone() Timestamps {
	out := make(Timestamps, len(ts))
	for k, v := range ts {
		out[k] = v
	}
	return out
}

// Retain returns a copy holding only the entries whose key is in keys.
func (ts Timestamps) Retain(keys []string) Timestamps {
	out := make(Timestamps, len(keys))
	for _, k := range keys {
		if v, ok := ts[k]; ok {
			out[k] = v
		}
	}
	return out
}
