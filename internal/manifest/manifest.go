package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"
)

const (
	// FileName is the manifest looked up in the site root.
	FileName = "contents.json"
	// PreviousFileName holds the manifest of the last successful deployment.
	PreviousFileName = "contents.old.json"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

// FilePair maps a local file, relative to the site root, to the name it is
// served under in its folder.
type FilePair struct {
	Local  string
	Remote string
}

// UnmarshalJSON accepts either "name" or ["local", "remote"].
func (p *FilePair) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		p.Local, p.Remote = single, single
		return nil
	}

	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
		return fmt.Errorf("file entry must be a string or a [local, remote] pair: %s", data)
	}
	p.Local, p.Remote = pair[0], pair[1]
	return nil
}

// MarshalJSON writes the short form when the file is not renamed.
func (p FilePair) MarshalJSON() ([]byte, error) {
	if p.Local == p.Remote {
		return json.Marshal(p.Local)
	}
	return json.Marshal([]string{p.Local, p.Remote})
}

// IdentityKey is the timestamp store key for the file. Renamed uploads are
// keyed as "local as remote" so the same local file can be served twice.
func (p FilePair) IdentityKey() string {
	if p.Local == p.Remote {
		return p.Local
	}
	return p.Local + " as " + p.Remote
}

// Folder is a key prefix in the bucket and the files served under it.
type Folder struct {
	Path                string     `json:"folder"`
	CompactInvalidation bool       `json:"compactInvalidation,omitempty"`
	Prune               bool       `json:"prune,omitempty"`
	Files               []FilePair `json:"files"`
}

// UnmarshalJSON rejects folders without a path or a file list.
func (f *Folder) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path                *string     `json:"folder"`
		CompactInvalidation bool        `json:"compactInvalidation"`
		Prune               bool        `json:"prune"`
		Files               *[]FilePair `json:"files"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Path == nil {
		return fmt.Errorf("folder entry is missing \"folder\"")
	}
	if raw.Files == nil {
		return fmt.Errorf("folder %q is missing \"files\"", *raw.Path)
	}
	*f = Folder{
		Path:                *raw.Path,
		CompactInvalidation: raw.CompactInvalidation,
		Prune:               raw.Prune,
		Files:               *raw.Files,
	}
	return nil
}

// Manifest describes what to deploy and where.
type Manifest struct {
	// KeychainItem names the AWS shared config profile to use. Empty means
	// the default credential chain.
	KeychainItem   string   `json:"keychainItem,omitempty"`
	Region         string   `json:"region"`
	Bucket         string   `json:"bucket"`
	DistributionID string   `json:"cloudFront"`
	OriginPath     string   `json:"originPathFolder"`
	Folders        []Folder `json:"contents"`
}

// Decode parses a manifest. JSON is the documented format; anything that
// does not start with an object is read as YAML.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return nil, err
		}
		return &m, nil
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and decodes the manifest at path and resolves its variables.
func Load(fs afero.Fs, path string, overrides map[string]string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m.Expand(overrides), nil
}

// Expand returns a copy with $VARNAME placeholders in region, bucket,
// distribution and origin path resolved, first against overrides and then
// against the environment. Unknown variables are left as they are.
func (m *Manifest) Expand(overrides map[string]string) *Manifest {
	out := *m
	for _, field := range []*string{&out.Region, &out.Bucket, &out.DistributionID, &out.OriginPath} {
		if !strings.HasPrefix(*field, "$") {
			continue
		}
		name := strings.TrimPrefix(*field, "$")
		if v, ok := overrides[name]; ok {
			*field = v
		} else if v, ok := lookupEnv(name); ok {
			*field = v
		}
	}
	return &out
}

// Validate reports settings a deployment cannot proceed without.
func (m *Manifest) Validate() error {
	required := []struct {
		name, value string
	}{
		{"region", m.Region},
		{"bucket", m.Bucket},
		{"cloudFront", m.DistributionID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("manifest %s is empty", r.name)
		}
		if strings.HasPrefix(r.value, "$") {
			return fmt.Errorf("manifest %s references unset variable %s", r.name, r.value)
		}
	}
	if strings.HasPrefix(m.OriginPath, "$") {
		return fmt.Errorf("manifest originPathFolder references unset variable %s", m.OriginPath)
	}
	return nil
}
