package plan

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghv/print/internal/manifest"
	"github.com/ghv/print/internal/state"
)

func fixedModTimes(times map[string]float64) ModTimeFunc {
	return func(path string) float64 {
		return times[filepath.ToSlash(path)]
	}
}

func siteManifest() *manifest.Manifest {
	return &manifest.Manifest{
		OriginPath: "www",
		Folders: []manifest.Folder{
			{Path: "", Files: []manifest.FilePair{
				{Local: "index.html", Remote: "index.html"},
			}},
			{Path: "blog", Files: []manifest.FilePair{
				{Local: "blog/one.html", Remote: "blog/one.html"},
				{Local: "drafts/two.html", Remote: "two.html"},
			}},
		},
	}
}

func TestDetect_ColdStart(t *testing.T) {
	modTime := fixedModTimes(map[string]float64{
		"site/index.html":      10,
		"site/blog/one.html":   11,
		"site/drafts/two.html": 12,
	})
	prev := state.Timestamps{}

	changes, next := Detect("site", siteManifest(), prev, modTime)

	assert.Equal(t, []Change{
		{LocalPath: filepath.Join("site", "index.html"), Key: "index.html", IdentityKey: "index.html"},
		{LocalPath: filepath.Join("site", "blog", "one.html"), Key: "blog/one.html", IdentityKey: "blog/one.html"},
		{LocalPath: filepath.Join("site", "drafts", "two.html"), Key: "blog/two.html", IdentityKey: "drafts/two.html as two.html"},
	}, changes)
	assert.Equal(t, state.Timestamps{
		"index.html":                  10,
		"blog/one.html":               11,
		"drafts/two.html as two.html": 12,
	}, next)
	assert.Empty(t, prev, "input store must not be modified")
}

func TestDetect_OnlyNewerFiles(t *testing.T) {
	modTime := fixedModTimes(map[string]float64{
		"site/index.html":      10,
		"site/blog/one.html":   20,
		"site/drafts/two.html": 5,
	})
	prev := state.Timestamps{
		"index.html":                  10, // equal: unchanged
		"blog/one.html":               11, // older: changed
		"drafts/two.html as two.html": 6,  // newer than the file: unchanged
		"gone.html":                   1,
	}

	changes, next := Detect("site", siteManifest(), prev, modTime)

	require.Len(t, changes, 1)
	assert.Equal(t, "blog/one.html", changes[0].IdentityKey)
	assert.Equal(t, state.Timestamps{
		"index.html":                  10,
		"blog/one.html":               20,
		"drafts/two.html as two.html": 6,
		"gone.html":                   1,
	}, next)
}

func TestDetect_Idempotent(t *testing.T) {
	modTime := fixedModTimes(map[string]float64{
		"site/index.html":      10.5,
		"site/blog/one.html":   11.25,
		"site/drafts/two.html": 12.125,
	})

	first, ts := Detect("site", siteManifest(), state.Timestamps{}, modTime)
	assert.Len(t, first, 3)

	second, ts2 := Detect("site", siteManifest(), ts, modTime)
	assert.Empty(t, second)
	assert.Equal(t, ts, ts2)
}

func TestDetect_Deterministic(t *testing.T) {
	modTime := fixedModTimes(map[string]float64{"site/index.html": 3, "site/blog/one.html": 2})
	a, _ := Detect("site", siteManifest(), state.Timestamps{}, modTime)
	b, _ := Detect("site", siteManifest(), state.Timestamps{}, modTime)
	assert.Equal(t, a, b)
}

// An unreadable file reads as time 0. With no entry it is reported once and
// recorded as 0; after that it only reappears once it has a real time.
func TestDetect_UnreadableFile(t *testing.T) {
	m := &manifest.Manifest{Folders: []manifest.Folder{{
		Path:  "a",
		Files: []manifest.FilePair{{Local: "missing.html", Remote: "missing.html"}},
	}}}
	modTime := fixedModTimes(nil)

	changes, ts := Detect("site", m, state.Timestamps{}, modTime)
	require.Len(t, changes, 1)
	assert.Equal(t, state.Timestamps{"missing.html": 0}, ts)

	changes, _ = Detect("site", m, ts, modTime)
	assert.Empty(t, changes)

	changes, _ = Detect("site", m, ts, fixedModTimes(map[string]float64{"site/missing.html": 1}))
	assert.Len(t, changes, 1)
}

// The same local file served from two folders is uploaded to both.
func TestDetect_SameFileTwice(t *testing.T) {
	m := &manifest.Manifest{Folders: []manifest.Folder{
		{Path: "a", Files: []manifest.FilePair{{Local: "shared.css", Remote: "shared.css"}}},
		{Path: "b", Files: []manifest.FilePair{{Local: "shared.css", Remote: "shared.css"}}},
	}}
	changes, ts := Detect("site", m, state.Timestamps{}, fixedModTimes(map[string]float64{"site/shared.css": 4}))
	require.Len(t, changes, 2)
	assert.Equal(t, "a/shared.css", changes[0].Key)
	assert.Equal(t, "b/shared.css", changes[1].Key)
	assert.Equal(t, state.Timestamps{"shared.css": 4}, ts)
}

func TestFileModTime(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("site", "index.html")
	require.NoError(t, afero.WriteFile(fs, path, []byte("<html>"), 0644))
	when := time.Unix(1633024800, 500000000)
	require.NoError(t, fs.Chtimes(path, when, when))

	modTime := FileModTime(fs)
	assert.Equal(t, 1633024800.5, modTime(path))
	assert.Equal(t, 0.0, modTime(filepath.Join("site", "nope.html")))
}
