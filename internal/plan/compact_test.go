package plan

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

var exampleFolders = []string{
	"someFolderOne",
	"someFolderThree",
	"someFolderFour",
	"someFolderFour/Five",
}

var exampleKeys = []string{
	"someFolderOne/Foo",
	"someFolderTwo/Foo",
	"someFolderThree/Foo",
	"someFolderThree/Bar",
	"someFolderFour/Foo",
	"someFolderFour/Five/Bar",
	"someFolderFour/Five/Baz",
}

func shuffled(keys []string, seed int64) []string {
	out := append([]string(nil), keys...)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestCompact(t *testing.T) {
	expected := []string{
		"/someFolderFour/*",
		"/someFolderOne/Foo",
		"/someFolderThree/*",
		"/someFolderTwo/Foo",
	}
	for seed := int64(0); seed < 20; seed++ {
		assert.Equal(t, expected, Compact(shuffled(exampleKeys, seed), exampleFolders), "seed %d", seed)
	}
}

func TestCompact_FolderOrderIrrelevant(t *testing.T) {
	expected := Compact(exampleKeys, exampleFolders)
	for seed := int64(0); seed < 10; seed++ {
		assert.Equal(t, expected, Compact(exampleKeys, shuffled(exampleFolders, seed)))
	}
}

func TestCompact_Empty(t *testing.T) {
	assert.Empty(t, Compact(nil, exampleFolders))
	assert.Empty(t, Compact([]string{}, nil))
}

func TestCompact_SingleChangeStaysLiteral(t *testing.T) {
	got := Compact([]string{"css/site.css"}, []string{"css"})
	assert.Equal(t, []string{"/css/site.css"}, got)
}

func TestCompact_NotCompactable(t *testing.T) {
	keys := []string{"b/2", "a/1", "a/2"}
	assert.Equal(t, []string{"/b/2", "/a/1", "/a/2"}, Compact(keys, nil))
}

func TestCompact_ChildWildcardUnderQuietParent(t *testing.T) {
	got := Compact([]string{"docs/api/a.html", "docs/api/b.html"}, []string{"docs", "docs/api"})
	assert.Equal(t, []string{"/docs/api/*"}, got)
}

func TestCompact_ParentAndChildWildcards(t *testing.T) {
	keys := []string{"docs/a.html", "docs/b.html", "docs/api/a.html", "docs/api/b.html"}
	got := Compact(keys, []string{"docs", "docs/api"})
	assert.Equal(t, []string{"/docs/*"}, got)
}

func TestCompact_SegmentBoundary(t *testing.T) {
	keys := []string{"img/a.png", "img/b.png", "images/c.png"}
	got := Compact(keys, []string{"img"})
	assert.Equal(t, []string{"/img/*", "/images/c.png"}, got)
}

func TestCompact_FolderSlashesNormalized(t *testing.T) {
	got := Compact([]string{"css/a.css", "css/b.css"}, []string{"/css/"})
	assert.Equal(t, []string{"/css/*"}, got)
}

func TestCompact_RootFolder(t *testing.T) {
	got := Compact([]string{"index.html", "about.html", "css/a.css", "css/b.css"}, []string{"", "css"})
	assert.Equal(t, []string{"/*"}, got)
}

// No folder with a single change may show up as a wildcard.
func TestCompact_Minimal(t *testing.T) {
	keys := []string{"a/1", "b/1", "b/2", "c/x/1", "d/1", "d/2", "d/3"}
	folders := []string{"a", "b", "c", "c/x", "d"}
	got := Compact(keys, folders)

	sorted := append([]string(nil), got...)
	sort.Strings(sorted)
	assert.Equal(t, []string{"/a/1", "/b/*", "/c/x/1", "/d/*"}, sorted)
}
