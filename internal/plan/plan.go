package plan

import (
	"strings"

	"github.com/ghv/print/internal/manifest"
	"github.com/ghv/print/internal/state"
)

// Upload is a changed file and the bucket key it is written to.
type Upload struct {
	Change
	ObjectKey string
}

// Delete is a stale edge key and the bucket key it was stored under.
type Delete struct {
	EdgeKey   string
	ObjectKey string
}

// Plan is everything a deployment has to do, in the order it has to be done.
type Plan struct {
	Uploads       []Upload
	Deletes       []Delete
	Invalidations []string

	// Timestamps is the store to persist once the plan has been applied.
	Timestamps state.Timestamps
}

// Empty reports whether the plan has no remote work.
func (p *Plan) Empty() bool {
	return len(p.Uploads) == 0 && len(p.Deletes) == 0 && len(p.Invalidations) == 0
}

// Input is the state a plan is computed from.
type Input struct {
	Root       string
	Current    *manifest.Manifest
	Previous   *manifest.Manifest // nil on a first deployment
	Timestamps state.Timestamps
	ModTime    ModTimeFunc
}

// Build computes the plan for in. It reads nothing but in.ModTime and
// modifies none of its inputs.
func Build(in Input) *Plan {
	changes, ts := Detect(in.Root, in.Current, in.Timestamps, in.ModTime)

	p := &Plan{Timestamps: ts.Retain(in.Current.FileIdentityKeys())}

	var invalidate []string
	seen := make(map[string]bool)
	for _, c := range changes {
		p.Uploads = append(p.Uploads, Upload{Change: c, ObjectKey: in.Current.ObjectKey(c.Key)})
		if !seen[c.Key] {
			seen[c.Key] = true
			invalidate = append(invalidate, c.Key)
		}
	}

	if in.Previous != nil {
		for _, key := range Prune(in.Previous.AllKnownKeys(false), in.Current.AllKnownKeys(true)) {
			p.Deletes = append(p.Deletes, Delete{EdgeKey: key, ObjectKey: in.Previous.ObjectKey(key)})
			invalidate = append(invalidate, strings.TrimPrefix(key, "/"))
		}
	}

	p.Invalidations = Compact(invalidate, in.Current.CompactableFolders())
	return p
}
