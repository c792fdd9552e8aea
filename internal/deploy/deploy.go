package deploy

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/ghv/print/internal/cdn"
	"github.com/ghv/print/internal/manifest"
	"github.com/ghv/print/internal/plan"
	"github.com/ghv/print/internal/state"
	"github.com/ghv/print/internal/storage"
)

// DefaultConcurrency is the number of uploads in flight when none is set.
const DefaultConcurrency = 8

// Storage is the object store the site is deployed to.
type Storage interface {
	Check(ctx context.Context) error
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, keys []string) error
}

// CDN is the cache in front of the object store.
type CDN interface {
	Invalidate(ctx context.Context, paths []string) (string, error)
}

// Config controls a deployment.
type Config struct {
	Root        string
	Variables   map[string]string
	Concurrency int
	DryRun      bool
}

// Result summarizes a deployment.
type Result struct {
	Uploaded       int
	Skipped        []string // identity keys of files that could not be read
	Deleted        int
	InvalidationID string
}

// Deployer applies a site's manifest to its bucket and distribution.
type Deployer struct {
	cfg      Config
	fs       afero.Fs
	manifest *manifest.Manifest
	storage  Storage
	cdn      CDN
	logger   logrus.FieldLogger
}

// New creates a Deployer for the loaded manifest m.
func New(cfg Config, fs afero.Fs, m *manifest.Manifest, store Storage, cache CDN, logger logrus.FieldLogger) *Deployer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Deployer{
		cfg:      cfg,
		fs:       fs,
		manifest: m,
		storage:  store,
		cdn:      cache,
		logger:   logger,
	}
}

func (d *Deployer) timestampsPath() string {
	return filepath.Join(d.cfg.Root, state.FileName)
}

// Plan computes what a deployment would do without touching anything
// remote. The plan is rejected if its invalidation breaks CloudFront limits.
func (d *Deployer) Plan() (*plan.Plan, error) {
	prev, err := manifest.LoadPrevious(d.fs, d.cfg.Root, d.cfg.Variables)
	if err != nil {
		return nil, fmt.Errorf("loading previous manifest: %w", err)
	}
	if prev == nil {
		d.logger.Info("no previous manifest, nothing will be pruned")
	}

	ts, err := state.Load(d.fs, d.timestampsPath())
	if err != nil {
		d.logger.WithError(err).Warn("failed to load timestamps (will upload everything)")
	}

	p := plan.Build(plan.Input{
		Root:       d.cfg.Root,
		Current:    d.manifest,
		Previous:   prev,
		Timestamps: ts,
		ModTime:    plan.FileModTime(d.fs),
	})

	if errs := cdn.Validate(p.Invalidations); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("invalid invalidation: %s", strings.Join(msgs, "; "))
	}
	return p, nil
}

// Run plans and applies a deployment. Uploads complete before stale objects
// are deleted, and deletes complete before the invalidation is requested.
// The timestamp store and manifest snapshot are only written when every
// remote call succeeded, so a failed run is retried in full next time.
func (d *Deployer) Run(ctx context.Context) (*Result, error) {
	d.logger.WithFields(logrus.Fields{
		"root":         d.cfg.Root,
		"bucket":       d.manifest.Bucket,
		"distribution": d.manifest.DistributionID,
		"dry_run":      d.cfg.DryRun,
	}).Info("starting deployment")

	p, err := d.Plan()
	if err != nil {
		return nil, err
	}

	stats := cdn.Count(p.Invalidations)
	d.logger.WithFields(logrus.Fields{
		"uploads":       len(p.Uploads),
		"deletes":       len(p.Deletes),
		"invalidations": stats.Paths,
		"wildcards":     stats.Wildcards,
	}).Info("deployment plan")

	if d.cfg.DryRun {
		d.logPlanDetails(p)
		d.logger.Info("dry-run complete, no changes applied")
		return &Result{}, nil
	}

	if err := d.storage.Check(ctx); err != nil {
		return nil, err
	}

	res := &Result{}
	if err := d.upload(ctx, p.Uploads, res); err != nil {
		return nil, err
	}
	if err := d.prune(ctx, p.Deletes, res); err != nil {
		return nil, err
	}

	id, err := d.cdn.Invalidate(ctx, p.Invalidations)
	if err != nil {
		return nil, err
	}
	if id != "" {
		d.logger.WithField("id", id).Info("created invalidation request")
	}
	res.InvalidationID = id

	if err := d.commit(p, res.Skipped); err != nil {
		return nil, err
	}

	if p.Empty() {
		d.logger.Info("nothing to update")
	} else {
		d.logger.WithFields(logrus.Fields{
			"uploaded": res.Uploaded,
			"skipped":  len(res.Skipped),
			"deleted":  res.Deleted,
		}).Info("deployment complete")
	}
	return res, nil
}

func (d *Deployer) upload(ctx context.Context, uploads []plan.Upload, res *Result) error {
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for _, u := range uploads {
		u := u
		g.Go(func() error {
			log := d.logger.WithField("file", u.IdentityKey)
			body, err := afero.ReadFile(d.fs, u.LocalPath)
			if err != nil {
				log.WithError(err).Warn("skipping unreadable file")
				mu.Lock()
				res.Skipped = append(res.Skipped, u.IdentityKey)
				mu.Unlock()
				return nil
			}
			log.WithField("key", u.ObjectKey).Info("uploading file")
			if err := d.storage.Upload(gctx, u.ObjectKey, body, storage.ContentType(u.ObjectKey)); err != nil {
				return fmt.Errorf("uploading %s: %w", u.IdentityKey, err)
			}
			mu.Lock()
			res.Uploaded++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	sort.Strings(res.Skipped)
	return err
}

func (d *Deployer) prune(ctx context.Context, deletes []plan.Delete, res *Result) error {
	if len(deletes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(deletes))
	for _, del := range deletes {
		d.logger.WithField("key", del.ObjectKey).Info("pruning file")
		keys = append(keys, del.ObjectKey)
	}
	if err := d.storage.Delete(ctx, keys); err != nil {
		return fmt.Errorf("pruning: %w", err)
	}
	res.Deleted = len(keys)
	return nil
}

// commit persists the plan's timestamps, leaving out skipped files so they
// are picked up again on the next run.
func (d *Deployer) commit(p *plan.Plan, skipped []string) error {
	ts := p.Timestamps.Clone()
	for _, id := range skipped {
		delete(ts, id)
	}

	var errs []error
	if err := state.Save(d.fs, d.timestampsPath(), ts); err != nil {
		errs = append(errs, err)
	}
	if err := manifest.SaveSnapshot(d.fs, d.cfg.Root); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("saving deployment state: %w", err)
	}
	return nil
}

func (d *Deployer) logPlanDetails(p *plan.Plan) {
	for _, u := range p.Uploads {
		d.logger.WithFields(logrus.Fields{"file": u.IdentityKey, "key": u.ObjectKey}).Info("would upload")
	}
	for _, del := range p.Deletes {
		d.logger.WithField("key", del.ObjectKey).Info("would prune")
	}
	for _, path := range p.Invalidations {
		d.logger.WithField("path", path).Info("would invalidate")
	}
}
