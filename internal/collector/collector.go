// Package collector pulls builds and job results from a CI provider into the store.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lei/status-tracker/internal/models"
	"github.com/lei/status-tracker/internal/provider"
	"github.com/lei/status-tracker/internal/store"
	"github.com/lei/status-tracker/pkg/logger"
)

const (
	DefaultBuildLimit  = 25
	DefaultConcurrency = 4
)

// Options tunes a collection pass
type Options struct {
	BuildLimit  int
	Concurrency int
	// RunOnStart makes Run collect once before the first tick
	RunOnStart bool
}

// Summary reports what one collection pass did
type Summary struct {
	Builds     int `json:"builds"`
	Jobs       int `json:"jobs"`
	FailedJobs int `json:"failed_jobs"`
	Tests      int `json:"tests"`
}

// Collector copies the latest builds of a provider into a store
type Collector struct {
	provider provider.Provider
	store    store.Store
	opts     Options
	logger   *logger.Logger
	now      func() time.Time
}

// New creates a collector
func New(p provider.Provider, s store.Store, opts Options, log *logger.Logger) *Collector {
	if opts.BuildLimit <= 0 {
		opts.BuildLimit = DefaultBuildLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	return &Collector{
		provider: p,
		store:    s,
		opts:     opts,
		logger:   log,
		now:      time.Now,
	}
}

// Collect runs one pass. A job whose results cannot be fetched or saved is
// logged and counted in FailedJobs; listing builds or saving a build aborts
// the pass.
func (c *Collector) Collect(ctx context.Context) (*Summary, error) {
	log := logger.FromContext(ctx, c.logger)
	start := c.now()

	log.Info("collector: starting collection",
		"provider", c.provider.Kind(),
		"build_limit", c.opts.BuildLimit)

	builds, err := c.provider.ListBuilds(ctx, c.opts.BuildLimit)
	if err != nil {
		log.Error("collector: failed to list builds", "error", err)
		return nil, fmt.Errorf("list builds: %w", err)
	}

	for _, b := range builds {
		if err := c.store.SaveBuild(ctx, b); err != nil {
			log.Error("collector: failed to save build", "build_id", b.ID, "error", err)
			return nil, fmt.Errorf("save build %d: %w", b.ID, err)
		}
	}

	var (
		failed atomic.Int64
		tests  atomic.Int64
		jobs   int
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for _, b := range builds {
		for _, jobID := range b.JobIDs {
			b, jobID := b, jobID
			jobs++
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}

				n, err := c.collectJob(gCtx, jobID)
				if err != nil {
					log.Warn("collector: failed to collect job",
						"build_id", b.ID,
						"job_id", jobID,
						"error", err)
					failed.Add(1)
					return nil
				}

				tests.Add(int64(n))
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect jobs: %w", err)
	}

	if err := c.store.SetLastUpdated(ctx, c.now()); err != nil {
		log.Error("collector: failed to stamp last updated", "error", err)
		return nil, fmt.Errorf("set last updated: %w", err)
	}

	summary := &Summary{
		Builds:     len(builds),
		Jobs:       jobs,
		FailedJobs: int(failed.Load()),
		Tests:      int(tests.Load()),
	}

	log.Info("collector: collection complete",
		"builds", summary.Builds,
		"jobs", summary.Jobs,
		"failed_jobs", summary.FailedJobs,
		"tests", summary.Tests,
		"duration", c.now().Sub(start))

	return summary, nil
}

func (c *Collector) collectJob(ctx context.Context, jobID int64) (int, error) {
	results, err := c.provider.JobResults(ctx, jobID)
	if err != nil {
		return 0, err
	}
	if results == nil {
		results = []models.TestResult{}
	}

	if err := c.store.SaveJobResults(ctx, jobID, results); err != nil {
		return 0, err
	}
	return len(results), nil
}

// Run collects every interval until ctx is cancelled. Failed passes are
// logged and retried on the next tick.
func (c *Collector) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("collector interval must be positive, got %s", interval)
	}

	c.logger.Info("collector: starting periodic collection", "interval", interval)

	if c.opts.RunOnStart {
		c.runOnce(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("collector: stopping periodic collection")
			return nil
		case <-ticker.C:
			c.runOnce(ctx)
		}
	}
}

func (c *Collector) runOnce(ctx context.Context) {
	if _, err := c.Collect(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("collector: collection failed", "error", err)
	}
}
