// Package batch runs many scenarios concurrently with a bounded worker
// pool. Individual scenario failures are reported per item; only
// cancellation aborts the whole batch.
package batch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aquachem/internal/equilibrium"
	"aquachem/internal/scenario"
)

// DefaultConcurrency bounds the worker pool when none is configured.
const DefaultConcurrency = 4

// Item is the outcome of one scenario in a batch.
type Item struct {
	Path    string
	Name    string
	Report  *scenario.Report
	Err     error
	Elapsed time.Duration
}

// Runner executes scenario batches.
type Runner struct {
	concurrency int
	log         *zap.Logger
	opts        *equilibrium.Options
}

// NewRunner returns a batch runner with the given concurrency bound.
// Non-positive values fall back to the default.
func NewRunner(concurrency int, log *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{concurrency: concurrency, log: log}
}

// SetSolverOptions applies solver options to every scenario the runner
// executes.
func (r *Runner) SetSolverOptions(opts equilibrium.Options) {
	r.opts = &opts
}

// RunFiles loads and runs one scenario per path. Results keep the input
// order. The returned error is non-nil only when the context ended.
func (r *Runner) RunFiles(ctx context.Context, paths []string) ([]Item, error) {
	items := make([]Item, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			items[i] = r.runOne(ctx, path)
			if errors.Is(items[i].Err, context.Canceled) ||
				errors.Is(items[i].Err, context.DeadlineExceeded) {
				return items[i].Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return items, err
	}
	return items, nil
}

func (r *Runner) runOne(ctx context.Context, path string) Item {
	start := time.Now()
	item := Item{Path: path}

	s, err := scenario.Load(path)
	if err != nil {
		item.Err = err
		item.Elapsed = time.Since(start)
		return item
	}
	item.Name = s.Name
	s.Solver = r.opts

	report, err := s.Run(ctx, r.log)
	item.Report = report
	item.Err = err
	item.Elapsed = time.Since(start)

	if err != nil {
		r.log.Warn("scenario failed",
			zap.String("path", path), zap.Error(err))
	} else {
		r.log.Info("scenario finished",
			zap.String("path", path),
			zap.String("scenario", s.Name),
			zap.Duration("elapsed", item.Elapsed))
	}
	return item
}

// Failed returns the items that ended in error.
func Failed(items []Item) []Item {
	var out []Item
	for _, item := range items {
		if item.Err != nil {
			out = append(out, item)
		}
	}
	return out
}
