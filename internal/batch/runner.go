// SPDX-License-Identifier: MIT
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	applog "audiograph/internal/log"
)

// Stats counts the files of a run by outcome.
type Stats struct {
	Total    int
	Rendered int
	Skipped  int
	Failed   int
}

// Pending returns the number of files not yet finished.
func (s Stats) Pending() int {
	return s.Total - s.Rendered - s.Skipped - s.Failed
}

// Runner processes a list of files with a bounded number of workers.
type Runner struct {
	Processor *Processor
	Workers   int

	total    atomic.Int64
	rendered atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

// NewRunner returns a runner with the given worker count; zero or less
// selects runtime.NumCPU().
func NewRunner(p *Processor, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{Processor: p, Workers: workers}
}

// Progress returns a snapshot of the counters. It is safe to call while Run
// is in progress.
func (r *Runner) Progress() Stats {
	return Stats{
		Total:    int(r.total.Load()),
		Rendered: int(r.rendered.Load()),
		Skipped:  int(r.skipped.Load()),
		Failed:   int(r.failed.Load()),
	}
}

// Run processes files and returns the final counts. Per-file errors are
// logged and counted and do not stop the run. When ctx is cancelled no new
// files are started and ctx.Err() is returned once the running ones finish.
func (r *Runner) Run(ctx context.Context, files []string) (Stats, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	r.total.Store(int64(len(files)))
	r.rendered.Store(0)
	r.skipped.Store(0)
	r.failed.Store(0)

	applog.Debugf("Batch: %d files, %d workers", len(files), workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r.processOne(ctx, path)
			return nil
		})
	}
	g.Wait()

	return r.Progress(), ctx.Err()
}

func (r *Runner) processOne(ctx context.Context, path string) {
	outcome, err := r.safeProcess(ctx, path)
	switch {
	case err != nil && ctx.Err() != nil:
		applog.Debugf("Batch: %s interrupted: %v", path, err)
	case err != nil:
		applog.Errorf("Failed on %s: %v", path, err)
		r.failed.Add(1)
	case outcome == OutcomeSkipped:
		r.skipped.Add(1)
	default:
		r.rendered.Add(1)
	}
}

// safeProcess turns a panic inside a decoder into a per-file error.
func (r *Runner) safeProcess(ctx context.Context, path string) (outcome Outcome, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = r.Processor.fail(path, fmt.Errorf("panic: %v", v))
		}
	}()
	return r.Processor.ProcessFile(ctx, path)
}
