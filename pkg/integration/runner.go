package integration

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/harrisonrobin/schooltasks/pkg/config"
	"github.com/harrisonrobin/schooltasks/pkg/mirror"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
)

// Result is the outcome of one integration's run.
type Result struct {
	Integration string
	RunID       string
	Summary     mirror.Summary
	Err         error
	// Skipped is set when the run never started.
	Skipped bool
}

// Runner starts every integration concurrently. Once stopped, integrations
// that have not started yet are skipped; running ones complete.
type Runner struct {
	Store    *config.Store
	Pipeline *Pipeline
	Logger   *slog.Logger
	// MaxConcurrent bounds the number of parallel runs. Zero is unbounded.
	MaxConcurrent int

	stop atomic.Bool
}

// Stop raises the stop signal.
func (r *Runner) Stop() {
	r.stop.Store(true)
}

// Stopped reports whether the stop signal is raised.
func (r *Runner) Stopped() bool {
	return r.stop.Load()
}

// Run runs the enabled integrations and returns one Result each, in the
// order given.
func (r *Runner) Run(ctx context.Context, integrations []Integration) []Result {
	p := pool.NewWithResults[Result]()
	if r.MaxConcurrent > 0 {
		p = p.WithMaxGoroutines(r.MaxConcurrent)
	}

	for _, in := range integrations {
		in := in
		p.Go(func() Result {
			return r.runOne(ctx, in)
		})
	}
	results := p.Wait()

	order := make(map[string]int, len(integrations))
	for i, in := range integrations {
		order[in.Name()] = i
	}
	sorted := make([]Result, len(integrations))
	for _, res := range results {
		sorted[order[res.Integration]] = res
	}
	return sorted
}

func (r *Runner) runOne(ctx context.Context, in Integration) (res Result) {
	res = Result{Integration: in.Name(), RunID: uuid.NewString()}
	logger := r.logger().With("integration", res.Integration, "run_id", res.RunID)

	defer func() {
		if v := recover(); v != nil {
			logger.Error("integration panicked", "panic", v, "stack", string(debug.Stack()))
			res.Err = errors.Errorf("panic: %v", v)
		}
	}()

	if r.Stopped() {
		logger.Info("stop requested, not starting")
		res.Skipped = true
		return res
	}
	if r.Store.Disabled(res.Integration) {
		logger.Info("integration disabled")
		res.Skipped = true
		return res
	}

	if err := in.CheckConfig(r.Store); err != nil {
		logger.Error("configuration incomplete", "error", err)
		r.Stop()
		res.Err = err
		return res
	}

	logger.Info("sync started")
	res.Summary, res.Err = r.Pipeline.Run(ctx, in, logger)
	if res.Err != nil {
		logger.Error("sync failed", "error", res.Err)
	}
	return res
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
