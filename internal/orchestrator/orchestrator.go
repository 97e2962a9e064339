package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"hlsladder/internal/ladder"
	"hlsladder/internal/logging"
	"hlsladder/internal/rendition"
)

// DefaultWorkers bounds concurrent rendition jobs when no limit is configured.
const DefaultWorkers = 10

// Job produces a single rung. *rendition.Transcoder satisfies it.
type Job interface {
	Run(ctx context.Context, rung ladder.Rung, input string, layout ladder.Layout) rendition.JobResult
}

// Summary aggregates every job outcome of one ladder.
type Summary struct {
	// Results are in ladder order, one per rung.
	Results  []rendition.JobResult
	Duration time.Duration
}

// Succeeded returns the rungs whose jobs completed, in ladder order.
func (s Summary) Succeeded() []ladder.Rung {
	var rungs []ladder.Rung
	for _, r := range s.Results {
		if r.Succeeded() {
			rungs = append(rungs, r.Rung)
		}
	}
	return rungs
}

// Failed returns the results of jobs that did not complete.
func (s Summary) Failed() []rendition.JobResult {
	var failed []rendition.JobResult
	for _, r := range s.Results {
		if !r.Succeeded() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Orchestrator fans a ladder out to concurrent jobs and joins on all of them.
type Orchestrator struct {
	job     Job
	workers int
	logger  *slog.Logger
}

// New constructs an Orchestrator. Non-positive workers fall back to DefaultWorkers.
func New(job Job, workers int, logger *slog.Logger) *Orchestrator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Orchestrator{
		job:     job,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Orchestrate runs one job per rung and blocks until all have finished. A
// failing job never cancels its siblings.
func (o *Orchestrator) Orchestrate(ctx context.Context, l ladder.Ladder, input string, layout ladder.Layout) Summary {
	logger := logging.WithContext(ctx, o.logger)
	start := time.Now()
	results := make([]rendition.JobResult, len(l))

	logger.Info("dispatching rendition jobs",
		logging.Event("orchestrate_started"),
		logging.Strings("rungs", l.Strings()),
		logging.Int("workers", o.workers),
	)

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, rung := range l {
		g.Go(func() error {
			results[i] = o.job.Run(ctx, rung, input, layout)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Results: results, Duration: time.Since(start)}
	logger.Info("rendition jobs finished",
		logging.Event("orchestrate_completed"),
		logging.Int("succeeded", len(summary.Succeeded())),
		logging.Int("failed", len(summary.Failed())),
		logging.Duration("duration", summary.Duration),
	)
	return summary
}
