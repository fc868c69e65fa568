// Package worker runs the background jobs: periodic export snapshots,
// periodic report generation, and event-driven refreshes from the broker.
package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Job is one periodically executed task. Interval is a fixed delay: the next
// run is scheduled after the previous one completes, so a slow run never
// overlaps itself.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler supervises a set of jobs, each on its own goroutine.
type Scheduler struct {
	jobs []Job
}

func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Add registers another job. Must be called before Run.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Run executes every job immediately, then on its fixed-delay schedule, until
// ctx is cancelled. A failing run is logged and the schedule continues; only
// cancellation stops a job. Run returns once all job goroutines have exited.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, job := range s.jobs {
		job := job
		g.Go(func() error {
			return s.runJob(ctx, job)
		})
	}

	return g.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) error {
	slog.InfoContext(ctx, "job scheduled", "job", job.Name, "interval", job.Interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "job stopped", "job", job.Name, "reason", ctx.Err())
			return ctx.Err()
		case <-timer.C:
		}

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.ErrorContext(ctx, "job run failed", "job", job.Name, "error", err)
		} else {
			slog.InfoContext(ctx, "job run complete",
				"job", job.Name,
				"took", time.Since(start).Round(time.Millisecond))
		}

		timer.Reset(job.Interval)
	}
}
