package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsImmediatelyThenOnDelay(t *testing.T) {
	var runs atomic.Int64
	s := NewScheduler(Job{
		Name:     "counter",
		Interval: 20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	got := runs.Load()
	assert.GreaterOrEqual(t, got, int64(3), "expected the job to run repeatedly, got %d", got)
}

func TestSchedulerContinuesAfterJobFailure(t *testing.T) {
	var runs atomic.Int64
	s := NewScheduler(Job{
		Name:     "flaky",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			if runs.Add(1) == 1 {
				return errors.New("transient failure")
			}
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	s.Run(ctx)
	assert.Greater(t, runs.Load(), int64(1), "schedule must survive a failed run")
}

func TestSchedulerFixedDelayDoesNotOverlap(t *testing.T) {
	var active atomic.Int64
	var overlapped atomic.Bool

	s := NewScheduler(Job{
		Name:     "slow",
		Interval: time.Millisecond,
		Run: func(ctx context.Context) error {
			if active.Add(1) > 1 {
				overlapped.Store(true)
			}
			defer active.Add(-1)
			time.Sleep(15 * time.Millisecond)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	s.Run(ctx)
	assert.False(t, overlapped.Load(), "fixed-delay job ran concurrently with itself")
}

func TestSchedulerRunsJobsIndependently(t *testing.T) {
	var a, b atomic.Int64
	s := NewScheduler(
		Job{Name: "a", Interval: 10 * time.Millisecond, Run: func(ctx context.Context) error {
			a.Add(1)
			return nil
		}},
	)
	s.Add(Job{Name: "b", Interval: 10 * time.Millisecond, Run: func(ctx context.Context) error {
		b.Add(1)
		return nil
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	s.Run(ctx)
	assert.Greater(t, a.Load(), int64(0))
	assert.Greater(t, b.Load(), int64(0))
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	s := NewScheduler(Job{
		Name:     "idle",
		Interval: time.Hour,
		Run:      func(ctx context.Context) error { return nil },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
