// Package scheduler drives the periodic feed sync. Runs never overlap: a
// tick that fires while a sync is still in flight is skipped and logged
// instead of racing it.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

// SyncFunc is the unit of work the scheduler repeats. feed.Syncer.Sync
// satisfies it.
type SyncFunc func(ctx context.Context) error

// Scheduler runs a sync immediately on Start and then on a fixed interval
// until Stop or context cancellation.
type Scheduler struct {
	interval time.Duration
	sync     SyncFunc
	logger   ectologger.Logger

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once
}

// New creates a scheduler.
func New(interval time.Duration, syncFn SyncFunc, logger ectologger.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		sync:     syncFn,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the scheduling loop in the background and returns.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop halts the loop and waits for an in-flight sync to return.
func (s *Scheduler) Stop() {
	s.stopped.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	s.logger.WithContext(ctx).WithFields(map[string]any{"interval": s.interval.String()}).Info("Starting feed scheduler")

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.WithContext(ctx).Info("Feed scheduler stopping: context cancelled")
			return
		case <-s.stop:
			s.logger.WithContext(ctx).Info("Feed scheduler stopping")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single sync pass under the single-flight guard.
func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.WithContext(ctx).Warn("Skipping feed sync tick: previous sync still running")
		return
	}
	defer s.running.Store(false)

	ctx, span := tracing.StartSpan(ctx, "scheduler.Scheduler.runOnce")
	defer span.End()

	if err := s.sync(ctx); err != nil {
		// The next tick still fires; a failed sync is never fatal.
		s.logger.WithContext(ctx).WithError(err).Error("Feed sync failed")
	}
}
