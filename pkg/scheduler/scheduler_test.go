package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

func TestSchedulerRunsImmediatelyAndOnInterval(t *testing.T) {
	var runs atomic.Int32
	s := New(20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, testLogger())

	s.Start(context.Background())
	time.Sleep(70 * time.Millisecond)
	s.Stop()

	// One immediate run plus at least two ticks.
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	s := New(time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	}, testLogger())

	go s.runOnce(context.Background())
	<-started

	// A second invocation while the first is in flight must be a no-op.
	s.runOnce(context.Background())
	assert.Equal(t, int32(1), runs.Load())

	close(release)
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	s := New(10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, testLogger())

	s.Start(ctx)
	time.Sleep(25 * time.Millisecond)
	cancel()
	time.Sleep(25 * time.Millisecond)

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())

	s.Stop()
}

func TestSchedulerSurvivesSyncErrors(t *testing.T) {
	var runs atomic.Int32
	s := New(15*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return assert.AnError
	}, testLogger())

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}
