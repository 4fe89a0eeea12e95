package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func countingRefresh(counter *atomic.Int32) RefreshFunc {
	return func(ctx context.Context) error {
		counter.Add(1)
		return nil
	}
}

func TestScheduler_StartRefreshesPeriodically(t *testing.T) {
	var calls atomic.Int32
	s := New(10*time.Millisecond, countingRefresh(&calls), zap.NewNop())
	defer s.Stop()

	assert.Equal(t, StatePaused, s.State())
	s.Start(context.Background())
	assert.Equal(t, StateRunning, s.State())

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_ResumeAndPauseAreIdempotent(t *testing.T) {
	s := New(time.Hour, func(ctx context.Context) error { return nil }, zap.NewNop())
	defer s.Stop()

	assert.True(t, s.Resume())
	assert.False(t, s.Resume(), "second arm is a no-op")
	assert.Equal(t, StateRunning, s.State())

	assert.True(t, s.Pause())
	assert.False(t, s.Pause(), "second cancel is a no-op")
	assert.Equal(t, StatePaused, s.State())
}

func TestScheduler_FocusPausesAndSubmissionResumes(t *testing.T) {
	var calls atomic.Int32
	s := New(10*time.Millisecond, countingRefresh(&calls), zap.NewNop())
	defer s.Stop()

	s.Start(context.Background())
	s.FormFocused()

	assert.Equal(t, StatePaused, s.State())
	assert.True(t, s.FormActive())

	before := calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, before, calls.Load(), "no refresh while paused")

	s.SubmissionSucceeded()
	assert.Equal(t, StateRunning, s.State())
	assert.False(t, s.FormActive())
	assert.Eventually(t, func() bool { return calls.Load() > before }, time.Second, 5*time.Millisecond)
}

func TestScheduler_TickWhileFormActiveIsNoop(t *testing.T) {
	var calls atomic.Int32
	s := New(time.Hour, countingRefresh(&calls), zap.NewNop())
	defer s.Stop()

	s.Start(context.Background())
	gen := s.generation

	s.FormChanged()
	assert.Equal(t, StateRunning, s.State(), "a change does not cancel the timer")
	assert.False(t, s.tick(context.Background(), gen))
	assert.Equal(t, int32(0), calls.Load())

	s.SubmissionSucceeded()
	assert.True(t, s.tick(context.Background(), gen))
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_TickAfterPauseIsNoop(t *testing.T) {
	var calls atomic.Int32
	s := New(time.Hour, countingRefresh(&calls), zap.NewNop())
	defer s.Stop()

	s.Start(context.Background())
	stale := s.generation

	// a tick that fired before Pause took the lock must not refresh
	require.True(t, s.Pause())
	assert.False(t, s.tick(context.Background(), stale))

	// nor may a tick from a timer that was replaced by a later Resume
	require.True(t, s.Resume())
	assert.False(t, s.tick(context.Background(), stale))
	assert.True(t, s.tick(context.Background(), s.generation))
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_RefreshErrorKeepsRunning(t *testing.T) {
	var calls atomic.Int32
	s := New(10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("backend down")
	}, zap.NewNop())
	defer s.Stop()

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateRunning, s.State())
}

func TestScheduler_ContextCancelDisarms(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(time.Hour, func(ctx context.Context) error { return nil }, zap.NewNop())
	defer s.Stop()

	s.Start(ctx)
	require.Equal(t, StateRunning, s.State())

	cancel()
	assert.Eventually(t, func() bool { return s.State() == StatePaused }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopPreventsResume(t *testing.T) {
	s := New(time.Hour, func(ctx context.Context) error { return nil }, zap.NewNop())
	s.Start(context.Background())
	s.Stop()

	assert.Equal(t, StatePaused, s.State())
	assert.False(t, s.Resume())
}
