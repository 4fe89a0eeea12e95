// Package scheduler periodically refreshes dashboard data while no form is being edited.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval between two automatic refreshes.
const DefaultInterval = 5 * time.Second

// State of the scheduler.
type State int

const (
	// StatePaused no timer is armed.
	StatePaused State = iota
	// StateRunning exactly one timer is armed.
	StateRunning
)

// String returns the string representation.
func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// RefreshFunc re-fetches and re-renders the auto-refreshed resources.
type RefreshFunc func(ctx context.Context) error

// Scheduler is a two-state machine. A focused form moves it to PAUSED and sets the
// form-active flag; a successful submission clears the flag and moves it back to RUNNING.
// Ticks that fire while the flag is set do nothing.
type Scheduler struct {
	interval time.Duration
	refresh  RefreshFunc
	logger   *zap.Logger

	mu         sync.Mutex
	state      State
	formActive bool
	stopped    bool
	base       context.Context
	cancel     context.CancelFunc
	generation uint64
	wg         sync.WaitGroup
}

// New creates a paused scheduler. A non-positive interval falls back to DefaultInterval.
func New(interval time.Duration, refresh RefreshFunc, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		interval: interval,
		refresh:  refresh,
		logger:   logger,
		state:    StatePaused,
		base:     context.Background(),
	}
}

// Start arms the timer. Ticks stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if ctx != nil {
		s.base = ctx
	}
	s.mu.Unlock()

	s.Resume()
}

// Resume arms the timer if it is not armed yet. It reports whether a timer was armed.
func (s *Scheduler) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.state == StateRunning {
		return false
	}

	ctx, cancel := context.WithCancel(s.base)
	s.generation++
	s.cancel = cancel
	s.state = StateRunning

	s.wg.Add(1)
	go s.loop(ctx, s.generation)

	s.logger.Debug("auto-refresh resumed", zap.Duration("interval", s.interval))
	return true
}

// Pause cancels the armed timer. It reports whether a timer was cancelled.
func (s *Scheduler) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.disarm()
}

// FormFocused marks a form as being edited and pauses refreshing.
func (s *Scheduler) FormFocused() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.formActive = true
	if s.disarm() {
		s.logger.Debug("auto-refresh paused, form is active")
	}
}

// FormChanged marks a form as being edited without touching the timer.
func (s *Scheduler) FormChanged() {
	s.mu.Lock()
	s.formActive = true
	s.mu.Unlock()
}

// SubmissionSucceeded clears the form-active flag and resumes refreshing.
func (s *Scheduler) SubmissionSucceeded() {
	s.mu.Lock()
	s.formActive = false
	s.mu.Unlock()

	s.Resume()
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// FormActive reports whether a form is being edited.
func (s *Scheduler) FormActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.formActive
}

// Stop pauses the scheduler for good and waits for the timer goroutine to exit.
// An in-flight refresh is allowed to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.disarm()
	s.mu.Unlock()

	s.wg.Wait()
}

// disarm must be called with mu held.
func (s *Scheduler) disarm() bool {
	if s.state != StateRunning {
		return false
	}

	s.cancel()
	s.cancel = nil
	s.state = StatePaused
	return true
}

func (s *Scheduler) loop(ctx context.Context, generation uint64) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			// the parent context ended while this timer was still the armed one
			if s.generation == generation {
				s.disarm()
			}
			s.mu.Unlock()
			return
		case <-ticker.C:
			s.tick(ctx, generation)
		}
	}
}

// tick refreshes unless a form became active or the timer of this generation was
// cancelled after the tick fired. It reports whether a refresh ran.
func (s *Scheduler) tick(ctx context.Context, generation uint64) bool {
	s.mu.Lock()
	armed := s.state == StateRunning && s.generation == generation
	formActive := s.formActive
	s.mu.Unlock()

	if !armed {
		s.logger.Debug("auto-refresh tick skipped, timer was cancelled")
		return false
	}
	if formActive {
		s.logger.Debug("auto-refresh tick skipped, form is active")
		return false
	}

	s.logger.Debug("auto-refreshing data")
	if err := s.refresh(ctx); err != nil {
		s.logger.Warn("auto-refresh failed", zap.Error(err))
	}
	return true
}
