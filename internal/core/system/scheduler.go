package system

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultStepRate = 60
	DefaultMaxFrame = 250 * time.Millisecond
	minSleep        = time.Millisecond
)

// StepFunc advances the world by one fixed step. A returned error is fatal:
// the scheduler stops and reports it from Stop.
type StepFunc func(dt time.Duration) error

// Scheduler drives a fixed-timestep loop on its own goroutine. Each iteration
// measures wall time, clamps it to maxFrame, accumulates it and drains the
// accumulator in whole steps. The render callback runs once per iteration
// after the steps, outside any world lock the step takes.
type Scheduler struct {
	step     StepFunc
	render   func()
	stepDur  time.Duration
	maxFrame time.Duration
	now      func() time.Time
	log      *zap.Logger

	accumulator time.Duration
	ticks       atomic.Uint64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	err     error
}

// NewScheduler creates a scheduler stepping rate times per simulated second.
// render may be nil.
func NewScheduler(rate int, maxFrame time.Duration, step StepFunc, render func(), log *zap.Logger) *Scheduler {
	if rate <= 0 {
		rate = DefaultStepRate
	}
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	return &Scheduler{
		step:     step,
		render:   render,
		stepDur:  time.Second / time.Duration(rate),
		maxFrame: maxFrame,
		now:      time.Now,
		log:      log,
	}
}

// StepDuration is the fixed simulated duration of one tick.
func (s *Scheduler) StepDuration() time.Duration { return s.stepDur }

// Ticks returns how many steps have run.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// Advance feeds elapsed wall time into the accumulator and runs every whole
// step it now holds. It returns the number of steps run. Only the loop
// goroutine calls Advance once Start has been called.
func (s *Scheduler) Advance(elapsed time.Duration) (int, error) {
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > s.maxFrame {
		elapsed = s.maxFrame
	}
	s.accumulator += elapsed

	steps := 0
	for s.accumulator >= s.stepDur {
		if err := s.step(s.stepDur); err != nil {
			return steps, err
		}
		s.accumulator -= s.stepDur
		s.ticks.Add(1)
		steps++
	}
	return steps, nil
}

// Start launches the loop goroutine. Calling Start while running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.err = nil
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.loop(s.stopCh, s.doneCh)
}

// Running reports whether the loop goroutine is alive.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop requests termination and blocks until the loop goroutine exits. It
// returns the step error that ended the loop, if any.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()
	if stopCh == nil {
		return nil
	}

	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	<-doneCh

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the loop goroutine exits, whether stopped or failed.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneCh
}

func (s *Scheduler) loop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.log.Info("scheduler started",
		zap.Duration("step", s.stepDur),
		zap.Duration("max_frame", s.maxFrame))

	last := s.now()
	for {
		select {
		case <-stopCh:
			s.log.Info("scheduler stopped", zap.Uint64("ticks", s.ticks.Load()))
			return
		default:
		}

		frameStart := s.now()
		if _, err := s.Advance(frameStart.Sub(last)); err != nil {
			s.log.Error("world step failed, stopping simulation",
				zap.Uint64("tick", s.ticks.Load()), zap.Error(err))
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
		last = frameStart

		if s.render != nil {
			s.render()
		}

		sleep := s.stepDur - s.now().Sub(frameStart)
		sleep = sleep.Round(time.Millisecond)
		if sleep < minSleep {
			sleep = minSleep
		}
		timer := time.NewTimer(sleep)
		select {
		case <-stopCh:
			timer.Stop()
			s.log.Info("scheduler stopped", zap.Uint64("ticks", s.ticks.Load()))
			return
		case <-timer.C:
		}
	}
}
