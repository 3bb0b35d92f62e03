package timectrl

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Clock exposes the current epoch to components that should not depend on a
// concrete stepper.
type Clock interface {
	Now() time.Time
}

// Mode describes how the Stepper paces epochs.
type Mode int

const (
	// Accelerated visits epochs back to back.
	Accelerated Mode = iota
	// RealTime waits one Tick of wall-clock time between epochs.
	RealTime
)

// Stepper walks a time window [Start, Start+Duration] in Tick increments and
// invokes registered listeners synchronously at each epoch.
type Stepper struct {
	mu       sync.RWMutex
	Start    time.Time
	Tick     time.Duration
	Duration time.Duration
	Mode     Mode

	current   time.Time
	listeners []func(context.Context, time.Time) error
}

// NewStepper constructs a stepper in Accelerated mode.
func NewStepper(start time.Time, tick, duration time.Duration) (*Stepper, error) {
	if tick <= 0 {
		return nil, fmt.Errorf("timectrl: tick must be positive, got %s", tick)
	}
	if duration < 0 {
		return nil, fmt.Errorf("timectrl: duration must not be negative, got %s", duration)
	}
	return &Stepper{
		Start:    start,
		Tick:     tick,
		Duration: duration,
		current:  start,
	}, nil
}

// Now returns the epoch most recently visited.
func (s *Stepper) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Epochs lists every epoch Run will visit, including both ends of the window
// when Duration is a multiple of Tick.
func (s *Stepper) Epochs() []time.Time {
	n := int(s.Duration/s.Tick) + 1
	out := make([]time.Time, n)
	for i := range out {
		out[i] = s.Start.Add(time.Duration(i) * s.Tick)
	}
	return out
}

// AddListener registers a callback invoked on every epoch, in registration
// order.
func (s *Stepper) AddListener(fn func(ctx context.Context, epoch time.Time) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Run visits every epoch. It stops at the first listener error or when ctx is
// done.
func (s *Stepper) Run(ctx context.Context) error {
	s.mu.RLock()
	listeners := append([]func(context.Context, time.Time) error(nil), s.listeners...)
	s.mu.RUnlock()

	for i, epoch := range s.Epochs() {
		if i > 0 && s.Mode == RealTime {
			timer := time.NewTimer(s.Tick)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		s.current = epoch
		s.mu.Unlock()

		for _, fn := range listeners {
			if err := fn(ctx, epoch); err != nil {
				return fmt.Errorf("epoch %s: %w", epoch.Format(time.RFC3339), err)
			}
		}
	}
	return nil
}
