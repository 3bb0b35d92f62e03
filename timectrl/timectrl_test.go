package timectrl

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStepperVisitsEveryEpoch(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewStepper(start, 30*time.Second, 2*time.Minute)
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}

	var seen []time.Time
	s.AddListener(func(_ context.Context, epoch time.Time) error {
		seen = append(seen, epoch)
		return nil
	})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(seen) != 5 {
		t.Fatalf("visited %d epochs, want 5", len(seen))
	}
	if !seen[0].Equal(start) || !seen[4].Equal(start.Add(2*time.Minute)) {
		t.Fatalf("epochs span %v..%v", seen[0], seen[4])
	}
	if got := s.Now(); !got.Equal(seen[4]) {
		t.Fatalf("Now() = %v, want %v", got, seen[4])
	}
}

func TestStepperStopsOnListenerError(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewStepper(start, time.Minute, 10*time.Minute)
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}
	boom := errors.New("boom")
	calls := 0
	s.AddListener(func(context.Context, time.Time) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	if err := s.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run err = %v, want boom", err)
	}
	if calls != 3 {
		t.Fatalf("listener called %d times, want 3", calls)
	}
}

func TestStepperHonoursCancellation(t *testing.T) {
	s, err := NewStepper(time.Now(), time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}
	s.Mode = RealTime
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s.AddListener(func(context.Context, time.Time) error {
		calls++
		cancel()
		return nil
	})
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("listener called %d times, want 1", calls)
	}
}

func TestNewStepperValidates(t *testing.T) {
	if _, err := NewStepper(time.Now(), 0, time.Minute); err == nil {
		t.Fatalf("expected error for zero tick")
	}
	if _, err := NewStepper(time.Now(), time.Second, -time.Minute); err == nil {
		t.Fatalf("expected error for negative duration")
	}
	s, err := NewStepper(time.Now(), time.Minute, 0)
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}
	if got := len(s.Epochs()); got != 1 {
		t.Fatalf("zero-length window has %d epochs, want 1", got)
	}
}
