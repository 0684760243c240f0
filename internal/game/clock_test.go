package game

import (
	"testing"
	"time"
)

func TestMeasureAnsweringBoundary(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := DefaultDurations()

	timing := Measure(PhaseAnswering, start, start.Add(59*time.Second+900*time.Millisecond), d)
	if timing.Expired {
		t.Fatalf("expected answering not expired at 59.9s")
	}
	if timing.ElapsedSeconds != 59 || timing.RemainingSeconds != 1 {
		t.Fatalf("expected 59 elapsed and 1 remaining, got %d and %d", timing.ElapsedSeconds, timing.RemainingSeconds)
	}

	timing = Measure(PhaseAnswering, start, start.Add(60*time.Second), d)
	if !timing.Expired || timing.RemainingSeconds != 0 {
		t.Fatalf("expected answering expired at 60s, got %#v", timing)
	}
}

func TestMeasureVotingAndResultsUseShortLimit(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := DefaultDurations()
	for _, phase := range []Phase{PhaseVoting, PhaseResults} {
		timing := Measure(phase, start, start.Add(30*time.Second), d)
		if timing.LimitSeconds != 30 || !timing.Expired {
			t.Fatalf("expected %s to expire at 30s, got %#v", phase, timing)
		}
	}
}

func TestMeasureRemainingNeverIncreases(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := DefaultDurations()
	previous := Measure(PhaseAnswering, start, start, d).RemainingSeconds
	for ms := 0; ms <= 120_000; ms += 250 {
		remaining := Measure(PhaseAnswering, start, start.Add(time.Duration(ms)*time.Millisecond), d).RemainingSeconds
		if remaining > previous {
			t.Fatalf("remaining increased at %dms: %d > %d", ms, remaining, previous)
		}
		if remaining < 0 {
			t.Fatalf("remaining negative at %dms: %d", ms, remaining)
		}
		previous = remaining
	}
	if previous != 0 {
		t.Fatalf("expected remaining to clamp at 0, got %d", previous)
	}
}

func TestMeasureFutureStartCountsAsZero(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	timing := Measure(PhaseAnswering, start, start.Add(-5*time.Second), DefaultDurations())
	if timing.ElapsedSeconds != 0 || timing.RemainingSeconds != 60 || timing.Expired {
		t.Fatalf("unexpected timing for skewed clock: %#v", timing)
	}
}
