package game

import "time"

type Durations struct {
	Answering time.Duration
	Voting    time.Duration
}

func DefaultDurations() Durations {
	return Durations{
		Answering: 60 * time.Second,
		Voting:    30 * time.Second,
	}
}

// Limit is the time allowed for phase. Every phase other than answering
// uses the voting limit.
func (d Durations) Limit(phase Phase) time.Duration {
	if phase == PhaseAnswering {
		return d.Answering
	}
	return d.Voting
}

type Timing struct {
	ElapsedSeconds   int
	LimitSeconds     int
	RemainingSeconds int
	Expired          bool
}

// Measure derives a phase's timing from its start time. Elapsed time is
// floored to whole seconds and a start in the future counts as zero elapsed.
func Measure(phase Phase, startedAt, now time.Time, d Durations) Timing {
	elapsed := int(now.Sub(startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	limit := int(d.Limit(phase) / time.Second)
	remaining := limit - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return Timing{
		ElapsedSeconds:   elapsed,
		LimitSeconds:     limit,
		RemainingSeconds: remaining,
		Expired:          elapsed >= limit,
	}
}
