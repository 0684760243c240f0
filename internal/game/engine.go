package game

import (
	"context"
	"errors"
	"fmt"
	"log"
)

type phaseTransition struct {
	next func(answers int) Phase
}

// results has no entry: it ends the round.
var phaseTransitions = map[Phase]phaseTransition{
	PhaseAnswering: {
		next: func(answers int) Phase {
			// Nothing to vote on with fewer than two answers.
			if answers <= 1 {
				return PhaseResults
			}
			return PhaseVoting
		},
	},
	PhaseVoting: {
		next: func(int) Phase {
			return PhaseResults
		},
	},
}

// Advance moves the current round to its next phase once the phase clock
// has expired. Concurrent callers race on a conditional update; the losers
// get the winner's outcome with Committed set to false.
func (s *Service) Advance(ctx context.Context, roomCode string) (AdvanceResult, error) {
	game, round, err := s.loadActiveRound(ctx, roomCode)
	if err != nil {
		return AdvanceResult{}, err
	}
	transition, ok := phaseTransitions[round.Phase]
	if !ok {
		if round.Phase == PhaseResults {
			return AdvanceResult{}, ErrAlreadyAtTerminalPhase
		}
		return AdvanceResult{}, fmt.Errorf("no transition from phase %q", round.Phase)
	}

	now := s.now()
	timing := Measure(round.Phase, round.PhaseStartedAt, now, s.durations)
	if !timing.Expired {
		return AdvanceResult{}, &PhaseNotExpiredError{Phase: round.Phase, TimeRemaining: timing.RemainingSeconds}
	}

	next, err := s.store.AdvancePhase(ctx, game.ID, round.Number, round.Phase, now, transition.next)
	if err != nil {
		if !errors.Is(err, ErrStale) {
			return AdvanceResult{}, fmt.Errorf("advance phase: %w", err)
		}
		current, rerr := s.store.RoundByNumber(ctx, game.ID, round.Number)
		if rerr != nil {
			return AdvanceResult{}, fmt.Errorf("reload round: %w", rerr)
		}
		log.Printf("phase advance lost race game_id=%d round=%d from=%s current=%s", game.ID, round.Number, round.Phase, current.Phase)
		return AdvanceResult{
			PreviousPhase:  round.Phase,
			NewPhase:       current.Phase,
			PhaseStartedAt: current.PhaseStartedAt,
		}, nil
	}

	log.Printf("phase advanced game_id=%d round=%d from=%s to=%s", game.ID, round.Number, round.Phase, next)
	s.recordEvent(ctx, game, eventPhaseAdvanced, round.Number, "", EventPayload{
		PreviousPhase: round.Phase,
		Phase:         next,
	})
	return AdvanceResult{
		PreviousPhase:  round.Phase,
		NewPhase:       next,
		PhaseStartedAt: now,
		Committed:      true,
	}, nil
}

// CurrentPrompt is the read-only view polled by clients. The answer count
// is best effort and degrades to zero.
func (s *Service) CurrentPrompt(ctx context.Context, roomCode string) (PromptSnapshot, error) {
	game, round, err := s.loadActiveRound(ctx, roomCode)
	if err != nil {
		return PromptSnapshot{}, err
	}
	prompt, err := s.store.PromptByID(ctx, round.PromptID)
	if errors.Is(err, ErrNotFound) {
		return PromptSnapshot{}, notFound("prompt")
	}
	if err != nil {
		return PromptSnapshot{}, fmt.Errorf("load prompt: %w", err)
	}
	timing := Measure(round.Phase, round.PhaseStartedAt, s.now(), s.durations)
	submitted, err := s.store.CountAnswers(ctx, game.ID, round.Number)
	if err != nil {
		log.Printf("count answers failed game_id=%d round=%d error=%v", game.ID, round.Number, err)
		submitted = 0
	}
	return PromptSnapshot{
		PromptID:       prompt.ID,
		Topic1:         prompt.Topic1,
		Topic2:         prompt.Topic2,
		RoundNumber:    round.Number,
		Phase:          round.Phase,
		TimeRemaining:  timing.RemainingSeconds,
		SubmittedCount: submitted,
	}, nil
}

// ActiveRound exposes the current round for schedulers that need to know
// when the phase will expire.
func (s *Service) ActiveRound(ctx context.Context, roomCode string) (Round, error) {
	_, round, err := s.loadActiveRound(ctx, roomCode)
	return round, err
}
