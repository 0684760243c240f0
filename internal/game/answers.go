package game

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// SubmitAnswer records a player's answer for the current round. Repeat
// submissions overwrite the text; the store's (game, round, player) key
// keeps exactly one row.
func (s *Service) SubmitAnswer(ctx context.Context, roomCode, playerID, text string) error {
	if playerID == "" {
		return invalid("missing required fields")
	}
	answerText, err := ValidateAnswer(text)
	if err != nil {
		return err
	}
	game, round, err := s.loadActiveRound(ctx, roomCode)
	if err != nil {
		return err
	}
	if round.Phase != PhaseAnswering {
		return fmt.Errorf("%w: not in answering phase", ErrWrongPhase)
	}
	if _, err := s.store.PlayerInGame(ctx, game.ID, playerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound("player")
		}
		return fmt.Errorf("load player: %w", err)
	}

	answer := Answer{
		ID:          s.newID(),
		GameID:      game.ID,
		RoundNumber: round.Number,
		PlayerID:    playerID,
		Text:        answerText,
	}
	if err := s.store.UpsertAnswer(ctx, answer); err != nil {
		if errors.Is(err, ErrStale) {
			return fmt.Errorf("%w: not in answering phase", ErrWrongPhase)
		}
		return fmt.Errorf("upsert answer: %w", err)
	}
	log.Printf("answer submitted game_id=%d round=%d player_id=%s", game.ID, round.Number, playerID)
	s.recordEvent(ctx, game, eventAnswerSubmitted, round.Number, playerID, EventPayload{})
	return nil
}
