package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
)

// CastVote records one immutable vote per voter per round.
func (s *Service) CastVote(ctx context.Context, roomCode, playerID, answerID string) error {
	if playerID == "" || answerID == "" {
		return invalid("missing playerId or answerId")
	}
	game, round, err := s.loadActiveRound(ctx, roomCode)
	if err != nil {
		return err
	}
	if round.Phase != PhaseVoting {
		return fmt.Errorf("%w: not in voting phase", ErrWrongPhase)
	}
	if _, err := s.store.PlayerInGame(ctx, game.ID, playerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound("player")
		}
		return fmt.Errorf("load player: %w", err)
	}
	voted, err := s.store.HasVoted(ctx, game.ID, round.Number, playerID)
	if err != nil {
		return fmt.Errorf("check vote: %w", err)
	}
	if voted {
		return ErrAlreadyVoted
	}
	answer, err := s.store.AnswerInRound(ctx, game.ID, round.Number, answerID)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidAnswer
	}
	if err != nil {
		return fmt.Errorf("load answer: %w", err)
	}
	if answer.PlayerID == playerID {
		return ErrSelfVote
	}

	inserted, err := s.store.InsertVoteIfAbsent(ctx, Vote{
		GameID:      game.ID,
		RoundNumber: round.Number,
		VoterID:     playerID,
		AnswerID:    answer.ID,
	})
	if errors.Is(err, ErrStale) {
		return fmt.Errorf("%w: not in voting phase", ErrWrongPhase)
	}
	if err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	if !inserted {
		return ErrAlreadyVoted
	}
	log.Printf("vote cast game_id=%d round=%d voter_id=%s answer_id=%s", game.ID, round.Number, playerID, answer.ID)
	s.recordEvent(ctx, game, eventVoteCast, round.Number, playerID, EventPayload{AnswerID: answer.ID})
	return nil
}

// Votable lists the current round's answers minus the caller's own, and
// whether the caller has voted. An empty playerID sees every answer.
func (s *Service) Votable(ctx context.Context, roomCode, playerID string) (VotableList, error) {
	game, err := s.loadPlayingGame(ctx, roomCode)
	if err != nil {
		return VotableList{}, err
	}
	answers, players, err := s.roundAnswers(ctx, game)
	if err != nil {
		return VotableList{}, err
	}
	list := VotableList{Answers: make([]VotableAnswer, 0, len(answers))}
	for _, answer := range answers {
		if playerID != "" && answer.PlayerID == playerID {
			continue
		}
		list.Answers = append(list.Answers, VotableAnswer{
			ID:                answer.ID,
			Text:              answer.Text,
			AuthorDisplayName: players[answer.PlayerID].DisplayName,
		})
	}
	if playerID != "" {
		voted, err := s.store.HasVoted(ctx, game.ID, game.CurrentRound, playerID)
		if err != nil {
			return VotableList{}, fmt.Errorf("check vote: %w", err)
		}
		list.HasVoted = voted
	}
	return list, nil
}

// Results tallies the votes of a round that has reached the results phase.
func (s *Service) Results(ctx context.Context, roomCode string) (RoundResults, error) {
	game, round, err := s.loadActiveRound(ctx, roomCode)
	if err != nil {
		return RoundResults{}, err
	}
	if round.Phase != PhaseResults {
		return RoundResults{}, fmt.Errorf("%w: results not available during %s", ErrWrongPhase, round.Phase)
	}
	answers, players, err := s.roundAnswers(ctx, game)
	if err != nil {
		return RoundResults{}, err
	}
	votes, err := s.store.ListVotes(ctx, game.ID, round.Number)
	if err != nil {
		return RoundResults{}, fmt.Errorf("list votes: %w", err)
	}
	counts := make(map[string]int, len(answers))
	for _, vote := range votes {
		counts[vote.AnswerID]++
	}
	type ranked struct {
		answer TalliedAnswer
		order  int
	}
	rows := make([]ranked, 0, len(answers))
	for _, answer := range answers {
		author := players[answer.PlayerID]
		rows = append(rows, ranked{
			answer: TalliedAnswer{
				ID:                answer.ID,
				Text:              answer.Text,
				AuthorDisplayName: author.DisplayName,
				Votes:             counts[answer.ID],
			},
			order: author.JoinOrder,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].answer.Votes != rows[j].answer.Votes {
			return rows[i].answer.Votes > rows[j].answer.Votes
		}
		return rows[i].order < rows[j].order
	})
	tallied := make([]TalliedAnswer, 0, len(rows))
	for _, row := range rows {
		tallied = append(tallied, row.answer)
	}
	return RoundResults{
		RoundNumber: round.Number,
		Phase:       round.Phase,
		Answers:     tallied,
	}, nil
}

func (s *Service) roundAnswers(ctx context.Context, game Game) ([]Answer, map[string]Player, error) {
	answers, err := s.store.ListAnswers(ctx, game.ID, game.CurrentRound)
	if err != nil {
		return nil, nil, fmt.Errorf("list answers: %w", err)
	}
	players, err := s.store.ListPlayers(ctx, game.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list players: %w", err)
	}
	byID := make(map[string]Player, len(players))
	for _, player := range players {
		byID[player.ID] = player
	}
	return answers, byID, nil
}
