package game

import (
	"context"
	"time"
)

// Store is the persistence collaborator. Lookups return ErrNotFound when
// the row is absent. Writes that lose a race return ErrStale (conditional
// update) or ErrConflict (unique constraint).
type Store interface {
	CreateGame(ctx context.Context, roomCode string, at time.Time) (Game, error)
	GameByRoomCode(ctx context.Context, roomCode string) (Game, error)
	RoomCodeExists(ctx context.Context, roomCode string) (bool, error)

	CountPlayers(ctx context.Context, gameID uint) (int, error)
	ListPlayers(ctx context.Context, gameID uint) ([]Player, error)
	PlayerInGame(ctx context.Context, gameID uint, playerID string) (Player, error)
	// InsertPlayer returns ErrConflict when JoinOrder is already taken.
	InsertPlayer(ctx context.Context, player Player) error

	RoundByNumber(ctx context.Context, gameID uint, number int) (Round, error)
	// StartRound flips a lobby game to playing and inserts the round in one
	// unit. ErrStale when the game is no longer in the lobby.
	StartRound(ctx context.Context, gameID uint, round Round) error
	// AdvancePhase moves the round (then the game projection) out of from.
	// next picks the target phase from the round's answer count, read in the
	// same unit as the write so no answer can land in between. ErrStale when
	// the round is no longer in from.
	AdvancePhase(ctx context.Context, gameID uint, roundNumber int, from Phase, at time.Time, next func(answers int) Phase) (Phase, error)

	CountAnswers(ctx context.Context, gameID uint, roundNumber int) (int, error)
	ListAnswers(ctx context.Context, gameID uint, roundNumber int) ([]Answer, error)
	AnswerInRound(ctx context.Context, gameID uint, roundNumber int, answerID string) (Answer, error)
	// UpsertAnswer keys on (game, round, player) and overwrites the text of
	// an existing row, keeping its id. ErrStale when the round has left the
	// answering phase.
	UpsertAnswer(ctx context.Context, answer Answer) error

	// InsertVoteIfAbsent reports false when the voter already has a vote
	// for the round. ErrStale when the round is not in the voting phase.
	InsertVoteIfAbsent(ctx context.Context, vote Vote) (bool, error)
	HasVoted(ctx context.Context, gameID uint, roundNumber int, voterID string) (bool, error)
	ListVotes(ctx context.Context, gameID uint, roundNumber int) ([]Vote, error)

	RandomPrompt(ctx context.Context) (Prompt, error)
	PromptByID(ctx context.Context, id uint) (Prompt, error)

	RecordEvent(ctx context.Context, event Event) error
	ListEvents(ctx context.Context, gameID uint) ([]Event, error)
}
