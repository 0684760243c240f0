package game

import (
	"context"
	"errors"
	"fmt"
	"log"
)

const maxCreateAttempts = 3

// CreateRoom allocates a code and inserts a lobby game for it. An insert
// that collides with a concurrent creator re-allocates.
func (s *Service) CreateRoom(ctx context.Context) (Game, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		code, err := s.codes.Allocate(ctx)
		if err != nil {
			return Game{}, err
		}
		game, err := s.store.CreateGame(ctx, code, s.now())
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return Game{}, fmt.Errorf("create game: %w", err)
		}
		log.Printf("room created game_id=%d room_code=%s", game.ID, game.RoomCode)
		s.recordEvent(ctx, game, eventRoomCreated, 0, "", EventPayload{RoomCode: game.RoomCode})
		return game, nil
	}
	return Game{}, ErrAllocationExhausted
}

// Join admits a player to a lobby. The join that fills the room starts the
// game exactly as Start would, creating round 1.
func (s *Service) Join(ctx context.Context, roomCode, playerName string) (JoinResult, error) {
	name, err := ValidateName(playerName)
	if err != nil {
		return JoinResult{}, err
	}
	game, err := s.loadGame(ctx, roomCode)
	if err != nil {
		return JoinResult{}, err
	}

	// Each lost join_order race re-reads the count, so at most MaxPlayers
	// retries can be needed before the room is full.
	for attempt := 0; attempt <= MaxPlayers; attempt++ {
		count, err := s.store.CountPlayers(ctx, game.ID)
		if err != nil {
			return JoinResult{}, fmt.Errorf("count players: %w", err)
		}
		if count >= MaxPlayers {
			return JoinResult{}, fmt.Errorf("%w (%d/%d players)", ErrRoomFull, count, MaxPlayers)
		}
		if game.Status != StatusLobby {
			return JoinResult{}, ErrAlreadyStarted
		}

		player := Player{
			ID:          s.newID(),
			GameID:      game.ID,
			DisplayName: name,
			JoinOrder:   count + 1,
			IsConnected: true,
		}
		err = s.store.InsertPlayer(ctx, player)
		if errors.Is(err, ErrConflict) {
			if game, err = s.loadGame(ctx, game.RoomCode); err != nil {
				return JoinResult{}, err
			}
			continue
		}
		if err != nil {
			return JoinResult{}, fmt.Errorf("insert player: %w", err)
		}
		log.Printf("player joined game_id=%d player_id=%s join_order=%d", game.ID, player.ID, player.JoinOrder)
		s.recordEvent(ctx, game, eventPlayerJoined, 0, player.ID, EventPayload{PlayerName: name, Count: player.JoinOrder})

		result := JoinResult{PlayerID: player.ID, PlayerName: player.DisplayName}
		if player.JoinOrder == MaxPlayers {
			round, err := s.startGame(ctx, game, "room_full")
			switch {
			case err == nil:
				result.AutoStarted = true
				result.Round = &round
			case errors.Is(err, ErrAlreadyStarted):
			default:
				// The player row is committed; the lobby can still be started
				// explicitly, so the join itself succeeds.
				log.Printf("auto-start failed game_id=%d error=%v", game.ID, err)
			}
		}
		return result, nil
	}
	return JoinResult{}, ErrRoomFull
}

func (s *Service) Start(ctx context.Context, roomCode string) (StartResult, error) {
	game, err := s.loadGame(ctx, roomCode)
	if err != nil {
		return StartResult{}, err
	}
	if game.Status != StatusLobby {
		return StartResult{}, ErrAlreadyStarted
	}
	count, err := s.store.CountPlayers(ctx, game.ID)
	if err != nil {
		return StartResult{}, fmt.Errorf("count players: %w", err)
	}
	if count < 1 {
		return StartResult{}, ErrInsufficientPlayers
	}
	if count > MaxPlayers {
		return StartResult{}, ErrTooManyPlayers
	}
	round, err := s.startGame(ctx, game, "manual")
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{
		RoundNumber:    round.Number,
		Phase:          round.Phase,
		PhaseStartedAt: round.PhaseStartedAt,
	}, nil
}

func (s *Service) startGame(ctx context.Context, game Game, reason string) (Round, error) {
	prompt, err := s.store.RandomPrompt(ctx)
	if errors.Is(err, ErrNoPrompts) {
		return Round{}, ErrNoPrompts
	}
	if err != nil {
		return Round{}, fmt.Errorf("pick prompt: %w", err)
	}
	round := Round{
		GameID:         game.ID,
		Number:         1,
		PromptID:       prompt.ID,
		Phase:          PhaseAnswering,
		PhaseStartedAt: s.now(),
	}
	if err := s.store.StartRound(ctx, game.ID, round); err != nil {
		if errors.Is(err, ErrStale) || errors.Is(err, ErrConflict) {
			return Round{}, ErrAlreadyStarted
		}
		return Round{}, fmt.Errorf("start round: %w", err)
	}
	log.Printf("game started game_id=%d round=%d prompt_id=%d reason=%s", game.ID, round.Number, prompt.ID, reason)
	s.recordEvent(ctx, game, eventGameStarted, round.Number, "", EventPayload{
		Phase:    round.Phase,
		PromptID: prompt.ID,
		Reason:   reason,
	})
	return round, nil
}

func (s *Service) Players(ctx context.Context, roomCode string) ([]Player, error) {
	game, err := s.loadGame(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayers(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// State reports the room summary. A non-empty playerID must belong to the
// room.
func (s *Service) State(ctx context.Context, roomCode, playerID string) (RoomState, error) {
	game, err := s.loadGame(ctx, roomCode)
	if err != nil {
		return RoomState{}, err
	}
	count, err := s.store.CountPlayers(ctx, game.ID)
	if err != nil {
		return RoomState{}, fmt.Errorf("count players: %w", err)
	}
	if playerID != "" {
		if _, err := s.store.PlayerInGame(ctx, game.ID, playerID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return RoomState{}, notFound("player")
			}
			return RoomState{}, fmt.Errorf("load player: %w", err)
		}
	}
	return RoomState{
		Status:       game.Status,
		CurrentRound: game.CurrentRound,
		PlayerCount:  count,
	}, nil
}
