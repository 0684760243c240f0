package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Service runs the room lifecycle and the per-round phase machine on top of
// a Store. It holds no game state of its own; every call re-reads the rows
// it needs, so any number of Services may share one store.
type Service struct {
	store     Store
	codes     *CodeAllocator
	durations Durations
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

func WithDurations(d Durations) Option {
	return func(s *Service) {
		s.durations = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithCodeGenerator(generate func() string) Option {
	return func(s *Service) {
		s.codes.generate = generate
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		codes:     NewCodeAllocator(store),
		durations: DefaultDurations(),
		now:       timeNowUTC,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Durations() Durations {
	return s.durations
}

func (s *Service) Now() time.Time {
	return s.now()
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalid("player name is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return "", invalid(fmt.Sprintf("player name must be %d characters or less", MaxNameLength))
	}
	return trimmed, nil
}

func ValidateAnswer(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", invalid("answer cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxAnswerLength {
		return "", invalid(fmt.Sprintf("answer too long (max %d characters)", MaxAnswerLength))
	}
	return trimmed, nil
}

func (s *Service) loadGame(ctx context.Context, roomCode string) (Game, error) {
	game, err := s.store.GameByRoomCode(ctx, NormalizeRoomCode(roomCode))
	if errors.Is(err, ErrNotFound) {
		return Game{}, notFound("game")
	}
	if err != nil {
		return Game{}, fmt.Errorf("load game: %w", err)
	}
	return game, nil
}

func (s *Service) loadPlayingGame(ctx context.Context, roomCode string) (Game, error) {
	game, err := s.loadGame(ctx, roomCode)
	if err != nil {
		return Game{}, err
	}
	if game.Status != StatusPlaying {
		return Game{}, ErrNotPlaying
	}
	return game, nil
}

// loadActiveRound returns the playing game and its current round. The round
// row is the source of truth for phase timing.
func (s *Service) loadActiveRound(ctx context.Context, roomCode string) (Game, Round, error) {
	game, err := s.loadPlayingGame(ctx, roomCode)
	if err != nil {
		return Game{}, Round{}, err
	}
	round, err := s.store.RoundByNumber(ctx, game.ID, game.CurrentRound)
	if errors.Is(err, ErrNotFound) {
		return Game{}, Round{}, notFound("round")
	}
	if err != nil {
		return Game{}, Round{}, fmt.Errorf("load round: %w", err)
	}
	return game, round, nil
}

func (s *Service) recordEvent(ctx context.Context, game Game, eventType string, roundNumber int, playerID string, payload EventPayload) {
	event := Event{
		GameID:      game.ID,
		RoundNumber: roundNumber,
		PlayerID:    playerID,
		Type:        eventType,
		Payload:     payload,
		CreatedAt:   s.now(),
	}
	if err := s.store.RecordEvent(ctx, event); err != nil {
		log.Printf("record event failed game_id=%d type=%s error=%v", game.ID, eventType, err)
	}
}

func (s *Service) Events(ctx context.Context, roomCode string) ([]Event, error) {
	game, err := s.loadGame(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ListEvents(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
