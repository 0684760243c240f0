package game

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"
)

type roundKey struct {
	gameID uint
	number int
}

type memberKey struct {
	gameID   uint
	number   int
	playerID string
}

// MemoryStore is a Store held in process memory behind a single mutex. It
// backs the server when no database is configured, and the tests.
type MemoryStore struct {
	mu          sync.Mutex
	nextGameID  uint
	nextEventID uint
	games       map[uint]*Game
	codes       map[string]uint
	players     map[uint][]Player
	rounds      map[roundKey]*Round
	answers     map[memberKey]*Answer
	answerOrder map[roundKey][]memberKey
	votes       map[memberKey]Vote
	voteOrder   map[roundKey][]memberKey
	prompts     []Prompt
	events      map[uint][]Event
}

func NewMemoryStore(prompts ...Prompt) *MemoryStore {
	store := &MemoryStore{
		nextGameID:  1,
		nextEventID: 1,
		games:       make(map[uint]*Game),
		codes:       make(map[string]uint),
		players:     make(map[uint][]Player),
		rounds:      make(map[roundKey]*Round),
		answers:     make(map[memberKey]*Answer),
		answerOrder: make(map[roundKey][]memberKey),
		votes:       make(map[memberKey]Vote),
		voteOrder:   make(map[roundKey][]memberKey),
		events:      make(map[uint][]Event),
	}
	for i, prompt := range prompts {
		if prompt.ID == 0 {
			prompt.ID = uint(i + 1)
		}
		store.prompts = append(store.prompts, prompt)
	}
	return store
}

// DefaultPrompts seeds stores that have no prompt library.
func DefaultPrompts() []Prompt {
	return []Prompt{
		{ID: 1, Topic1: "Things at a beach", Topic2: "Things that are hot"},
		{ID: 2, Topic1: "Breakfast foods", Topic2: "Things that are round"},
		{ID: 3, Topic1: "Pets", Topic2: "Things with wings"},
		{ID: 4, Topic1: "Movie villains", Topic2: "Things that are green"},
		{ID: 5, Topic1: "Board games", Topic2: "Things in a kitchen"},
		{ID: 6, Topic1: "Sports equipment", Topic2: "Things that bounce"},
		{ID: 7, Topic1: "Musical instruments", Topic2: "Things made of wood"},
		{ID: 8, Topic1: "Fairy tale characters", Topic2: "Things that sleep a lot"},
	}
}

func (s *MemoryStore) CreateGame(ctx context.Context, roomCode string, at time.Time) (Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[roomCode]; ok {
		return Game{}, ErrConflict
	}
	game := &Game{
		ID:        s.nextGameID,
		RoomCode:  roomCode,
		Status:    StatusLobby,
		CreatedAt: at,
	}
	s.nextGameID++
	s.games[game.ID] = game
	s.codes[roomCode] = game.ID
	return *game, nil
}

func (s *MemoryStore) GameByRoomCode(ctx context.Context, roomCode string) (Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.codes[roomCode]
	if !ok {
		return Game{}, ErrNotFound
	}
	return *s.games[id], nil
}

func (s *MemoryStore) RoomCodeExists(ctx context.Context, roomCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.codes[roomCode]
	return ok, nil
}

func (s *MemoryStore) CountPlayers(ctx context.Context, gameID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players[gameID]), nil
}

func (s *MemoryStore) ListPlayers(ctx context.Context, gameID uint) ([]Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	players := append([]Player(nil), s.players[gameID]...)
	sort.Slice(players, func(i, j int) bool {
		return players[i].JoinOrder < players[j].JoinOrder
	})
	return players, nil
}

func (s *MemoryStore) PlayerInGame(ctx context.Context, gameID uint, playerID string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, player := range s.players[gameID] {
		if player.ID == playerID {
			return player, nil
		}
	}
	return Player{}, ErrNotFound
}

func (s *MemoryStore) InsertPlayer(ctx context.Context, player Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[player.GameID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.players[player.GameID] {
		if existing.JoinOrder == player.JoinOrder || existing.ID == player.ID {
			return ErrConflict
		}
	}
	s.players[player.GameID] = append(s.players[player.GameID], player)
	return nil
}

func (s *MemoryStore) RoundByNumber(ctx context.Context, gameID uint, number int) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundKey{gameID, number}]
	if !ok {
		return Round{}, ErrNotFound
	}
	return *round, nil
}

func (s *MemoryStore) StartRound(ctx context.Context, gameID uint, round Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[gameID]
	if !ok {
		return ErrNotFound
	}
	if game.Status != StatusLobby {
		return ErrStale
	}
	key := roundKey{gameID, round.Number}
	if _, exists := s.rounds[key]; exists {
		return ErrConflict
	}
	round.GameID = gameID
	s.rounds[key] = &round
	game.Status = StatusPlaying
	game.CurrentRound = round.Number
	game.CurrentPhase = round.Phase
	game.PhaseStartedAt = round.PhaseStartedAt
	return nil
}

func (s *MemoryStore) AdvancePhase(ctx context.Context, gameID uint, roundNumber int, from Phase, at time.Time, next func(answers int) Phase) (Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roundKey{gameID, roundNumber}
	round, ok := s.rounds[key]
	if !ok {
		return PhaseNone, ErrNotFound
	}
	if round.Phase != from {
		return PhaseNone, ErrStale
	}
	to := next(len(s.answerOrder[key]))
	round.Phase = to
	round.PhaseStartedAt = at
	if game, ok := s.games[gameID]; ok {
		game.CurrentPhase = to
		game.PhaseStartedAt = at
	}
	return to, nil
}

// inPhase reports whether the round is in phase. Callers hold s.mu.
func (s *MemoryStore) inPhase(gameID uint, roundNumber int, phase Phase) bool {
	round, ok := s.rounds[roundKey{gameID, roundNumber}]
	return ok && round.Phase == phase
}

func (s *MemoryStore) CountAnswers(ctx context.Context, gameID uint, roundNumber int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answerOrder[roundKey{gameID, roundNumber}]), nil
}

func (s *MemoryStore) ListAnswers(ctx context.Context, gameID uint, roundNumber int) ([]Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.answerOrder[roundKey{gameID, roundNumber}]
	answers := make([]Answer, 0, len(keys))
	for _, key := range keys {
		answers = append(answers, *s.answers[key])
	}
	return answers, nil
}

func (s *MemoryStore) AnswerInRound(ctx context.Context, gameID uint, roundNumber int, answerID string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.answerOrder[roundKey{gameID, roundNumber}] {
		if answer := s.answers[key]; answer.ID == answerID {
			return *answer, nil
		}
	}
	return Answer{}, ErrNotFound
}

func (s *MemoryStore) UpsertAnswer(ctx context.Context, answer Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inPhase(answer.GameID, answer.RoundNumber, PhaseAnswering) {
		return ErrStale
	}
	key := memberKey{answer.GameID, answer.RoundNumber, answer.PlayerID}
	if existing, ok := s.answers[key]; ok {
		existing.Text = answer.Text
		return nil
	}
	stored := answer
	s.answers[key] = &stored
	rk := roundKey{answer.GameID, answer.RoundNumber}
	s.answerOrder[rk] = append(s.answerOrder[rk], key)
	return nil
}

func (s *MemoryStore) InsertVoteIfAbsent(ctx context.Context, vote Vote) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inPhase(vote.GameID, vote.RoundNumber, PhaseVoting) {
		return false, ErrStale
	}
	key := memberKey{vote.GameID, vote.RoundNumber, vote.VoterID}
	if _, ok := s.votes[key]; ok {
		return false, nil
	}
	s.votes[key] = vote
	rk := roundKey{vote.GameID, vote.RoundNumber}
	s.voteOrder[rk] = append(s.voteOrder[rk], key)
	return true, nil
}

func (s *MemoryStore) HasVoted(ctx context.Context, gameID uint, roundNumber int, voterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.votes[memberKey{gameID, roundNumber, voterID}]
	return ok, nil
}

func (s *MemoryStore) ListVotes(ctx context.Context, gameID uint, roundNumber int) ([]Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.voteOrder[roundKey{gameID, roundNumber}]
	votes := make([]Vote, 0, len(keys))
	for _, key := range keys {
		votes = append(votes, s.votes[key])
	}
	return votes, nil
}

func (s *MemoryStore) RandomPrompt(ctx context.Context) (Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return Prompt{}, ErrNoPrompts
	}
	return s.prompts[rand.IntN(len(s.prompts))], nil
}

func (s *MemoryStore) PromptByID(ctx context.Context, id uint) (Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, prompt := range s.prompts {
		if prompt.ID == id {
			return prompt, nil
		}
	}
	return Prompt{}, ErrNotFound
}

func (s *MemoryStore) RecordEvent(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.nextEventID
	s.nextEventID++
	s.events[event.GameID] = append(s.events[event.GameID], event)
	return nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, gameID uint) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events[gameID]...), nil
}

var _ Store = (*MemoryStore)(nil)
