package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charue808/eikogames/internal/game"
)

// Store persists Overlap rooms in Postgres. Every guarded transition is a
// conditional UPDATE; unique indexes enforce one answer and one vote per
// player per round.
type Store struct {
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

func (s *Store) CreateGame(ctx context.Context, roomCode string, at time.Time) (game.Game, error) {
	record := Game{
		RoomCode:  roomCode,
		Status:    string(game.StatusLobby),
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return game.Game{}, translate(err)
	}
	return toGame(record), nil
}

func (s *Store) GameByRoomCode(ctx context.Context, roomCode string) (game.Game, error) {
	var record Game
	if err := s.db.WithContext(ctx).Where("room_code = ?", roomCode).First(&record).Error; err != nil {
		return game.Game{}, translate(err)
	}
	return toGame(record), nil
}

func (s *Store) RoomCodeExists(ctx context.Context, roomCode string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Game{}).Where("room_code = ?", roomCode).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CountPlayers(ctx context.Context, gameID uint) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Player{}).Where("game_id = ?", gameID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Store) ListPlayers(ctx context.Context, gameID uint) ([]game.Player, error) {
	var records []Player
	if err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Order("join_order").Find(&records).Error; err != nil {
		return nil, err
	}
	players := make([]game.Player, 0, len(records))
	for _, record := range records {
		players = append(players, toPlayer(record))
	}
	return players, nil
}

func (s *Store) PlayerInGame(ctx context.Context, gameID uint, playerID string) (game.Player, error) {
	var record Player
	err := s.db.WithContext(ctx).
		Where("id = ? AND game_id = ?", playerID, gameID).
		First(&record).Error
	if err != nil {
		return game.Player{}, translate(err)
	}
	return toPlayer(record), nil
}

func (s *Store) InsertPlayer(ctx context.Context, player game.Player) error {
	record := Player{
		ID:          player.ID,
		GameID:      player.GameID,
		DisplayName: player.DisplayName,
		JoinOrder:   player.JoinOrder,
		IsConnected: player.IsConnected,
	}
	return translate(s.db.WithContext(ctx).Create(&record).Error)
}

func (s *Store) RoundByNumber(ctx context.Context, gameID uint, number int) (game.Round, error) {
	var record Round
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND number = ?", gameID, number).
		First(&record).Error
	if err != nil {
		return game.Round{}, translate(err)
	}
	return toRound(record), nil
}

// StartRound flips the game out of the lobby and creates the round in one
// transaction. Only the caller whose update matches status=lobby proceeds.
func (s *Store) StartRound(ctx context.Context, gameID uint, round game.Round) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		started := round.PhaseStartedAt
		result := tx.Model(&Game{}).
			Where("id = ? AND status = ?", gameID, string(game.StatusLobby)).
			Updates(map[string]any{
				"status":           string(game.StatusPlaying),
				"current_round":    round.Number,
				"current_phase":    string(round.Phase),
				"phase_started_at": &started,
				"updated_at":       started,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return game.ErrStale
		}
		record := Round{
			GameID:         gameID,
			Number:         round.Number,
			PromptID:       round.PromptID,
			Phase:          string(round.Phase),
			PhaseStartedAt: round.PhaseStartedAt,
		}
		return translate(tx.Create(&record).Error)
	})
}

// AdvancePhase locks the round row, checks it is still in from and counts
// its answers before choosing the next phase. Answer writes take a shared
// lock on the same row, so the count cannot change under the decision.
func (s *Store) AdvancePhase(ctx context.Context, gameID uint, roundNumber int, from game.Phase, at time.Time, next func(answers int) game.Phase) (game.Phase, error) {
	var to game.Phase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRound(tx, gameID, roundNumber, from, "UPDATE"); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&Answer{}).
			Where("game_id = ? AND round_number = ?", gameID, roundNumber).
			Count(&count).Error; err != nil {
			return err
		}
		to = next(int(count))
		result := tx.Model(&Round{}).
			Where("game_id = ? AND number = ? AND phase = ?", gameID, roundNumber, string(from)).
			Updates(map[string]any{
				"phase":            string(to),
				"phase_started_at": at,
				"updated_at":       at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return game.ErrStale
		}
		return tx.Model(&Game{}).
			Where("id = ? AND current_round = ?", gameID, roundNumber).
			Updates(map[string]any{
				"current_phase":    string(to),
				"phase_started_at": &at,
				"updated_at":       at,
			}).Error
	})
	if err != nil {
		return game.PhaseNone, err
	}
	return to, nil
}

// lockRound takes a row lock on the round and returns ErrStale unless it is
// in phase. strength is UPDATE for transitions and SHARE for ledger writes.
func lockRound(tx *gorm.DB, gameID uint, roundNumber int, phase game.Phase, strength string) error {
	var record Round
	err := tx.Clauses(clause.Locking{Strength: strength}).
		Where("game_id = ? AND number = ?", gameID, roundNumber).
		Take(&record).Error
	if err != nil {
		return translate(err)
	}
	if record.Phase != string(phase) {
		return game.ErrStale
	}
	return nil
}

func (s *Store) CountAnswers(ctx context.Context, gameID uint, roundNumber int) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Answer{}).
		Where("game_id = ? AND round_number = ?", gameID, roundNumber).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Store) ListAnswers(ctx context.Context, gameID uint, roundNumber int) ([]game.Answer, error) {
	var records []Answer
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND round_number = ?", gameID, roundNumber).
		Order("created_at, id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	answers := make([]game.Answer, 0, len(records))
	for _, record := range records {
		answers = append(answers, toAnswer(record))
	}
	return answers, nil
}

func (s *Store) AnswerInRound(ctx context.Context, gameID uint, roundNumber int, answerID string) (game.Answer, error) {
	var record Answer
	err := s.db.WithContext(ctx).
		Where("id = ? AND game_id = ? AND round_number = ?", answerID, gameID, roundNumber).
		First(&record).Error
	if err != nil {
		return game.Answer{}, translate(err)
	}
	return toAnswer(record), nil
}

func (s *Store) UpsertAnswer(ctx context.Context, answer game.Answer) error {
	record := Answer{
		ID:          answer.ID,
		GameID:      answer.GameID,
		RoundNumber: answer.RoundNumber,
		PlayerID:    answer.PlayerID,
		Text:        answer.Text,
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRound(tx, answer.GameID, answer.RoundNumber, game.PhaseAnswering, "SHARE"); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_id"}, {Name: "round_number"}, {Name: "player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
		}).Create(&record).Error
	})
}

func (s *Store) InsertVoteIfAbsent(ctx context.Context, vote game.Vote) (bool, error) {
	record := Vote{
		GameID:      vote.GameID,
		RoundNumber: vote.RoundNumber,
		VoterID:     vote.VoterID,
		AnswerID:    vote.AnswerID,
	}
	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRound(tx, vote.GameID, vote.RoundNumber, game.PhaseVoting, "SHARE"); err != nil {
			return err
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_id"}, {Name: "round_number"}, {Name: "voter_id"}},
			DoNothing: true,
		}).Create(&record)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (s *Store) HasVoted(ctx context.Context, gameID uint, roundNumber int, voterID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Vote{}).
		Where("game_id = ? AND round_number = ? AND voter_id = ?", gameID, roundNumber, voterID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListVotes(ctx context.Context, gameID uint, roundNumber int) ([]game.Vote, error) {
	var records []Vote
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND round_number = ?", gameID, roundNumber).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	votes := make([]game.Vote, 0, len(records))
	for _, record := range records {
		votes = append(votes, game.Vote{
			GameID:      record.GameID,
			RoundNumber: record.RoundNumber,
			VoterID:     record.VoterID,
			AnswerID:    record.AnswerID,
		})
	}
	return votes, nil
}

func (s *Store) RandomPrompt(ctx context.Context) (game.Prompt, error) {
	var record Prompt
	err := s.db.WithContext(ctx).Order("random()").Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.Prompt{}, game.ErrNoPrompts
	}
	if err != nil {
		return game.Prompt{}, err
	}
	return toPrompt(record), nil
}

func (s *Store) PromptByID(ctx context.Context, id uint) (game.Prompt, error) {
	var record Prompt
	if err := s.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return game.Prompt{}, translate(err)
	}
	return toPrompt(record), nil
}

func (s *Store) RecordEvent(ctx context.Context, event game.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	record := Event{
		GameID:      event.GameID,
		RoundNumber: event.RoundNumber,
		PlayerID:    event.PlayerID,
		Type:        event.Type,
		Payload:     payload,
		CreatedAt:   event.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *Store) ListEvents(ctx context.Context, gameID uint) ([]game.Event, error) {
	var records []Event
	if err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	events := make([]game.Event, 0, len(records))
	for _, record := range records {
		var payload game.EventPayload
		if len(record.Payload) > 0 {
			if err := json.Unmarshal(record.Payload, &payload); err != nil {
				return nil, err
			}
		}
		events = append(events, game.Event{
			ID:          record.ID,
			GameID:      record.GameID,
			RoundNumber: record.RoundNumber,
			PlayerID:    record.PlayerID,
			Type:        record.Type,
			Payload:     payload,
			CreatedAt:   record.CreatedAt,
		})
	}
	return events, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return game.ErrNotFound
	case isUniqueViolation(err):
		return game.ErrConflict
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func toGame(record Game) game.Game {
	out := game.Game{
		ID:           record.ID,
		RoomCode:     record.RoomCode,
		Status:       game.Status(record.Status),
		CurrentRound: record.CurrentRound,
		CurrentPhase: game.Phase(record.CurrentPhase),
		CreatedAt:    record.CreatedAt,
	}
	if record.PhaseStartedAt != nil {
		out.PhaseStartedAt = *record.PhaseStartedAt
	}
	return out
}

func toPlayer(record Player) game.Player {
	return game.Player{
		ID:          record.ID,
		GameID:      record.GameID,
		DisplayName: record.DisplayName,
		JoinOrder:   record.JoinOrder,
		IsConnected: record.IsConnected,
	}
}

func toRound(record Round) game.Round {
	return game.Round{
		GameID:         record.GameID,
		Number:         record.Number,
		PromptID:       record.PromptID,
		Phase:          game.Phase(record.Phase),
		PhaseStartedAt: record.PhaseStartedAt,
	}
}

func toAnswer(record Answer) game.Answer {
	return game.Answer{
		ID:          record.ID,
		GameID:      record.GameID,
		RoundNumber: record.RoundNumber,
		PlayerID:    record.PlayerID,
		Text:        record.Text,
	}
}

func toPrompt(record Prompt) game.Prompt {
	return game.Prompt{
		ID:     record.ID,
		Topic1: record.Topic1,
		Topic2: record.Topic2,
	}
}

var _ game.Store = (*Store)(nil)
