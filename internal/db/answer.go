package db

import "time"

// Answer rows are keyed by (game, round, player); resubmissions update text in place.
type Answer struct {
	ID          string    `gorm:"primaryKey;size:36"`
	GameID      uint      `gorm:"not null;uniqueIndex:idx_answers_game_round_player"`
	RoundNumber int       `gorm:"not null;uniqueIndex:idx_answers_game_round_player"`
	PlayerID    string    `gorm:"size:36;not null;uniqueIndex:idx_answers_game_round_player"`
	Text        string    `gorm:"size:280;not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}
