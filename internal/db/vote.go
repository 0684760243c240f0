package db

import "time"

type Vote struct {
	ID          uint      `gorm:"primaryKey"`
	GameID      uint      `gorm:"not null;uniqueIndex:idx_votes_game_round_voter"`
	RoundNumber int       `gorm:"not null;uniqueIndex:idx_votes_game_round_voter"`
	VoterID     string    `gorm:"size:36;not null;uniqueIndex:idx_votes_game_round_voter"`
	AnswerID    string    `gorm:"size:36;index;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}
