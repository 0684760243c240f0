package db

import "time"

type Round struct {
	ID             uint      `gorm:"primaryKey"`
	GameID         uint      `gorm:"index;not null;uniqueIndex:idx_rounds_game_number"`
	Number         int       `gorm:"not null;uniqueIndex:idx_rounds_game_number"`
	PromptID       uint      `gorm:"index;not null"`
	Phase          string    `gorm:"size:16;not null"`
	PhaseStartedAt time.Time `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}
