package db

import "time"

type Game struct {
	ID             uint   `gorm:"primaryKey"`
	RoomCode       string `gorm:"size:4;uniqueIndex;not null"`
	Status         string `gorm:"size:16;not null;default:'lobby'"`
	CurrentRound   int    `gorm:"not null;default:0"`
	CurrentPhase   string `gorm:"size:16;not null;default:''"`
	PhaseStartedAt *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}
