package db

import "time"

type Player struct {
	ID          string    `gorm:"primaryKey;size:36"`
	GameID      uint      `gorm:"index;not null;uniqueIndex:idx_players_game_order"`
	DisplayName string    `gorm:"size:64;not null"`
	JoinOrder   int       `gorm:"not null;uniqueIndex:idx_players_game_order"`
	IsConnected bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}
