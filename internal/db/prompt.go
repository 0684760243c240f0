package db

import "time"

type Prompt struct {
	ID        uint      `gorm:"primaryKey"`
	Topic1    string    `gorm:"size:128;not null;uniqueIndex:idx_prompts_topics"`
	Topic2    string    `gorm:"size:128;not null;uniqueIndex:idx_prompts_topics"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
