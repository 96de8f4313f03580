package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote holds a signed unit value, +1 or -1. At most one row exists per
// (user, prompt) pair; the unique index makes the toggle safe under
// concurrent requests.
type Vote struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_prompt" json:"user_id"`
	PromptID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_prompt;index" json:"prompt_id"`
	VoteType  int       `gorm:"not null" json:"vote_type"` // 1 or -1
	CreatedAt time.Time `json:"created_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
