package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Prompt struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string `gorm:"not null" json:"title"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Category string `gorm:"not null;index" json:"category"`
	UserID   string `gorm:"type:uuid;not null;index" json:"user_id"`

	// VoteCount is the running sum of all +1/-1 votes and the primary feed
	// sort key. It is maintained inside the same transaction as the vote row.
	VoteCount int `gorm:"default:0" json:"vote_count"`

	// Legacy favorites fields. Superseded by VoteCount; kept in the schema
	// for migration parity but never written by this code.
	IsFavorite    bool `gorm:"default:false" json:"is_favorite"`
	FavoriteCount int  `gorm:"default:0" json:"favorite_count"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// UserFavorite is the legacy favorites join table. Kept for migration
// parity only; the voting tables are authoritative.
type UserFavorite struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	PromptID  string    `gorm:"type:uuid;not null;index" json:"prompt_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *UserFavorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
