package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag names are normalized to lower case. Uniqueness by name is enforced by
// lookup-before-insert in the prompts service, backed by the index here.
type Tag struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// PromptTag links one prompt to one tag. Rows are removed with their prompt
// via the cascade constraint.
type PromptTag struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	PromptID  string    `gorm:"type:uuid;not null;index" json:"prompt_id"`
	Prompt    Prompt    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TagID     string    `gorm:"type:uuid;not null;index" json:"tag_id"`
	Tag       Tag       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (pt *PromptTag) BeforeCreate(tx *gorm.DB) error {
	if pt.ID == "" {
		pt.ID = uuid.NewString()
	}
	return nil
}
