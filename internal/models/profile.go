package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile is created implicitly at signup and is read-mostly afterwards.
// The ID doubles as the authentication subject.
type Profile struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName *string   `json:"display_name"`
	Role        string    `gorm:"size:20;default:'user';not null" json:"role"`
	Password    string    `gorm:"not null" json:"-"` // bcrypt hash
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
