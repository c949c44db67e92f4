package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the local projection of an identity-provider account.
type User struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ExternalID string    `gorm:"column:external_id;uniqueIndex;size:191;not null" json:"external_id"`
	Email      string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name       *string   `gorm:"size:200" json:"name"`
	AvatarURL  *string   `gorm:"column:avatar_url;size:500" json:"avatar_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
