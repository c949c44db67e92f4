package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Sprint struct {
	ID        uuid.UUID    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string       `gorm:"size:200;not null" json:"name"`
	StartDate time.Time    `gorm:"not null" json:"start_date"`
	EndDate   time.Time    `gorm:"not null" json:"end_date"`
	Status    SprintStatus `gorm:"size:20;not null;default:PLANNED;index" json:"status"`
	ProjectID uuid.UUID    `gorm:"type:char(36);not null;index" json:"project_id"`
	Project   *Project     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	Issues    []Issue      `gorm:"foreignKey:SprintID;constraint:OnDelete:SET NULL" json:"issues,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Sprint) TableName() string { return "sprints" }

func (s *Sprint) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SprintPlanned
	}
	return nil
}
