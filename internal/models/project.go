package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project belongs to an organization of the identity provider.
// (organization_id, key) is unique.
type Project struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name           string    `gorm:"size:200;not null" json:"name"`
	Key            string    `gorm:"size:20;not null;uniqueIndex:idx_project_org_key,priority:2" json:"key"`
	Description    *string   `gorm:"type:text" json:"description"`
	OrganizationID string    `gorm:"column:organization_id;size:191;not null;uniqueIndex:idx_project_org_key,priority:1" json:"organization_id"`
	Sprints        []Sprint  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"sprints,omitempty"`
	Issues         []Issue   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"issues,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
