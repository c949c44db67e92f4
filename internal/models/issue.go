package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Issue is a card on the board. Order is only meaningful within the
// (project_id, status) partition.
type Issue struct {
	ID          uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string        `gorm:"size:500;not null" json:"title"`
	Description *string       `gorm:"type:text" json:"description"`
	Status      IssueStatus   `gorm:"size:20;not null;index:status_order_idx,priority:1" json:"status"`
	Order       int           `gorm:"column:order;not null;default:0;index:status_order_idx,priority:2" json:"order"`
	Priority    IssuePriority `gorm:"size:20;not null" json:"priority"`
	AssigneeID  *uuid.UUID    `gorm:"type:char(36);index" json:"assignee_id"`
	Assignee    *User         `gorm:"foreignKey:AssigneeID" json:"assignee"`
	ReporterID  uuid.UUID     `gorm:"type:char(36);not null;index" json:"reporter_id"`
	Reporter    *User         `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	ProjectID   uuid.UUID     `gorm:"type:char(36);not null;index" json:"project_id"`
	Project     *Project      `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	SprintID    *uuid.UUID    `gorm:"type:char(36);index" json:"sprint_id"`
	Sprint      *Sprint       `gorm:"foreignKey:SprintID;constraint:OnDelete:SET NULL" json:"sprint,omitempty"`
	Track       Track         `gorm:"type:text" json:"track"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Issue) TableName() string { return "issues" }

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Track == nil {
		i.Track = Track{}
	}
	return nil
}

// IssuePlacement is one element of a reconciliation batch. An omitted (or
// null) track leaves the stored track untouched; [] clears it.
type IssuePlacement struct {
	ID     uuid.UUID   `json:"id" binding:"required"`
	Status IssueStatus `json:"status" binding:"required"`
	Order  int         `json:"order" binding:"min=0"`
	Track  Track       `json:"track"`
}
