package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemLog records board activity and audited writes.
type SystemLog struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Level          string         `gorm:"size:20;index" json:"level"` // info, warning, error
	Module         string         `gorm:"size:100;index" json:"module"`
	Action         string         `gorm:"size:200;index" json:"action"`
	Message        string         `gorm:"type:text" json:"message"`
	OrganizationID string         `gorm:"column:organization_id;size:191;index" json:"organization_id"`
	UserID         string         `gorm:"size:191;index" json:"user_id"` // identity-provider id
	IP             string         `gorm:"size:50" json:"ip"`
	UserAgent      string         `gorm:"size:500" json:"user_agent"`
	Extra          datatypes.JSON `json:"extra"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }
