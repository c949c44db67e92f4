package services

import (
	"encoding/json"
	"time"

	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var globalDB *gorm.DB

func InitSystemLogger(db *gorm.DB) {
	globalDB = db
}

// LogScope identifies who did something, and from where.
type LogScope struct {
	OrganizationID string
	UserID         string
	IP             string
	UserAgent      string
}

// ScopeOf builds a log scope from a session, without request details.
func ScopeOf(s Session) LogScope {
	return LogScope{OrganizationID: s.OrganizationID, UserID: s.UserID}
}

func LogInfo(module, action, message string, scope LogScope, extra interface{}) {
	writeLog("info", module, action, message, scope, extra)
}

func LogWarning(module, action, message string, scope LogScope, extra interface{}) {
	writeLog("warning", module, action, message, scope, extra)
}

func LogError(module, action, message string, scope LogScope, extra interface{}) {
	writeLog("error", module, action, message, scope, extra)
}

// writeLog must not be called while a transaction holds the connection;
// sqlite runs with a single connection.
func writeLog(level, module, action, message string, scope LogScope, extra interface{}) {
	if globalDB == nil {
		return
	}

	entry := &models.SystemLog{
		Level:          level,
		Module:         module,
		Action:         action,
		Message:        message,
		OrganizationID: scope.OrganizationID,
		UserID:         scope.UserID,
		IP:             scope.IP,
		UserAgent:      scope.UserAgent,
		CreatedAt:      time.Now(),
	}
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}
	if err := globalDB.Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", module).Str("action", action).Msg("failed to write system log")
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

// List returns the activity of the session's organization, newest first.
func (s *SystemLogService) List(session Session, req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.SystemLog
	var total int64

	query := s.db.Model(&models.SystemLog{}).Where("organization_id = ?", session.OrganizationID)

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// CleanupOldLogs deletes logs older than the specified number of days
// Returns the number of deleted records
func (s *SystemLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// GetRetentionDays gets the log retention days from system config
func (s *SystemLogService) GetRetentionDays() int {
	return NewSystemConfigService(s.db).GetInt("log_retention_days", 30)
}

// RunCleanup applies the configured retention. Scheduled daily by the job scheduler.
func (s *SystemLogService) RunCleanup() {
	retentionDays := s.GetRetentionDays()
	if retentionDays <= 0 {
		logger.Info().Msg("[SystemLog] log cleanup disabled (retention_days <= 0)")
		return
	}

	deleted, err := s.CleanupOldLogs(retentionDays)
	if err != nil {
		logger.Error().Err(err).Msg("[SystemLog] failed to clean up old logs")
		return
	}

	if deleted > 0 {
		logger.Infof("[SystemLog] cleaned up %d logs older than %d days", deleted, retentionDays)
	}
}
