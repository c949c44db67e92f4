package services

import (
	"errors"
	"strconv"

	"github.com/shopfloor/board/backend/internal/models"
	"gorm.io/gorm"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where(&models.SystemConfig{Key: key}).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) GetInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(s.GetWithDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func (s *SystemConfigService) GetBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(s.GetWithDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where(&models.SystemConfig{Key: key}).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where(&models.SystemConfig{Group: group}).Order("config_key").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// BoardSettings are the instance-wide knobs stored in system_configs.
type BoardSettings struct {
	SprintWatchEnabled bool `json:"sprint_watch_enabled"`
	LogRetentionDays   int  `json:"log_retention_days"`
}

func (s *SystemConfigService) GetBoardSettings() *BoardSettings {
	return &BoardSettings{
		SprintWatchEnabled: s.GetBool("sprint_watch_enabled", true),
		LogRetentionDays:   s.GetInt("log_retention_days", 30),
	}
}

type UpdateBoardSettingsRequest struct {
	SprintWatchEnabled *bool `json:"sprint_watch_enabled"`
	LogRetentionDays   *int  `json:"log_retention_days" binding:"omitempty,min=0,max=3650"`
}

func (s *SystemConfigService) UpdateBoardSettings(req *UpdateBoardSettingsRequest) error {
	if req.SprintWatchEnabled != nil {
		if err := s.Set("sprint_watch_enabled", strconv.FormatBool(*req.SprintWatchEnabled)); err != nil {
			return err
		}
	}
	if req.LogRetentionDays != nil {
		if err := s.Set("log_retention_days", strconv.Itoa(*req.LogRetentionDays)); err != nil {
			return err
		}
	}
	return nil
}
