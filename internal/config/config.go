package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	JWT      JWTConfig      `yaml:"jwt" json:"jwt"`
	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Board    BoardConfig    `yaml:"board" json:"board"`
}

type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port string `yaml:"port" json:"port"`
	Mode string `yaml:"mode" json:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn" json:"dsn"`
}

// JWTConfig holds the secret shared with the identity provider that signs session tokens.
type JWTConfig struct {
	Secret     string `yaml:"secret" json:"secret"`
	Issuer     string `yaml:"issuer" json:"issuer"`
	ExpireHour int    `yaml:"expire_hour" json:"expire_hour"`
}

// RedisConfig for optional async activity queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

type LogConfig struct {
	Level         string `yaml:"level" json:"level"`
	RetentionDays int    `yaml:"retention_days" json:"retention_days"`
}

type BoardConfig struct {
	HolidayCountry    string  `yaml:"holiday_country" json:"holiday_country"`         // US, GB, CN, NONE, ...
	SprintWatchCron   string  `yaml:"sprint_watch_cron" json:"sprint_watch_cron"`     // robfig/cron spec
	MutationRateLimit float64 `yaml:"mutation_rate_limit" json:"mutation_rate_limit"` // requests per second per IP
	MutationRateBurst int     `yaml:"mutation_rate_burst" json:"mutation_rate_burst"`
	OperatorOrg       string  `yaml:"operator_org" json:"operator_org"` // organization whose admins edit instance settings
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if isJSONPath(configPath) {
			std, err := hujson.Standardize(data)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(std, fileCfg); err != nil {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func isJSONPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".json" || ext == ".jsonc"
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "shopfloor.db?_foreign_keys=on",
		},
		JWT: JWTConfig{
			Secret:     "shopfloor-secret-key-change-in-production",
			ExpireHour: 24,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Log: LogConfig{
			Level:         "info",
			RetentionDays: 30,
		},
		Board: BoardConfig{
			HolidayCountry:    "NONE",
			SprintWatchCron:   "0 * * * *",
			MutationRateLimit: 20,
			MutationRateBurst: 40,
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		c.JWT.Issuer = issuer
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if country := os.Getenv("HOLIDAY_COUNTRY"); country != "" {
		c.Board.HolidayCountry = strings.ToUpper(country)
	}
	if org := os.Getenv("OPERATOR_ORG"); org != "" {
		c.Board.OperatorOrg = org
	}
	if spec := os.Getenv("SPRINT_WATCH_SCHEDULE"); spec != "" {
		c.Board.SprintWatchCron = spec
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

// Save writes the config atomically, as JSON or YAML depending on the extension.
func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isJSONPath(configPath) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return atomic.WriteFile(configPath, bytes.NewReader(data))
}
