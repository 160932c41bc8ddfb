package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App       AppConfig
	Paths     PathsConfig
	Database  DatabaseConfig
	Valkey    ValkeyConfig
	Telegram  TelegramConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Version     string
	Port        string
	Debug       bool
	Environment string
	BaseUrl     string
}

type PathsConfig struct {
	BaseDir string
	Media   string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB name for Postgres
}

type ValkeyConfig struct {
	Enabled   bool
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

type TelegramConfig struct {
	BotToken      string
	APIBaseUrl    string
	WebhookUrl    string
	WebhookSecret string
	MaxPhotoSize  int64
}

type RateLimitConfig struct {
	MaxRequests  int
	Window       time.Duration
	CleanupAfter time.Duration
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	cfg := &Config{
		App: AppConfig{
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Port:        getEnv("APP_PORT", "3000"),
			Debug:       getEnvBool("APP_DEBUG", false),
			Environment: getEnv("APP_ENV", "production"),
			BaseUrl:     getEnv("APP_BASE_URL", "http://localhost:3000"),
		},
		Paths: PathsConfig{
			BaseDir: baseDir,
			Media:   getEnv("APP_MEDIA_DIR", filepath.Join(baseDir, "media")),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "sharebite"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", filepath.Join(baseDir, "sharebite.db")),
		},
		Valkey: ValkeyConfig{
			Enabled:   getEnvBool("VALKEY_ENABLED", false),
			Address:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
			Password:  getEnv("VALKEY_PASSWORD", ""),
			DB:        getEnvInt("VALKEY_DB", 0),
			KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "sharebite"),
		},
		Telegram: TelegramConfig{
			BotToken:      getEnv("BOT_TOKEN", ""),
			APIBaseUrl:    getEnv("BOT_API_BASE_URL", "https://api.telegram.org"),
			WebhookUrl:    getEnv("BOT_WEBHOOK_URL", ""),
			WebhookSecret: getEnv("BOT_WEBHOOK_SECRET", ""),
			MaxPhotoSize:  getEnvInt64("BOT_MAX_PHOTO_SIZE", 20*1024*1024),
		},
		RateLimit: RateLimitConfig{
			MaxRequests:  getEnvInt("RATE_LIMIT_MAX_REQUESTS", 30),
			Window:       time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MS", 60000)) * time.Millisecond,
			CleanupAfter: time.Duration(getEnvInt("RATE_LIMIT_CLEANUP_AFTER_MS", 300000)) * time.Millisecond,
		},
	}

	if err := os.MkdirAll(cfg.Paths.Media, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory %s: %w", cfg.Paths.Media, err)
	}

	Global = cfg
	return cfg, nil
}
