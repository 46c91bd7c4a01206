// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache / streams (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Auth
	JWTSecret       string        `env:"JWT_SECRET,required"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"lexicognize"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"` // 7 days
	ResetTokenTTL   time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
	VerifyTokenTTL  time.Duration `env:"VERIFY_TOKEN_TTL" envDefault:"24h"`

	// Storage layout
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	// Training
	TrainerCommand     string        `env:"TRAINER_COMMAND" envDefault:"python3 -m lexicognize_trainer"`
	TrainingWorkers    int           `env:"TRAINING_WORKERS" envDefault:"2"`
	TrainingPerUserCap int           `env:"TRAINING_PER_USER_CAP" envDefault:"3"`
	TrainingPoll       time.Duration `env:"TRAINING_POLL_INTERVAL" envDefault:"3s"`
	TrainingTimeout    time.Duration `env:"TRAINING_TIMEOUT" envDefault:"6h"`

	// Model server (hosts exported checkpoints for inference/translation)
	ModelServerURL     string        `env:"MODEL_SERVER_URL" envDefault:"http://localhost:8501"`
	ModelServerTimeout time.Duration `env:"MODEL_SERVER_TIMEOUT" envDefault:"120s"`

	// Artifact archive (S3-compatible, optional)
	ArchiveEnabled bool   `env:"ARCHIVE_ENABLED" envDefault:"false"`
	ArchiveBucket  string `env:"ARCHIVE_BUCKET" envDefault:""`
	ArchivePrefix  string `env:"ARCHIVE_PREFIX" envDefault:"models"`

	// Email notifications (optional)
	SMTPHost string `env:"SMTP_HOST" envDefault:""`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER" envDefault:""`
	SMTPPass string `env:"SMTP_PASSWORD" envDefault:""`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"noreply@lexicognize.local"`

	// Rate limiting
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitIPRPS   int  `env:"RATE_LIMIT_IP_RPS" envDefault:"20"`
	RateLimitIPBurst int  `env:"RATE_LIMIT_IP_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 50MB; dataset and PDF uploads)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"52428800"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UploadsDir is where dataset files live.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// ModelsDir is where exported model artifacts live.
func (c *Config) ModelsDir() string {
	return filepath.Join(c.DataDir, "models")
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or inconsistent.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TrainingWorkers < 1 {
		return errors.New("TRAINING_WORKERS must be at least 1")
	}
	if c.TrainingPerUserCap < 1 {
		return errors.New("TRAINING_PER_USER_CAP must be at least 1")
	}
	if c.ArchiveEnabled && c.ArchiveBucket == "" {
		return errors.New("ARCHIVE_BUCKET is required when ARCHIVE_ENABLED is set")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes in production")
	}
	return nil
}
