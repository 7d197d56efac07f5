// Package config loads the application configuration from environment
// variables. A .env file in the working directory is read first when present,
// which keeps local development simple; production sets real env variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config groups every setting the server needs. Each sub-struct covers one
// concern so components only receive the part they use.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Upload    UploadConfig
	Email     EmailConfig
	Embedding EmbeddingConfig
	WebPush   WebPushConfig
	App       AppConfig

	// EncryptionKey is a 64 char hex string (32 bytes). Empty disables
	// at-rest encryption of push subscription keys.
	EncryptionKey string
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds the SQLite file location.
type DatabaseConfig struct {
	Path string // e.g. ./data/circles.db
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret             string // keep secret
	AccessTokenExpiry  int    // minutes (default 15)
	RefreshTokenExpiry int    // days (default 7)
}

// UploadConfig holds image upload settings.
type UploadConfig struct {
	Dir     string
	MaxSize int64 // bytes (default 10MB)
}

// EmailConfig holds the Resend settings. Email is optional: when any field
// is empty the server runs without sending mail.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	AppURL       string // public frontend URL used in links
}

// Enabled reports whether all email settings are present.
func (c EmailConfig) Enabled() bool {
	return c.ResendAPIKey != "" && c.FromEmail != "" && c.AppURL != ""
}

// EmbeddingConfig holds the text embedding provider settings.
type EmbeddingConfig struct {
	APIKey   string // Google GenAI key; empty disables embeddings
	Model    string
	TaskType string

	// SuggestionThreshold is the cosine similarity a circle needs to its
	// root to be attached to the suggestion graph.
	SuggestionThreshold float64
}

// WebPushConfig holds the VAPID key pair used to sign push messages.
type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string // mailto: or https: contact
}

// Enabled reports whether a VAPID key pair is configured.
func (c WebPushConfig) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// AppConfig holds domain-wide defaults.
type AppConfig struct {
	TimeZone        string // activity times are interpreted in this zone
	DefaultLanguage string
}

// Load builds a Config from the environment. JWT_SECRET is the only
// required variable; everything else has a development default.
func Load() (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	refreshExpiry, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRY_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRY_DAYS: %w", err)
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "10485760"), 10, 64) // 10MB
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	threshold, err := strconv.ParseFloat(getEnv("SUGGESTION_THRESHOLD", "0.9"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SUGGESTION_THRESHOLD: %w", err)
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("SUGGESTION_THRESHOLD must be in (0, 1], got %v", threshold)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	timeZone := getEnv("APP_TIMEZONE", "Asia/Tokyo")
	if _, err := time.LoadLocation(timeZone); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/circles.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSize: maxSize,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			AppURL:       strings.TrimRight(getEnv("APP_URL", ""), "/"),
		},
		Embedding: EmbeddingConfig{
			APIKey:              getEnv("GENAI_API_KEY", ""),
			Model:               getEnv("GENAI_EMBEDDING_MODEL", "gemini-embedding-001"),
			TaskType:            getEnv("GENAI_TASK_TYPE", "SEMANTIC_SIMILARITY"),
			SuggestionThreshold: threshold,
		},
		WebPush: WebPushConfig{
			PublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
			PrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
			Subject:    getEnv("VAPID_SUBJECT", "mailto:admin@example.com"),
		},
		App: AppConfig{
			TimeZone:        timeZone,
			DefaultLanguage: getEnv("APP_LANGUAGE", "ja"),
		},
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
	}

	return cfg, nil
}

// Addr returns the listen address, e.g. "0.0.0.0:9090".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location returns the configured time zone. Load already validated it.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
