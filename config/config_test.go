package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Asia/Tokyo", cfg.App.TimeZone)
	assert.Equal(t, "Asia/Tokyo", cfg.App.Location().String())
	assert.InDelta(t, 0.9, cfg.Embedding.SuggestionThreshold, 1e-9)
	assert.Equal(t, "gemini-embedding-001", cfg.Embedding.Model)
	assert.Equal(t, 15, cfg.JWT.AccessTokenExpiry)
}

func TestLoad_ParsesOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("APP_URL", "https://circles.example/")
	t.Setenv("SUGGESTION_THRESHOLD", "0.8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Addr())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "https://circles.example", cfg.Email.AppURL)
	assert.InDelta(t, 0.8, cfg.Embedding.SuggestionThreshold, 1e-9)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"port", "SERVER_PORT", "nope"},
		{"threshold range", "SUGGESTION_THRESHOLD", "1.5"},
		{"timezone", "APP_TIMEZONE", "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestEnabledFlags(t *testing.T) {
	assert.False(t, EmailConfig{ResendAPIKey: "re_x"}.Enabled())
	assert.True(t, EmailConfig{ResendAPIKey: "re_x", FromEmail: "a@b.c", AppURL: "https://x"}.Enabled())
	assert.False(t, WebPushConfig{PublicKey: "pub"}.Enabled())
	assert.True(t, WebPushConfig{PublicKey: "pub", PrivateKey: "priv"}.Enabled())
}
