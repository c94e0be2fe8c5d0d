package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "fitcoach-test")
	t.Setenv("ENCRYPTION_KEY", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.False(t, cfg.IsRelease())
	assert.Equal(t, 24*time.Hour, cfg.AICacheTTL)
	assert.Equal(t, "fitcoach.events", cfg.EventsQueue)
	assert.Equal(t, 4999.0, cfg.PremiumPriceARS)
	assert.False(t, cfg.AIEnabled())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("AI_CACHE_TTL", "90m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsRelease())
	assert.Equal(t, 90*time.Minute, cfg.AICacheTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.AIEnabled())
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("CLIENT_URL: https://app.example.com\nREDIS_ADDR: localhost:6379\nPORT: \"7000\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com", cfg.ClientURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "9999", cfg.Port, "environment wins over the file")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing project", Config{EncryptionKey: "k"}, "FIREBASE_PROJECT_ID"},
		{"missing key", Config{FirebaseProjectID: "p"}, "ENCRYPTION_KEY"},
		{"stripe without webhook", Config{FirebaseProjectID: "p", EncryptionKey: "k", StripeSecretKey: "sk"}, "STRIPE_WEBHOOK_SECRET"},
		{"ok with ADC", Config{FirebaseProjectID: "p", EncryptionKey: "k"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
