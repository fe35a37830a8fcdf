package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ENV", "HOST", "ALLOWED_ORIGINS", "FRONTEND_URL", "FRONTEND_URL_2",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "STORAGE_BACKEND",
		"MODERATION_TIMEOUT", "GENERATION_TIMEOUT", "STORE_TIMEOUT", "RATE_LIMIT_MAX", "REDIS_URI"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.AllowedHost)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, StorageMongo, cfg.StorageBackend)
	assert.Equal(t, DefaultAIBaseURL, cfg.OpenAIBaseURL)
	assert.Equal(t, DefaultAIModel, cfg.OpenAIModel)
	assert.False(t, cfg.AIConfigured())
	assert.Equal(t, 10*time.Second, cfg.ModerationTimeout)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 25, cfg.RateLimitMaxRequests)
}

func TestLoad_Production(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("HOST", "https://api.mindsoothe.app:443/v1")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, ")
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	t.Setenv("OPENAI_BASE_URL", "https://api.openai.com/v1/")
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("STORE_TIMEOUT", "not-a-duration")
	t.Setenv("RATE_LIMIT_MAX", "-3")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "api.mindsoothe.app", cfg.AllowedHost)
	assert.Equal(t, []string{
		"https://app.example.com",
		"https://mindsoothe.app",
		"https://www.mindsoothe.app",
	}, cfg.AllowedOrigins)
	assert.True(t, cfg.AIConfigured())
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, StoragePostgres, cfg.StorageBackend)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 25, cfg.RateLimitMaxRequests)
}

func TestLoad_UnknownBackendFallsBackToMongo(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")
	assert.Equal(t, StorageMongo, Load().StorageBackend)
}
