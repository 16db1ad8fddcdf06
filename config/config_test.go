package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("FOLIO_MONGO_URI", "mongodb://db:27017")
	t.Setenv("FOLIO_JWT_SECRET", "s3cret")

	data := []byte(`
logging:
  level: debug
mongo:
  uri: ${FOLIO_MONGO_URI}
auth:
  jwt_secret: ${FOLIO_JWT_SECRET}
  session_ttl: 2h
server:
  allowed_origins: ["https://example.dev"]
posts:
  memory_store: true
summarizer:
  requests_per_minute: 10
  requests_per_day: 250
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "folio", cfg.Mongo.Database)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "folio", cfg.Auth.JWTIssuer)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.dev"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10, cfg.CDN.MaxSizeMB)
	assert.Equal(t, 10, cfg.Posts.PageSize)
	assert.Equal(t, 50, cfg.Posts.AdminPageSize)
	assert.True(t, cfg.Posts.MemoryStore)
	assert.Equal(t, "folio-worker", cfg.EventBus.GroupID)
	assert.Equal(t, "gemini-2.5-flash", cfg.Summarizer.GeminiModel)
	assert.Equal(t, 10, cfg.Summarizer.RequestsPerMinute)
	assert.Equal(t, 250, cfg.Summarizer.RequestsPerDay)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("logging: [unterminated"))
	assert.Error(t, err)
}

func TestSetConfigAppliesDefaults(t *testing.T) {
	SetConfig(AppConfig{Posts: PostsConfig{PageSize: 5}})

	cfg := GetConfig()
	assert.Equal(t, 5, cfg.Posts.PageSize)
	assert.Equal(t, 100, cfg.Posts.MaxPageSize)
}
