package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SAML_ENTRY_SSO", "https://idp.example.com/sso")
	t.Setenv("SAML_IDP_PUBLIC_CERT", "certdata")
	t.Setenv("SAML_ISSUER", "https://admin.example.com")
	t.Setenv("SAML_CALLBACK_URL", "https://admin.example.com/api/saml/login/callback")
	t.Setenv("API_BASE_URL", "https://gateway.example.com")
	t.Setenv("API_TOKEN_URL", "https://gateway.example.com/token")
	t.Setenv("API_CLIENT_ID", "client")
	t.Setenv("API_CLIENT_SECRET", "secret")
}

func parseConfig(t *testing.T) AppConfig {
	t.Helper()
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()
	return cfg
}

func TestDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg := parseConfig(t)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/api", cfg.HTTP.BasePrefix)
	assert.False(t, cfg.IsDev)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, 96*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "session_id", cfg.Session.CookieName)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
}

func TestRequiredSAMLFields(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://gateway.example.com")
	t.Setenv("API_TOKEN_URL", "https://gateway.example.com/token")
	t.Setenv("API_CLIENT_ID", "client")
	t.Setenv("API_CLIENT_SECRET", "secret")

	var cfg AppConfig
	err := env.Parse(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENTRY_SSO")
}

func TestSessionBackendUnmarshal(t *testing.T) {
	tests := []struct {
		value   string
		want    SessionBackend
		wantErr bool
	}{
		{"memory", SessionBackendMemory, false},
		{"FILE", SessionBackendFile, false},
		{"Redis", SessionBackendRedis, false},
		{"postgres", "", true},
	}
	for _, tt := range tests {
		var b SessionBackend
		err := b.UnmarshalText([]byte(tt.value))
		if tt.wantErr {
			assert.Error(t, err, tt.value)
			continue
		}
		require.NoError(t, err, tt.value)
		assert.Equal(t, tt.want, b)
	}
}

func TestGroupsParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SAML_ADMIN_GROUPS", "CN=SG_Portal_Admin,CN=SG_Extra_Admin")
	t.Setenv("SAML_USER_GROUPS", "CN=SG_Portal_User")

	cfg := parseConfig(t)

	assert.Equal(t, []string{"CN=SG_Portal_Admin", "CN=SG_Extra_Admin"}, cfg.Groups.AdminGroups)
	assert.Equal(t, []string{"CN=SG_Portal_User"}, cfg.Groups.UserGroups)
	assert.Empty(t, cfg.Groups.DeveloperGroups)
}

func TestDevModeFromNodeEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("NODE_ENV", "development")

	cfg := parseConfig(t)

	assert.True(t, cfg.IsDev)
}

func TestSanitizeClampsValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_COMPRESSION_LEVEL", "42")
	t.Setenv("SESSION_TTL", "-1h")
	t.Setenv("API_PREFIX", "api/")

	cfg := parseConfig(t)

	assert.Equal(t, 9, cfg.HTTP.CompressionLevel)
	assert.Equal(t, 96*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "/api", cfg.HTTP.BasePrefix)
}

func TestSessionRedisBackendConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_URI", "redis-host:6380")
	t.Setenv("REDIS_PASSWORD", "pw")

	cfg := parseConfig(t)

	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, "redis-host:6380", cfg.Redis.URI)
	assert.Equal(t, "pw", cfg.Redis.Password)
}
