package bootstrap

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sundsvallskommun/web-app-student-account-admin/config"
	redisstore "github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/redis"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/sessionfile"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/sessionmem"
)

func TestBuildSessionStoreMemory(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.Session.Backend = config.SessionBackendMemory
	cfg.Session.TTL = time.Hour

	c := &Components{}
	store, err := buildSessionStore(cfg, nil, c)
	require.NoError(t, err)
	assert.IsType(t, &sessionmem.Store{}, store)
	require.NoError(t, c.Close())
}

func TestBuildSessionStoreFile(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.Session.Backend = config.SessionBackendFile
	cfg.Session.TTL = time.Hour
	cfg.Session.FileDir = t.TempDir()

	c := &Components{}
	store, err := buildSessionStore(cfg, nil, c)
	require.NoError(t, err)
	assert.IsType(t, &sessionfile.Store{}, store)
}

func TestBuildSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.AppConfig{}
	cfg.Session.Backend = config.SessionBackendRedis
	cfg.Session.TTL = time.Hour
	cfg.Redis.URI = mr.Addr()

	c := &Components{}
	store, err := buildSessionStore(cfg, nil, c)
	require.NoError(t, err)
	assert.IsType(t, &redisstore.SessionStore{}, store)
	require.NoError(t, c.Close())
}

func TestSamlConfigFromDefaults(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.SAML.EntryPointSSO = "https://idp.example.com/sso"
	cfg.SAML.IdPCertificate = "cert"
	cfg.SAML.Issuer = "https://admin.example.com"
	cfg.SAML.CallbackURL = "https://admin.example.com/api/saml/login/callback"

	got := samlConfigFrom(cfg)

	// IdP issuer falls back to the SSO entry point.
	assert.Equal(t, "https://idp.example.com/sso", got.IdPIssuer)
	// No SP keypair means unsigned AuthnRequests.
	assert.False(t, got.SignRequests)

	cfg.SAML.Certificate = "spcert"
	cfg.SAML.PrivateKey = "spkey"
	assert.True(t, samlConfigFrom(cfg).SignRequests)
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "a", fallback("a", "b"))
	assert.Equal(t, "b", fallback("", "b"))
}
