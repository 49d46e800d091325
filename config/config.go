package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - http.go: HTTP server configuration
//   - saml.go: SAML service provider and role group configuration
//   - session.go: Session store configuration
//   - api.go: Upstream student-records API configuration
//   - redis.go: Redis connection configuration
type AppConfig struct {
	// IsDev controls development mode behavior (relaxed cookies, etc.)
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// HTTP server configuration
	HTTP HTTPConfig

	// SAML service provider configuration
	SAML SAMLConfig `envPrefix:"SAML_"`

	// Role group mapping configuration
	Groups RoleGroupsConfig `envPrefix:"SAML_"`

	// Session store configuration
	Session SessionConfig `envPrefix:"SESSION_"`

	// Upstream student-records API configuration
	API StudentAPIConfig `envPrefix:"API_"`

	// Redis configuration (used when SESSION_BACKEND=redis)
	Redis RedisConfig `envPrefix:"REDIS_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Session.Sanitize()
	c.API.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
