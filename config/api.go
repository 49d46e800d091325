package config

import "time"

// StudentAPIConfig contains the connection settings for the upstream
// student-records API gateway. Authentication is OAuth2 client credentials.
type StudentAPIConfig struct {
	// BaseURL is the gateway root, without trailing slash.
	BaseURL string `env:"BASE_URL,required"`

	// TokenURL is the OAuth2 token endpoint.
	TokenURL string `env:"TOKEN_URL,required"`

	ClientID     string `env:"CLIENT_ID,required"`
	ClientSecret string `env:"CLIENT_SECRET,required"`

	// Timeout bounds each upstream request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// Sanitize applies guardrails to API configuration values.
func (a *StudentAPIConfig) Sanitize() {
	if a.Timeout <= 0 {
		a.Timeout = 15 * time.Second
	}
}
