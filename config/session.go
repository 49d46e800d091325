package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionBackend selects which store keeps session records.
type SessionBackend string

const (
	// SessionBackendMemory keeps sessions in process memory. Sessions are
	// lost on restart; suitable for development and single-instance runs.
	SessionBackendMemory SessionBackend = "memory"
	// SessionBackendFile persists sessions as JSON files on disk.
	SessionBackendFile SessionBackend = "file"
	// SessionBackendRedis keeps sessions in Redis, required when running
	// more than one replica.
	SessionBackendRedis SessionBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (s *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "memory", "file", "redis":
		*s = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: memory, file, redis)", v)
	}
}

// SessionConfig contains session store and cookie configuration.
type SessionConfig struct {
	// Backend selects the session store implementation.
	Backend SessionBackend `env:"BACKEND" envDefault:"memory"`

	// TTL is how long a session lives without activity.
	TTL time.Duration `env:"TTL" envDefault:"96h"`

	// CookieName is the name of the session cookie.
	CookieName string `env:"COOKIE_NAME" envDefault:"session_id"`

	// FileDir is where the file backend keeps its records.
	FileDir string `env:"FILE_DIR" envDefault:"./sessions"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.TTL <= 0 {
		s.TTL = 96 * time.Hour
	}
	if s.CookieName == "" {
		s.CookieName = "session_id"
	}
}
