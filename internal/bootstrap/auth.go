package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sundsvallskommun/web-app-student-account-admin/config"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/authroles"
	redisstore "github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/redis"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/saml"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/sessionfile"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/sessionmem"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/studentapi"
	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/service"
)

// Components holds everything the HTTP layer needs, wired from config.
type Components struct {
	Auth      *service.AuthService
	Directory ports.StudentDirectory
	Sessions  ports.SessionStore

	// closers run in reverse order on Close.
	closers []func() error
}

// Close releases resources held by the components.
func (c *Components) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build wires the SAML provider, role resolver, session store, and upstream
// client from configuration. ctx bounds the lifetime of background work such
// as OAuth2 token refreshes.
func Build(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Components, error) {
	c := &Components{}

	provider, err := saml.New(samlConfigFrom(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("build SAML provider: %w", err)
	}

	resolver := authroles.NewStaticResolver(map[domainauth.Role][]string{
		domainauth.RoleAdmin:     cfg.Groups.AdminGroups,
		domainauth.RoleDeveloper: cfg.Groups.DeveloperGroups,
		domainauth.RoleUser:      cfg.Groups.UserGroups,
	})

	sessions, err := buildSessionStore(cfg, logger, c)
	if err != nil {
		return nil, err
	}
	c.Sessions = sessions

	directory, err := studentapi.New(ctx, studentapi.Config{
		BaseURL:      cfg.API.BaseURL,
		TokenURL:     cfg.API.TokenURL,
		ClientID:     cfg.API.ClientID,
		ClientSecret: cfg.API.ClientSecret,
		Timeout:      cfg.API.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build student API client: %w", err)
	}
	c.Directory = directory

	c.Auth = service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Roles:    resolver,
		Redirects: service.RedirectConfig{
			LoginSuccessURL: fallback(cfg.SAML.SuccessRedirect, cfg.HTTP.BaseURL),
			LoginFailureURL: fallback(cfg.SAML.FailureRedirect, cfg.HTTP.BaseURL),
			LogoutURL:       fallback(cfg.SAML.LogoutRedirect, cfg.HTTP.BaseURL),
		},
		Logger: logger,
	})

	return c, nil
}

func samlConfigFrom(cfg *config.AppConfig) saml.Config {
	return saml.Config{
		EntryPointURL:     cfg.SAML.EntryPointSSO,
		LogoutURL:         cfg.SAML.EntryPointSLO,
		IdPIssuer:         fallback(cfg.SAML.IdPIssuer, cfg.SAML.EntryPointSSO),
		IdPCertificate:    cfg.SAML.IdPCertificate,
		Issuer:            cfg.SAML.Issuer,
		CallbackURL:       cfg.SAML.CallbackURL,
		LogoutCallbackURL: cfg.SAML.LogoutCallbackURL,
		Certificate:       cfg.SAML.Certificate,
		PrivateKey:        cfg.SAML.PrivateKey,
		AudienceURI:       cfg.SAML.AudienceURI,
		NameIDFormat:      cfg.SAML.NameIDFormat,
		SignRequests:      cfg.SAML.Certificate != "" && cfg.SAML.PrivateKey != "",
	}
}

func buildSessionStore(cfg *config.AppConfig, logger *slog.Logger, c *Components) (ports.SessionStore, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		client, err := ConnectRedis(cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		return redisstore.NewSessionStore(client, cfg.Session.TTL), nil

	case config.SessionBackendFile:
		store, err := sessionfile.New(cfg.Session.FileDir, cfg.Session.TTL)
		if err != nil {
			return nil, fmt.Errorf("open session directory: %w", err)
		}
		return store, nil

	default:
		store := sessionmem.New(cfg.Session.TTL)
		c.closers = append(c.closers, func() error {
			store.Stop()
			return nil
		})
		return store, nil
	}
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}
