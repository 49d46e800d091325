package service

import (
	"context"
	"log/slog"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/relay"
)

// RedirectConfig holds the configured fallback redirect targets used when a
// request carries no usable ones of its own.
type RedirectConfig struct {
	// LoginSuccessURL is where a completed login lands by default.
	LoginSuccessURL string
	// LoginFailureURL is where a failed login lands by default.
	LoginFailureURL string
	// LogoutURL is where a completed logout lands by default.
	LogoutURL string
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider  ports.SSOProvider
	Roles     ports.RoleResolver
	Redirects RedirectConfig
	Logger    *slog.Logger
}

// AuthService orchestrates the SAML login and logout flows. It mutates the
// per-request session object; the session middleware persists it when the
// request finishes. Every flow step resolves to a redirect URL, so a failed
// login never leaves the browser hanging on an error page of ours.
type AuthService struct {
	provider  ports.SSOProvider
	roles     ports.RoleResolver
	redirects RedirectConfig
	logger    *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider:  opts.Provider,
		roles:     opts.Roles,
		redirects: opts.Redirects,
		logger:    logger,
	}
}

// BeginLogin builds the IdP redirect URL for a new login. The success
// target is taken from the explicit override first, then from the session's
// stored returnTo, then from configuration.
func (s *AuthService) BeginLogin(ctx context.Context, sess *domainauth.Session, successOverride, failureOverride string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	success := successOverride
	if !relay.ValidRedirectURL(success) {
		success = sess.TakeReturnTo()
	}
	if !relay.ValidRedirectURL(success) {
		success = s.redirects.LoginSuccessURL
	}
	failure := failureOverride
	if !relay.ValidRedirectURL(failure) {
		failure = s.redirects.LoginFailureURL
	}

	return s.provider.LoginURL(relay.Encode(success, failure))
}

// CompleteLogin consumes the SAMLResponse posted by the IdP and returns the
// URL the browser should be redirected to. On success the session gains a
// principal; on failure the failure target gains a failMessage parameter
// classifying what went wrong.
func (s *AuthService) CompleteLogin(ctx context.Context, sess *domainauth.Session, samlResponse, relayState string) string {
	st := relay.Resolve(relayState, relay.State{
		SuccessURL: s.redirects.LoginSuccessURL,
		FailureURL: s.redirects.LoginFailureURL,
	})

	identity, err := s.provider.Consume(ctx, samlResponse)
	if err != nil {
		code := domainauth.FailCodeFor(err)
		s.logger.Warn("login failed",
			slog.String("failCode", string(code)),
			slog.Any("error", err))
		sess.PushMessage(string(code))
		return relay.WithFailMessage(st.FailureURL, string(code))
	}

	role, ok := s.roles.ResolveRole(identity.Groups)
	perms := domainauth.Permissions{}
	if ok {
		perms = s.roles.ResolvePermissions(identity.Groups, false)
	} else {
		// Authenticated but in no mapped group: a valid user with no
		// administrative capabilities at all.
		role = domainauth.RoleUser
	}

	sess.Login(domainauth.Principal{
		Name:        identity.DisplayName(),
		GivenName:   identity.GivenName,
		Surname:     identity.Surname,
		Username:    identity.Username,
		Groups:      identity.Groups,
		Role:        role,
		Permissions: perms,
	}, identity.NameID, identity.SessionIndex)

	s.logger.Info("login completed",
		slog.String("username", identity.Username),
		slog.String("role", string(role)))

	return st.SuccessURL
}

// Metadata renders the SP metadata document.
func (s *AuthService) Metadata() ([]byte, error) {
	return s.provider.Metadata()
}

// BeginLogout destroys the local session and returns the URL to redirect
// to: the IdP single-logout endpoint when available, otherwise the
// post-logout landing page directly. Logging out without a session is not
// an error.
func (s *AuthService) BeginLogout(ctx context.Context, sess *domainauth.Session, successOverride string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	success := successOverride
	if !relay.ValidRedirectURL(success) {
		success = s.redirects.LogoutURL
	}

	nameID, sessionIndex := sess.NameID, sess.SessionIndex
	sess.Destroy()

	relayState := relay.Encode(success, success)
	idpURL, err := s.provider.LogoutURL(relayState, nameID, sessionIndex)
	if err != nil {
		// The local session is gone either way; land the user.
		s.logger.Warn("building IdP logout URL failed", slog.Any("error", err))
		return success, nil
	}
	if idpURL == "" {
		return success, nil
	}
	return idpURL, nil
}

// CompleteLogout handles the IdP response after single logout. The session
// is destroyed again for idempotence, the LogoutResponse is validated
// best-effort, and the browser is sent to the relayed target. Queued
// session messages divert the redirect to the failure target.
func (s *AuthService) CompleteLogout(ctx context.Context, sess *domainauth.Session, samlResponse, relayState string) string {
	// Destroy clears queued messages, so read them first.
	msgs := sess.TakeMessages()
	sess.Destroy()

	if err := s.provider.ConsumeLogout(ctx, samlResponse); err != nil {
		s.logger.Warn("logout response validation failed", slog.Any("error", err))
	}

	st := relay.Resolve(relayState, relay.State{
		SuccessURL: s.redirects.LogoutURL,
		FailureURL: s.redirects.LogoutURL,
	})

	if len(msgs) > 0 {
		return relay.WithFailMessage(st.FailureURL, msgs[0])
	}
	return st.SuccessURL
}
