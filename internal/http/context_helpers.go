package httpx

import (
	"context"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
)

// sessionKey is private so no other package can plant a session in a context.
type sessionKey struct{}

// SetSessionInContext attaches the session to a child context. A nil session
// leaves ctx untouched.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext returns the request's session, with ok reporting
// whether the session middleware ran for this request.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// GetSessionFromContext is the no-ok variant for handlers that run behind
// WithSession and can rely on the session being there.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return s
	}
	return nil
}
