package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
)

// SSOProvider drives the SAML flow against the identity provider.
type SSOProvider interface {
	// LoginURL builds the IdP redirect URL for an authentication request,
	// carrying the opaque relay state through the round trip.
	LoginURL(relayState string) (string, error)

	// Consume validates a base64-encoded SAMLResponse and extracts the
	// authenticated identity. Failures wrap the domain sentinel errors so
	// callers can classify them.
	Consume(ctx context.Context, samlResponse string) (domainauth.Identity, error)

	// Metadata renders the service provider metadata document as XML.
	Metadata() ([]byte, error)

	// LogoutURL builds the IdP single-logout redirect URL for the session
	// identified by nameID and sessionIndex. Returns an empty URL when the
	// IdP has no single-logout endpoint configured.
	LogoutURL(relayState, nameID, sessionIndex string) (string, error)

	// ConsumeLogout validates the LogoutResponse posted back by the IdP.
	ConsumeLogout(ctx context.Context, samlResponse string) error
}

// SessionStore persists and retrieves user sessions. Implementations own the
// expiry clock: an expired record behaves exactly like a missing one, and
// Save replaces any existing record under the same ID atomically.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
	// Touch extends the TTL of an existing record without rewriting it.
	// Touching a missing or expired record is not an error.
	Touch(ctx context.Context, id string) error
}

// ErrSessionNotFound is returned by Get when no live record exists.
var ErrSessionNotFound error = sessionNotFoundError{}

type sessionNotFoundError struct{}

func (sessionNotFoundError) Error() string { return "session not found" }

// RoleResolver maps IdP group memberships to application roles and
// permissions.
type RoleResolver interface {
	// ResolveRole returns the highest-privilege role any group maps to.
	// ok is false when no group is recognized.
	ResolveRole(groups []string) (role domainauth.Role, ok bool)

	// ResolvePermissions unions the permission sets of all recognized
	// groups. With internalNames set, the inputs are treated as role names
	// rather than IdP group names.
	ResolvePermissions(groups []string, internalNames bool) domainauth.Permissions
}
