package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
)

// Rank returns the privilege level of a role. Higher means more privileged.
// Unknown roles rank below every valid role.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleDeveloper:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// Permission names a single grantable capability.
type Permission string

const (
	PermissionViewAdmin Permission = "canViewAdmin"
	PermissionEditAdmin Permission = "canEditAdmin"
)

// Permissions is the flat capability set attached to a principal.
// JSON field names are part of the client contract.
type Permissions struct {
	CanViewAdmin bool `json:"canViewAdmin"`
	CanEditAdmin bool `json:"canEditAdmin"`
}

// Has reports whether the named permission is granted.
func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermissionViewAdmin:
		return p.CanViewAdmin
	case PermissionEditAdmin:
		return p.CanEditAdmin
	default:
		return false
	}
}

// Covers reports whether p grants every permission required grants.
func (p Permissions) Covers(required Permissions) bool {
	return (!required.CanViewAdmin || p.CanViewAdmin) &&
		(!required.CanEditAdmin || p.CanEditAdmin)
}

// Union returns the permission set granting everything either set grants.
func (p Permissions) Union(o Permissions) Permissions {
	return Permissions{
		CanViewAdmin: p.CanViewAdmin || o.CanViewAdmin,
		CanEditAdmin: p.CanEditAdmin || o.CanEditAdmin,
	}
}

// Identity represents the authenticated subject returned by the IdP.
// Adapters map provider-specific assertion attributes into this shape.
type Identity struct {
	GivenName string
	Surname   string
	Username  string // stable login name (uid attribute)
	Groups    []string
	// NameID and SessionIndex reference the IdP-side session and are
	// required to build a single logout request later.
	NameID       string
	SessionIndex string
}

// DisplayName returns the subject's human-readable name.
func (i Identity) DisplayName() string {
	if i.GivenName == "" {
		return i.Surname
	}
	if i.Surname == "" {
		return i.GivenName
	}
	return i.GivenName + " " + i.Surname
}

// Principal is the resolved application user stored inside a session once
// login has completed. Permissions are resolved at login time and frozen
// for the session lifetime.
type Principal struct {
	Name        string      `json:"name"`
	GivenName   string      `json:"givenName"`
	Surname     string      `json:"surname"`
	Username    string      `json:"username"`
	Groups      []string    `json:"groups"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
}

// Session is the server-side record persisted for every visitor, logged in
// or not. ID is an opaque random identifier; the cookie carries nothing else.
//
// Mutations go through methods so the session middleware can tell whether a
// request changed anything and persist accordingly.
type Session struct {
	ID        string     `json:"id"`
	Principal *Principal `json:"principal,omitempty"`
	ReturnTo  string     `json:"returnTo,omitempty"`
	Messages  []string   `json:"messages,omitempty"`
	// NameID and SessionIndex mirror the values from the login assertion
	// so logout can reference the IdP session. Never exposed to clients.
	NameID       string    `json:"nameID,omitempty"`
	SessionIndex string    `json:"sessionIndex,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`

	dirty     bool
	destroyed bool
}

// IsAuthenticated reports whether a login has completed on this session.
func (s *Session) IsAuthenticated() bool { return s.Principal != nil }

// Login attaches a resolved principal and the IdP session reference.
func (s *Session) Login(p Principal, nameID, sessionIndex string) {
	s.Principal = &p
	s.NameID = nameID
	s.SessionIndex = sessionIndex
	s.dirty = true
}

// SetReturnTo records where the client should land after the next login.
func (s *Session) SetReturnTo(url string) {
	s.ReturnTo = url
	s.dirty = true
}

// TakeReturnTo returns and clears the stored post-login destination.
func (s *Session) TakeReturnTo() string {
	url := s.ReturnTo
	if url != "" {
		s.ReturnTo = ""
		s.dirty = true
	}
	return url
}

// PushMessage queues a message for a later redirect to surface.
func (s *Session) PushMessage(msg string) {
	s.Messages = append(s.Messages, msg)
	s.dirty = true
}

// TakeMessages returns and clears any queued messages.
func (s *Session) TakeMessages() []string {
	msgs := s.Messages
	if len(msgs) > 0 {
		s.Messages = nil
		s.dirty = true
	}
	return msgs
}

// Destroy marks the session for removal from the store. The record and its
// cookie are dropped when the request finishes.
func (s *Session) Destroy() {
	s.Principal = nil
	s.NameID = ""
	s.SessionIndex = ""
	s.Messages = nil
	s.destroyed = true
}

// Clean returns a copy with the change tracking flags cleared, as a freshly
// loaded session would be. Stores use it so a reloaded session does not
// inherit the dirty state it was saved with.
func (s *Session) Clean() Session {
	c := *s
	c.dirty = false
	c.destroyed = false
	return c
}

// Dirty reports whether any mutation happened since the session was loaded.
func (s *Session) Dirty() bool { return s.dirty }

// Destroyed reports whether Destroy was called.
func (s *Session) Destroyed() bool { return s.destroyed }
