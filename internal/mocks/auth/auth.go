package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SSOProvider      = (*MockSSOProvider)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
	_ ports.StudentDirectory = (*MockStudentDirectory)(nil)
)

// MockSSOProvider simulates a SAML IdP for tests. Each method can be
// overridden with a func field; the defaults behave like a healthy IdP
// returning DefaultIdentity.
type MockSSOProvider struct {
	LoginURLFunc      func(relayState string) (string, error)
	ConsumeFunc       func(ctx context.Context, samlResponse string) (domainauth.Identity, error)
	MetadataFunc      func() ([]byte, error)
	LogoutURLFunc     func(relayState, nameID, sessionIndex string) (string, error)
	ConsumeLogoutFunc func(ctx context.Context, samlResponse string) error

	DefaultIdentity domainauth.Identity

	// Last relay state seen by LoginURL or LogoutURL, for assertions.
	LastRelayState string
}

// NewMockSSOProvider creates a MockSSOProvider with sensible defaults.
func NewMockSSOProvider() *MockSSOProvider {
	return &MockSSOProvider{
		DefaultIdentity: domainauth.Identity{
			GivenName:    "Mock",
			Surname:      "User",
			Username:     "mockuser",
			Groups:       []string{"CN=SG_Portal_User"},
			NameID:       "mock-name-id",
			SessionIndex: "mock-session-index",
		},
	}
}

func (m *MockSSOProvider) LoginURL(relayState string) (string, error) {
	m.LastRelayState = relayState
	if m.LoginURLFunc != nil {
		return m.LoginURLFunc(relayState)
	}
	return "https://mock-idp/sso?RelayState=" + url.QueryEscape(relayState), nil
}

func (m *MockSSOProvider) Consume(ctx context.Context, samlResponse string) (domainauth.Identity, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, samlResponse)
	}
	return m.DefaultIdentity, nil
}

func (m *MockSSOProvider) Metadata() ([]byte, error) {
	if m.MetadataFunc != nil {
		return m.MetadataFunc()
	}
	return []byte(`<?xml version="1.0" encoding="UTF-8"?><EntityDescriptor/>`), nil
}

func (m *MockSSOProvider) LogoutURL(relayState, nameID, sessionIndex string) (string, error) {
	m.LastRelayState = relayState
	if m.LogoutURLFunc != nil {
		return m.LogoutURLFunc(relayState, nameID, sessionIndex)
	}
	if nameID == "" {
		return "", nil
	}
	return "https://mock-idp/slo?RelayState=" + url.QueryEscape(relayState), nil
}

func (m *MockSSOProvider) ConsumeLogout(ctx context.Context, samlResponse string) error {
	if m.ConsumeLogoutFunc != nil {
		return m.ConsumeLogoutFunc(ctx, samlResponse)
	}
	return nil
}

// MemorySessionStore is an in-memory session store for unit tests. It never
// expires records; TTL behavior is covered by the real adapters.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	// SaveErr, when set, is returned by Save to simulate store outages.
	SaveErr error
	// GetErr, when set, is returned by Get.
	GetErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess.Clean()
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if m.GetErr != nil {
		return domainauth.Session{}, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) Touch(_ context.Context, _ string) error { return nil }

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MockStudentDirectory scripts upstream responses per method. Unset methods
// return an empty JSON array.
type MockStudentDirectory struct {
	SchoolsFunc               func(ctx context.Context, loginName string) (json.RawMessage, error)
	ClassesFunc               func(ctx context.Context, schoolID, loginName string) (json.RawMessage, error)
	ClassPupilsFunc           func(ctx context.Context, schoolClassID, loginName string) (json.RawMessage, error)
	SearchPupilsFunc          func(ctx context.Context, loginName string, params url.Values) (json.RawMessage, error)
	GeneratePupilPasswordFunc func(ctx context.Context, loginName string) (json.RawMessage, error)
	UpdatePupilFunc           func(ctx context.Context, pupilLoginName, loginName string, change ports.PupilChange) (json.RawMessage, error)
	PersonImageFunc           func(ctx context.Context, personID string, width int) ([]byte, error)
}

func (m *MockStudentDirectory) Schools(ctx context.Context, loginName string) (json.RawMessage, error) {
	if m.SchoolsFunc != nil {
		return m.SchoolsFunc(ctx, loginName)
	}
	return json.RawMessage(`[]`), nil
}

func (m *MockStudentDirectory) Classes(ctx context.Context, schoolID, loginName string) (json.RawMessage, error) {
	if m.ClassesFunc != nil {
		return m.ClassesFunc(ctx, schoolID, loginName)
	}
	return json.RawMessage(`[]`), nil
}

func (m *MockStudentDirectory) ClassPupils(ctx context.Context, schoolClassID, loginName string) (json.RawMessage, error) {
	if m.ClassPupilsFunc != nil {
		return m.ClassPupilsFunc(ctx, schoolClassID, loginName)
	}
	return json.RawMessage(`[]`), nil
}

func (m *MockStudentDirectory) SearchPupils(ctx context.Context, loginName string, params url.Values) (json.RawMessage, error) {
	if m.SearchPupilsFunc != nil {
		return m.SearchPupilsFunc(ctx, loginName, params)
	}
	return json.RawMessage(`[]`), nil
}

func (m *MockStudentDirectory) GeneratePupilPassword(ctx context.Context, loginName string) (json.RawMessage, error) {
	if m.GeneratePupilPasswordFunc != nil {
		return m.GeneratePupilPasswordFunc(ctx, loginName)
	}
	return json.RawMessage(`{}`), nil
}

func (m *MockStudentDirectory) UpdatePupil(ctx context.Context, pupilLoginName, loginName string, change ports.PupilChange) (json.RawMessage, error) {
	if m.UpdatePupilFunc != nil {
		return m.UpdatePupilFunc(ctx, pupilLoginName, loginName, change)
	}
	return json.RawMessage(`{}`), nil
}

func (m *MockStudentDirectory) PersonImage(ctx context.Context, personID string, width int) ([]byte, error) {
	if m.PersonImageFunc != nil {
		return m.PersonImageFunc(ctx, personID, width)
	}
	return []byte{0xff, 0xd8}, nil
}
