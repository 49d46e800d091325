package httpx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/adapters/authroles"
	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	mocks "github.com/Sundsvallskommun/web-app-student-account-admin/internal/mocks/auth"
)

func testSessionConfig(store *mocks.MemorySessionStore) SessionConfig {
	return SessionConfig{
		Store:      store,
		CookieName: "session_id",
		TTL:        time.Hour,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func sessionCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestWithSessionFreshUntouchedNotPersisted(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	h := WithSession(testSessionConfig(store))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetUserSessionFromContext(r.Context())
		require.True(t, ok)
		assert.NotEmpty(t, sess.ID)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, 0, store.Len())
	assert.Nil(t, sessionCookie(t, resp, "session_id"))
}

func TestWithSessionDirtySavedAndCookieIssued(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	var sessID string
	h := WithSession(testSessionConfig(store))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSessionFromContext(r.Context())
		sess.SetReturnTo("https://portal.example.com/after")
		sessID = sess.ID
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })

	require.Equal(t, 1, store.Len())
	saved, err := store.Get(context.Background(), sessID)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com/after", saved.ReturnTo)

	c := sessionCookie(t, resp, "session_id")
	require.NotNil(t, c)
	assert.Equal(t, sessID, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, int(time.Hour.Seconds()), c.MaxAge)
	assert.False(t, c.Secure) // plain http request
}

func TestWithSessionLoadsExistingSession(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	seed := domainauth.Session{ID: "existing", CreatedAt: time.Now().UTC()}
	seed.Login(domainauth.Principal{Username: "ansv"}, "name-id", "idx")
	require.NoError(t, store.Save(context.Background(), seed))

	h := WithSession(testSessionConfig(store))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSessionFromContext(r.Context())
		require.True(t, sess.IsAuthenticated())
		assert.Equal(t, "ansv", sess.Principal.Username)
		assert.False(t, sess.Dirty())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "existing"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })

	// Untouched but loaded: cookie expiry rolls forward.
	c := sessionCookie(t, resp, "session_id")
	require.NotNil(t, c)
	assert.Equal(t, "existing", c.Value)
}

func TestWithSessionDestroyDeletesAndClearsCookie(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	seed := domainauth.Session{ID: "doomed", CreatedAt: time.Now().UTC()}
	seed.Login(domainauth.Principal{Username: "ansv"}, "name-id", "idx")
	require.NoError(t, store.Save(context.Background(), seed))

	h := WithSession(testSessionConfig(store))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetSessionFromContext(r.Context()).Destroy()
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "doomed"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, 0, store.Len())
	c := sessionCookie(t, resp, "session_id")
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestWithSessionUnknownCookieGetsFreshSession(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	h := WithSession(testSessionConfig(store))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSessionFromContext(r.Context())
		assert.NotEqual(t, "stale", sess.ID)
		assert.False(t, sess.IsAuthenticated())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	_ = rec.Result().Body.Close()
}

func TestWithSessionSecureCookieBehindProxy(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	h := WithSession(testSessionConfig(store))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetSessionFromContext(r.Context()).PushMessage("hello")
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	c := sessionCookie(t, resp, "session_id")
	require.NotNil(t, c)
	assert.True(t, c.Secure)
}

func TestWithSessionForcedSecureCookies(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	cfg := testSessionConfig(store)
	cfg.SecureCookies = true
	h := WithSession(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetSessionFromContext(r.Context()).PushMessage("hello")
		w.WriteHeader(http.StatusNoContent)
	}))

	// Plain http request without any forwarded scheme.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	c := sessionCookie(t, resp, "session_id")
	require.NotNil(t, c)
	assert.True(t, c.Secure)
}

func authedContext(username string, perms domainauth.Permissions) context.Context {
	sess := &domainauth.Session{ID: "s"}
	sess.Login(domainauth.Principal{
		Username:    username,
		Groups:      []string{"cn=sg_portal_admin"},
		Permissions: perms,
	}, "name-id", "idx")
	return SetSessionInContext(context.Background(), sess)
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("no session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"authentication_required"}`, rec.Body.String())
	})

	t.Run("anonymous session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(SetSessionInContext(req.Context(), &domainauth.Session{ID: "s"}))
		rec := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(authedContext("ansv", domainauth.Permissions{}))
		rec := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequirePermissions(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	var logBuf bytes.Buffer
	mw := RequirePermissions(slog.New(slog.NewTextHandler(&logBuf, nil)), domainauth.PermissionEditAdmin)

	t.Run("missing permission is rejected and logged", func(t *testing.T) {
		logBuf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/pupil/pupil1", nil)
		req = req.WithContext(authedContext("ansv", domainauth.Permissions{CanViewAdmin: true}))
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"insufficient_permissions"}`, rec.Body.String())

		logged := logBuf.String()
		assert.Contains(t, logged, "missing permissions")
		assert.Contains(t, logged, "username=ansv")
		assert.Contains(t, logged, "path=/pupil/pupil1")
		assert.Contains(t, logged, "permission=canEditAdmin")
	})

	t.Run("granted", func(t *testing.T) {
		logBuf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(authedContext("ansv", domainauth.Permissions{CanViewAdmin: true, CanEditAdmin: true}))
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, logBuf.String())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireGroups(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	resolver := authroles.NewStaticResolver(map[domainauth.Role][]string{
		domainauth.RoleAdmin:     {"CN=SG_Portal_Admin"},
		domainauth.RoleDeveloper: {"CN=SG_Portal_Dev"},
		domainauth.RoleUser:      {"CN=SG_Portal_User"},
	})
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	t.Run("permissions cover the required level", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(authedContext("ansv", domainauth.Permissions{CanViewAdmin: true, CanEditAdmin: true}))
		rec := httptest.NewRecorder()
		RequireGroups(logger, resolver, "developer")(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("permissions fall short of the required level", func(t *testing.T) {
		logBuf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req = req.WithContext(authedContext("ansv", domainauth.Permissions{}))
		rec := httptest.NewRecorder()
		RequireGroups(logger, resolver, "admin")(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		logged := logBuf.String()
		assert.Contains(t, logged, "missing permissions")
		assert.Contains(t, logged, "username=ansv")
		assert.Contains(t, logged, "path=/admin")
		assert.Contains(t, logged, "admin")
	})

	t.Run("role granting nothing admits everyone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(authedContext("ansv", domainauth.Permissions{}))
		rec := httptest.NewRecorder()
		RequireGroups(logger, resolver, "user")(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireGroups(logger, resolver, "admin")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	h := Logging(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	h := Recover(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
