package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionConfig configures the session middleware.
type SessionConfig struct {
	Store        ports.SessionStore
	CookieName   string
	CookieDomain string
	TTL          time.Duration
	Logger       *slog.Logger

	// SecureCookies marks session cookies Secure regardless of how the
	// request arrived. Set outside development, where TLS terminates at a
	// proxy that may not forward the scheme.
	SecureCookies bool
}

// WithSession loads the session identified by the request cookie, or creates a
// fresh one, and carries it in the request context. The session is committed to
// the store just before the first header write:
//   - destroyed sessions are deleted and the cookie is cleared
//   - dirty sessions are saved and the cookie (re)issued
//   - loaded but untouched sessions get their expiry extended
//   - fresh sessions that were never mutated are not persisted at all
func WithSession(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "session_id"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, loaded := loadSession(r, cfg)

			sw := &sessionWriter{
				ResponseWriter: w,
				request:        r,
				cfg:            &cfg,
				sess:           sess,
				loaded:         loaded,
			}

			r = r.WithContext(SetSessionInContext(r.Context(), sess))
			next.ServeHTTP(sw, r)

			// Handler may finish without an explicit header write.
			sw.commit()
		})
	}
}

func loadSession(r *http.Request, cfg SessionConfig) (sess *domainauth.Session, loaded bool) {
	if c, err := r.Cookie(cfg.CookieName); err == nil && c.Value != "" {
		s, err := cfg.Store.Get(r.Context(), c.Value)
		if err == nil {
			return &s, true
		}
		if !errors.Is(err, ports.ErrSessionNotFound) {
			cfg.Logger.Warn("session load failed", slog.Any("error", err))
		}
	}
	return &domainauth.Session{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}, false
}

// sessionWriter persists the session on the first header write, while
// Set-Cookie can still reach the response.
type sessionWriter struct {
	http.ResponseWriter
	request   *http.Request
	cfg       *SessionConfig
	sess      *domainauth.Session
	loaded    bool
	committed bool
}

func (w *sessionWriter) WriteHeader(status int) {
	w.commit()
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true

	ctx := w.request.Context()
	switch {
	case w.sess.Destroyed():
		if w.loaded {
			if err := w.cfg.Store.Delete(ctx, w.sess.ID); err != nil {
				w.cfg.Logger.Error("session delete failed", slog.Any("error", err))
			}
		}
		w.setCookie("", -1)
	case w.sess.Dirty():
		if err := w.cfg.Store.Save(ctx, *w.sess); err != nil {
			w.cfg.Logger.Error("session save failed", slog.Any("error", err))
			return
		}
		w.setCookie(w.sess.ID, int(w.cfg.TTL.Seconds()))
	case w.loaded:
		if err := w.cfg.Store.Touch(ctx, w.sess.ID); err != nil {
			w.cfg.Logger.Warn("session touch failed", slog.Any("error", err))
		}
		w.setCookie(w.sess.ID, int(w.cfg.TTL.Seconds()))
	}
}

func (w *sessionWriter) setCookie(value string, maxAge int) {
	http.SetCookie(w.ResponseWriter, &http.Cookie{
		Name:     w.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   w.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   w.cfg.SecureCookies || requestIsSecure(w.request),
		SameSite: http.SameSiteLaxMode,
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// RequireAuth rejects requests whose session has no logged-in principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetUserSessionFromContext(r.Context())
		if !ok || !sess.IsAuthenticated() {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication_required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermissions rejects authenticated requests whose principal lacks any
// of the listed permissions. Must run inside RequireAuth. Denials are logged
// so failed authorization attempts show up in the audit trail.
func RequirePermissions(logger *slog.Logger, perms ...domainauth.Permission) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetUserSessionFromContext(r.Context())
			if !ok || !sess.IsAuthenticated() {
				WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication_required"})
				return
			}
			for _, p := range perms {
				if !sess.Principal.Permissions.Has(p) {
					logger.Error("missing permissions",
						slog.String("username", sess.Principal.Username),
						slog.String("path", r.URL.Path),
						slog.String("permission", string(p)))
					WriteJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient_permissions"})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGroups gates a route on role level rather than a named permission.
// The listed names are internal role names; they resolve to the permission
// set such a caller would hold, and the request passes when the principal's
// permissions cover all of them. "developer" therefore admits anyone with at
// least developer-level access. Denials are logged.
func RequireGroups(logger *slog.Logger, resolver ports.RoleResolver, roleNames ...string) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetUserSessionFromContext(r.Context())
			if !ok || !sess.IsAuthenticated() {
				WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication_required"})
				return
			}
			required := resolver.ResolvePermissions(roleNames, true)
			if !sess.Principal.Permissions.Covers(required) {
				logger.Error("missing permissions",
					slog.String("username", sess.Principal.Username),
					slog.String("path", r.URL.Path),
					slog.Any("required_roles", roleNames))
				WriteJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient_permissions"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
