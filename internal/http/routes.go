package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      *service.AuthService
	Directory ports.StudentDirectory
	Sessions  ports.SessionStore

	// Session cookie settings.
	CookieName   string
	CookieDomain string
	SessionTTL   time.Duration

	// BasePrefix is prepended to every route, e.g. "/api".
	BasePrefix string

	// SecureCookies forces the Secure attribute on session cookies.
	SecureCookies bool

	Logger *slog.Logger
}

// NewRouter creates and configures the HTTP router. All routes run inside the
// session middleware; the student-records routes additionally require a
// logged-in principal, and the mutating ones the edit permission.
func NewRouter(services RouterServices) http.Handler {
	if services.Logger == nil {
		services.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	prefix := strings.TrimSuffix(services.BasePrefix, "/")

	samlHandlers := &SAMLHandlers{Svc: services.Auth, Logger: services.Logger}
	schoolHandlers := &SchoolHandlers{Directory: services.Directory, Logger: services.Logger}

	registerSAMLRoutes(mux, prefix, samlHandlers)
	registerSchoolRoutes(mux, prefix, schoolHandlers)
	mux.Handle("GET "+prefix+"/me", RequireAuth(http.HandlerFunc(MeHandler)))

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	session := WithSession(SessionConfig{
		Store:         services.Sessions,
		CookieName:    services.CookieName,
		CookieDomain:  services.CookieDomain,
		TTL:           services.SessionTTL,
		Logger:        services.Logger,
		SecureCookies: services.SecureCookies,
	})
	return session(mux)
}

func registerSAMLRoutes(mux *http.ServeMux, prefix string, h *SAMLHandlers) {
	mux.Handle("GET "+prefix+"/saml/login", http.HandlerFunc(h.Login))
	mux.Handle("POST "+prefix+"/saml/login/callback", http.HandlerFunc(h.LoginCallback))
	mux.Handle("GET "+prefix+"/saml/metadata", http.HandlerFunc(h.Metadata))
	mux.Handle("GET "+prefix+"/saml/logout", http.HandlerFunc(h.Logout))
	// The IdP may return the LogoutResponse with either binding.
	mux.Handle("GET "+prefix+"/saml/logout/callback", http.HandlerFunc(h.LogoutCallback))
	mux.Handle("POST "+prefix+"/saml/logout/callback", http.HandlerFunc(h.LogoutCallback))
}

func registerSchoolRoutes(mux *http.ServeMux, prefix string, h *SchoolHandlers) {
	authed := func(handler http.HandlerFunc) http.Handler {
		return RequireAuth(handler)
	}
	editor := RequirePermissions(h.Logger, domainauth.PermissionEditAdmin)

	mux.Handle("GET "+prefix+"/schools", authed(h.Schools))
	mux.Handle("GET "+prefix+"/school/{schoolId}/classes", authed(h.Classes))
	mux.Handle("GET "+prefix+"/schoolclass/{schoolClassId}/pupils", authed(h.ClassPupils))
	mux.Handle("GET "+prefix+"/pupil/search", authed(h.SearchPupils))
	mux.Handle("GET "+prefix+"/pupil/{pupilLoginName}/password", editor(http.HandlerFunc(h.GeneratePupilPassword)))
	mux.Handle("PATCH "+prefix+"/pupil/{pupilLoginName}", editor(http.HandlerFunc(h.UpdatePupil)))
	mux.Handle("GET "+prefix+"/image/{personId}", authed(h.PersonImage))
}
