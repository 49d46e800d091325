package httpx

import (
	"log/slog"
	"net/http"

	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/service"
)

// SAMLHandlers serves the SAML login and logout flows. Every endpoint ends in
// a browser redirect except metadata, which serves the SP descriptor to the
// IdP operator.
type SAMLHandlers struct {
	Svc    *service.AuthService
	Logger *slog.Logger
}

// Login starts a login by redirecting the browser to the IdP.
// Optional successRedirect and failureRedirect query parameters override the
// configured landing pages.
func (h *SAMLHandlers) Login(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	q := r.URL.Query()

	idpURL, err := h.Svc.BeginLogin(r.Context(), sess, q.Get("successRedirect"), q.Get("failureRedirect"))
	if err != nil {
		h.Logger.Error("building IdP login URL failed", slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "idp_unavailable", Err: err})
		return
	}
	http.Redirect(w, r, idpURL, http.StatusFound)
}

// LoginCallback consumes the SAMLResponse posted back by the IdP.
func (h *SAMLHandlers) LoginCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}
	sess := GetSessionFromContext(r.Context())
	redirect := h.Svc.CompleteLogin(r.Context(), sess, r.FormValue("SAMLResponse"), r.FormValue("RelayState"))
	http.Redirect(w, r, redirect, http.StatusFound)
}

// Metadata serves the service provider metadata document.
func (h *SAMLHandlers) Metadata(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Svc.Metadata()
	if err != nil {
		h.Logger.Error("rendering SP metadata failed", slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "metadata_unavailable", Err: err})
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	if _, err := w.Write(doc); err != nil {
		return
	}
}

// Logout ends the local session and redirects to the IdP single-logout
// endpoint when one is configured, otherwise straight to the landing page.
func (h *SAMLHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	target, err := h.Svc.BeginLogout(r.Context(), sess, r.URL.Query().Get("successRedirect"))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "logout_failed", Err: err})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// LogoutCallback handles the LogoutResponse returned by the IdP after single
// logout. Registered for both bindings, so parameters may arrive in the query
// string or the form body.
func (h *SAMLHandlers) LogoutCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}
	sess := GetSessionFromContext(r.Context())
	redirect := h.Svc.CompleteLogout(r.Context(), sess, r.FormValue("SAMLResponse"), r.FormValue("RelayState"))
	http.Redirect(w, r, redirect, http.StatusFound)
}
