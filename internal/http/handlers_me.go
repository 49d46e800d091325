package httpx

import (
	"net/http"
)

// apiEnvelope is the response wrapper used by the data endpoints; the
// frontend unwraps data and shows message on failure toasts.
type apiEnvelope struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// WriteData writes a successful enveloped JSON response.
func WriteData(w http.ResponseWriter, code int, data any) {
	WriteJSON(w, code, apiEnvelope{Data: data, Message: "success"})
}

// meResponse is the slice of the principal the frontend is allowed to see.
// Groups and the SAML bookkeeping fields stay server side.
type meResponse struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// MeHandler returns the logged-in user's display name and username. Runs
// behind RequireAuth, so the session always carries a principal.
func MeHandler(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess.Principal.Name == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "bad_request", Message: "Bad Request"})
		return
	}
	WriteData(w, http.StatusOK, meResponse{
		Name:     sess.Principal.Name,
		Username: sess.Principal.Username,
	})
}
