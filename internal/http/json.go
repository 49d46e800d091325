package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// DecodeJSON reads the request body into dst, rejecting unknown fields so a
// typo in a client payload fails loudly instead of silently dropping data.
// On failure the 400 response has already been written and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON encodes v and writes it with the given status. Encoding happens
// into a buffer first; once WriteHeader has run there is no way to turn the
// response into a 500.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// A failed body write means the client went away; nothing to recover.
	_, _ = buf.WriteTo(w)
}

// ErrorParams describes a JSON error response. Message wins over Err when
// both are set; Err is for passing a Go error straight through.
type ErrorParams struct {
	Code    int
	ErrCode string
	Message string
	Err     error
}

// WriteError writes the {"error": ..., "message": ...} body every failure
// path uses.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := p.Message
	if msg == "" && p.Err != nil {
		msg = p.Err.Error()
	}
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": msg})
}
