package httpx

import (
	"io"
	"net/http"
)

// healthHandler answers liveness probes. Registered outside the API prefix
// and before any auth middleware; it must stay dependency free so a broken
// session store or IdP never takes the probe down with it.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}
