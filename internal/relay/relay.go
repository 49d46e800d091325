// Package relay encodes the pair of redirect targets carried through the
// IdP round trip as the opaque SAML RelayState value.
//
// The wire form is "<escaped success URL>,<escaped failure URL>". Escaping
// keeps any comma inside a URL out of the delimiter position, so splitting
// on the first comma is unambiguous.
package relay

import (
	"fmt"
	"net/url"
	"strings"
)

const delimiter = ","

// State is the decoded pair of redirect targets for one login or logout
// round trip.
type State struct {
	SuccessURL string
	FailureURL string
}

// Encode packs the redirect pair into a RelayState string.
func Encode(successURL, failureURL string) string {
	return url.QueryEscape(successURL) + delimiter + url.QueryEscape(failureURL)
}

// Decode splits and unescapes a RelayState string. It does not validate the
// URLs; use Resolve when fallbacks are needed.
func Decode(raw string) (State, error) {
	success, failure, found := strings.Cut(raw, delimiter)
	if !found {
		return State{}, fmt.Errorf("relay state missing delimiter: %q", raw)
	}
	successURL, err := url.QueryUnescape(success)
	if err != nil {
		return State{}, fmt.Errorf("unescape success URL: %w", err)
	}
	failureURL, err := url.QueryUnescape(failure)
	if err != nil {
		return State{}, fmt.Errorf("unescape failure URL: %w", err)
	}
	return State{SuccessURL: successURL, FailureURL: failureURL}, nil
}

// Resolve decodes raw and guarantees both targets are usable redirect URLs.
// An unusable failure URL falls back to the success URL; an unusable success
// URL falls back to the configured default. The IdP echoes RelayState as an
// untrusted request value, so a redirect target must never come out empty.
func Resolve(raw string, fallback State) State {
	st, err := Decode(raw)
	if err != nil {
		return fallback
	}
	if !ValidRedirectURL(st.SuccessURL) {
		st.SuccessURL = fallback.SuccessURL
	}
	if !ValidRedirectURL(st.FailureURL) {
		st.FailureURL = st.SuccessURL
	}
	return st
}

// ValidRedirectURL reports whether s is an absolute http(s) URL suitable as
// a redirect target.
func ValidRedirectURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// WithFailMessage appends a failMessage query parameter to a redirect URL.
// The URL is assumed valid; on a parse error the code is appended blindly so
// the client still learns the failure class.
func WithFailMessage(redirectURL, code string) string {
	u, err := url.Parse(redirectURL)
	if err != nil {
		sep := "?"
		if strings.Contains(redirectURL, "?") {
			sep = "&"
		}
		return redirectURL + sep + "failMessage=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("failMessage", code)
	u.RawQuery = q.Encode()
	return u.String()
}
