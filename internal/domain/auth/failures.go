package auth

import "errors"

// Sentinel errors classifying why assertion consumption failed to produce a
// principal. Adapters wrap these; redirect handling maps them to FailCodes.
var (
	// ErrMissingProfile means the response validated but carried no
	// usable assertion profile.
	ErrMissingProfile = errors.New("assertion missing profile")
	// ErrMissingAttributes means one or more required profile attributes
	// were absent from the assertion.
	ErrMissingAttributes = errors.New("assertion missing required attributes")
	// ErrNoUser means verification succeeded but no user could be built
	// from the assertion.
	ErrNoUser = errors.New("no user in assertion")
)

// FailCode is the stable machine-readable failure label appended to failure
// redirects as the failMessage query parameter. Clients key error pages off
// these exact strings.
type FailCode string

const (
	FailMissingProfile    FailCode = "SAML_MISSING_PROFILE"
	FailMissingAttributes FailCode = "SAML_MISSING_ATTRIBUTES"
	FailNoUser            FailCode = "NO_USER"
	FailUnknown           FailCode = "SAML_UNKNOWN_ERROR"
)

// FailCodeFor maps a login error to its redirect failure code. Anything not
// explicitly classified is reported as the generic unknown error.
func FailCodeFor(err error) FailCode {
	switch {
	case errors.Is(err, ErrMissingProfile):
		return FailMissingProfile
	case errors.Is(err, ErrMissingAttributes):
		return FailMissingAttributes
	case errors.Is(err, ErrNoUser):
		return FailNoUser
	default:
		return FailUnknown
	}
}
