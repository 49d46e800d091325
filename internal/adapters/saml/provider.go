// Package saml implements the SSO provider port on top of gosaml2.
package saml

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	saml2 "github.com/russellhaering/gosaml2"
	dsig "github.com/russellhaering/goxmldsig"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
)

// Attribute names looked up in the assertion. The WS-Fed style claim URIs
// are what the municipal ADFS issues; the short names are kept as fallbacks
// for IdPs configured with friendly names only.
const (
	claimGivenName = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname"
	claimSurname   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname"
	claimGroups    = "http://schemas.xmlsoap.org/claims/Group"

	attrGivenName = "givenname"
	attrSurname   = "surname"
	attrGroups    = "groups"
	attrUsername  = "uid"
)

const defaultNameIDFormat = "urn:oasis:names:tc:SAML:1.1:nameid-format:unspecified"

// How long published metadata stays valid, in hours.
const metadataValidityHours = 7 * 24

// Config carries everything needed to act as a SAML service provider
// against one identity provider.
type Config struct {
	// EntryPointURL is the IdP single sign-on endpoint.
	EntryPointURL string
	// LogoutURL is the IdP single logout endpoint. Optional; when empty,
	// logout is local only.
	LogoutURL string
	// IdPIssuer is the IdP entityID.
	IdPIssuer string
	// IdPCertificate holds the IdP signing certificate, PEM or raw
	// base64 DER.
	IdPCertificate string
	// Issuer is this service provider's entityID.
	Issuer string
	// CallbackURL is the assertion consumer service URL.
	CallbackURL string
	// LogoutCallbackURL receives the IdP LogoutResponse.
	LogoutCallbackURL string
	// Certificate and PrivateKey are the SP signing keypair, PEM encoded.
	Certificate string
	PrivateKey  string
	// AudienceURI defaults to Issuer when empty.
	AudienceURI string
	// NameIDFormat defaults to unspecified.
	NameIDFormat string
	// SignRequests controls AuthnRequest signing.
	SignRequests bool
}

// Provider implements ports.SSOProvider.
type Provider struct {
	sp     *saml2.SAMLServiceProvider
	logger *slog.Logger
}

// New builds a Provider from config. It fails fast on unparseable
// certificates so misconfiguration surfaces at startup, not at first login.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EntryPointURL == "" {
		return nil, errors.New("saml: entry point URL is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("saml: issuer is required")
	}
	if cfg.CallbackURL == "" {
		return nil, errors.New("saml: callback URL is required")
	}

	idpCerts, err := parseCertificates(cfg.IdPCertificate)
	if err != nil {
		return nil, fmt.Errorf("saml: parse IdP certificate: %w", err)
	}

	keyStore, err := buildKeyStore(cfg.Certificate, cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("saml: load SP keypair: %w", err)
	}

	audience := cfg.AudienceURI
	if audience == "" {
		audience = cfg.Issuer
	}
	nameIDFormat := cfg.NameIDFormat
	if nameIDFormat == "" {
		nameIDFormat = defaultNameIDFormat
	}

	sp := &saml2.SAMLServiceProvider{
		IdentityProviderSSOURL:      cfg.EntryPointURL,
		IdentityProviderSLOURL:      cfg.LogoutURL,
		IdentityProviderIssuer:      cfg.IdPIssuer,
		ServiceProviderIssuer:       cfg.Issuer,
		AssertionConsumerServiceURL: cfg.CallbackURL,
		ServiceProviderSLOURL:       cfg.LogoutCallbackURL,
		SignAuthnRequests:           cfg.SignRequests,
		AudienceURI:                 audience,
		IDPCertificateStore:         &dsig.MemoryX509CertificateStore{Roots: idpCerts},
		SPKeyStore:                  keyStore,
		NameIdFormat:                nameIDFormat,
	}

	return &Provider{sp: sp, logger: logger}, nil
}

// LoginURL builds the redirect URL for a new authentication request.
func (p *Provider) LoginURL(relayState string) (string, error) {
	authURL, err := p.sp.BuildAuthURL(relayState)
	if err != nil {
		return "", fmt.Errorf("build auth URL: %w", err)
	}
	return authURL, nil
}

// Consume validates a base64-encoded SAMLResponse and maps the assertion
// attributes to an Identity. Classification of failures:
//
//	no assertion at all            -> ErrMissingProfile
//	assertion but nothing usable   -> ErrNoUser
//	some required attribute absent -> ErrMissingAttributes
//	anything else                  -> unclassified (generic failure)
func (p *Provider) Consume(ctx context.Context, samlResponse string) (domainauth.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.Identity{}, err
	}
	if strings.TrimSpace(samlResponse) == "" {
		return domainauth.Identity{}, fmt.Errorf("empty SAMLResponse: %w", domainauth.ErrMissingProfile)
	}

	info, err := p.sp.RetrieveAssertionInfo(samlResponse)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("retrieve assertion: %w", err)
	}
	if info == nil {
		return domainauth.Identity{}, domainauth.ErrMissingProfile
	}
	if info.WarningInfo != nil {
		if info.WarningInfo.InvalidTime {
			return domainauth.Identity{}, errors.New("assertion outside its validity window")
		}
		if info.WarningInfo.NotInAudience {
			return domainauth.Identity{}, errors.New("assertion not intended for this audience")
		}
	}

	identity := domainauth.Identity{
		GivenName:    attrFirst(info, claimGivenName, attrGivenName),
		Surname:      attrFirst(info, claimSurname, attrSurname),
		Username:     attrFirst(info, attrUsername),
		Groups:       groupValues(info),
		NameID:       info.NameID,
		SessionIndex: info.SessionIndex,
	}

	if identity.Username == "" && identity.GivenName == "" && identity.Surname == "" && len(identity.Groups) == 0 {
		return domainauth.Identity{}, domainauth.ErrNoUser
	}

	var missing []string
	if identity.GivenName == "" {
		missing = append(missing, attrGivenName)
	}
	if identity.Surname == "" {
		missing = append(missing, attrSurname)
	}
	if identity.Username == "" {
		missing = append(missing, attrUsername)
	}
	if len(identity.Groups) == 0 {
		missing = append(missing, attrGroups)
	}
	if len(missing) > 0 {
		return domainauth.Identity{}, fmt.Errorf("%w: %s", domainauth.ErrMissingAttributes, strings.Join(missing, ", "))
	}

	return identity, nil
}

// Metadata renders the SP metadata document, including the single logout
// endpoint when one is configured.
func (p *Provider) Metadata() ([]byte, error) {
	meta, err := p.sp.MetadataWithSLO(metadataValidityHours)
	if err != nil {
		return nil, fmt.Errorf("build metadata: %w", err)
	}
	out, err := xml.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// LogoutURL builds the IdP single-logout redirect for the given session.
// Returns empty without error when the IdP has no SLO endpoint or the
// session carries no IdP reference; callers fall back to local logout.
func (p *Provider) LogoutURL(relayState, nameID, sessionIndex string) (string, error) {
	if p.sp.IdentityProviderSLOURL == "" || nameID == "" {
		return "", nil
	}
	doc, err := p.sp.BuildLogoutRequestDocument(nameID, sessionIndex)
	if err != nil {
		return "", fmt.Errorf("build logout request: %w", err)
	}
	logoutURL, err := p.sp.BuildLogoutURLRedirect(relayState, doc)
	if err != nil {
		return "", fmt.Errorf("build logout URL: %w", err)
	}
	return logoutURL, nil
}

// ConsumeLogout validates the LogoutResponse posted back by the IdP. The
// local session is already gone by then, so callers treat failures as
// log-only.
func (p *Provider) ConsumeLogout(ctx context.Context, samlResponse string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(samlResponse) == "" {
		return nil
	}
	if _, err := p.sp.ValidateEncodedLogoutResponsePOST(samlResponse); err != nil {
		return fmt.Errorf("validate logout response: %w", err)
	}
	return nil
}

// attrFirst returns the first non-empty value of the first present
// attribute name.
func attrFirst(info *saml2.AssertionInfo, names ...string) string {
	for _, name := range names {
		attr, ok := info.Values[name]
		if !ok {
			continue
		}
		for _, v := range attr.Values {
			if v.Value != "" {
				return v.Value
			}
		}
	}
	return ""
}

// groupValues collects group memberships. The claim URI carries one group
// per attribute value; the short-name fallback may pack several into one
// comma-separated string.
func groupValues(info *saml2.AssertionInfo) []string {
	var groups []string
	if attr, ok := info.Values[claimGroups]; ok {
		for _, v := range attr.Values {
			if g := strings.TrimSpace(v.Value); g != "" {
				groups = append(groups, g)
			}
		}
	}
	if len(groups) > 0 {
		return groups
	}
	if attr, ok := info.Values[attrGroups]; ok {
		for _, v := range attr.Values {
			for _, g := range strings.Split(v.Value, ",") {
				if g = strings.TrimSpace(g); g != "" {
					groups = append(groups, g)
				}
			}
		}
	}
	return groups
}

// parseCertificates accepts one or more PEM blocks, or a single raw base64
// DER certificate as ADFS exports them.
func parseCertificates(raw string) ([]*x509.Certificate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("certificate is empty")
	}

	if strings.Contains(raw, "-----BEGIN") {
		var certs []*x509.Certificate
		rest := []byte(raw)
		for {
			var block *pem.Block
			block, rest = pem.Decode(rest)
			if block == nil {
				break
			}
			if block.Type != "CERTIFICATE" {
				continue
			}
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, err
			}
			certs = append(certs, cert)
		}
		if len(certs) == 0 {
			return nil, errors.New("no certificate blocks in PEM input")
		}
		return certs, nil
	}

	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(raw), ""))
	if err != nil {
		return nil, fmt.Errorf("decode base64 certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return []*x509.Certificate{cert}, nil
}

// buildKeyStore loads the SP signing keypair. The keypair is optional; an
// SP that does not sign requests runs without one.
func buildKeyStore(certPEM, keyPEM string) (dsig.X509KeyStore, error) {
	if certPEM == "" && keyPEM == "" {
		return nil, nil
	}
	if certPEM == "" || keyPEM == "" {
		return nil, errors.New("certificate and private key must both be set")
	}
	keyPair, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err != nil {
		return nil, err
	}
	return dsig.TLSCertKeyStore(keyPair), nil
}
