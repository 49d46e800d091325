package config

// SAMLConfig contains the service provider side of the SAML setup. The IdP
// certificate and the SP keypair accept either PEM or raw base64 DER.
type SAMLConfig struct {
	// EntryPointSSO is the IdP single sign-on endpoint.
	EntryPointSSO string `env:"ENTRY_SSO,required"`

	// EntryPointSLO is the IdP single logout endpoint. Leave empty when the
	// IdP offers no SLO; logout then only clears the local session.
	EntryPointSLO string `env:"ENTRY_SLO"`

	// IdPIssuer is the entity ID the IdP signs assertions under.
	// Defaults to the SSO entry point when empty.
	IdPIssuer string `env:"IDP_ISSUER"`

	// IdPCertificate verifies assertion signatures.
	IdPCertificate string `env:"IDP_PUBLIC_CERT,required"`

	// Issuer is our own entity ID.
	Issuer string `env:"ISSUER,required"`

	// CallbackURL receives the SAMLResponse POST after login.
	CallbackURL string `env:"CALLBACK_URL,required"`

	// LogoutCallbackURL receives the LogoutResponse after single logout.
	LogoutCallbackURL string `env:"LOGOUT_CALLBACK_URL"`

	// Certificate and PrivateKey sign our AuthnRequests.
	Certificate string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`

	// AudienceURI restricts which audience assertions are accepted for.
	// Defaults to Issuer when empty.
	AudienceURI string `env:"AUDIENCE"`

	// NameIDFormat requested from the IdP.
	NameIDFormat string `env:"NAMEID_FORMAT"`

	// SuccessRedirect is where a completed login lands by default.
	SuccessRedirect string `env:"SUCCESS_REDIRECT"`

	// FailureRedirect is where a failed login lands by default.
	FailureRedirect string `env:"FAILURE_REDIRECT"`

	// LogoutRedirect is where a completed logout lands by default.
	LogoutRedirect string `env:"LOGOUT_REDIRECT"`
}

// RoleGroupsConfig maps IdP group names to application roles. Matching is
// case-insensitive. A user in none of these groups still logs in, but with
// no administrative permissions.
type RoleGroupsConfig struct {
	AdminGroups     []string `env:"ADMIN_GROUPS"     envSeparator:","`
	DeveloperGroups []string `env:"DEVELOPER_GROUPS" envSeparator:","`
	UserGroups      []string `env:"USER_GROUPS"      envSeparator:","`
}
