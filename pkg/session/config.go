package session

// Config holds session validation settings.
type Config struct {
	JWTSecret   string `env:"SESSION_JWT_SECRET"`
	JWTIssuer   string `env:"SESSION_JWT_ISSUER"`
	JWTAudience string `env:"SESSION_JWT_AUDIENCE"`
	HeaderName  string `env:"SESSION_HEADER_NAME" envDefault:"Authorization"`
	CookieName  string `env:"SESSION_COOKIE_NAME" envDefault:"session"`
}

// Extractor returns the header-then-cookie extractor described by the config.
func (c Config) Extractor() Extractor {
	return NewCompositeExtractor(
		NewHeaderExtractor(c.HeaderName),
		NewCookieExtractor(c.CookieName),
	)
}

// Validator returns a JWT validator for the configured secret.
func (c Config) Validator() (*JWTValidator, error) {
	var opts []JWTOption
	if c.JWTIssuer != "" {
		opts = append(opts, WithIssuer(c.JWTIssuer))
	}
	if c.JWTAudience != "" {
		opts = append(opts, WithAudience(c.JWTAudience))
	}
	return NewJWTValidator([]byte(c.JWTSecret), opts...)
}
