package session

import (
	"net/http"
	"strings"
)

// Extractor pulls a session token out of a request.
type Extractor interface {
	// GetToken returns the token or ErrSessionNotFound.
	GetToken(r *http.Request) (string, error)
}

// HeaderExtractor reads the token from a header.
type HeaderExtractor struct {
	headerName string
	prefix     string
}

// HeaderOption is a functional option for HeaderExtractor
type HeaderOption func(*HeaderExtractor)

// WithHeaderPrefix sets a custom prefix for the header value
func WithHeaderPrefix(prefix string) HeaderOption {
	return func(e *HeaderExtractor) {
		e.prefix = prefix
	}
}

// NewHeaderExtractor creates a header extractor expecting "Bearer <token>" by default.
func NewHeaderExtractor(headerName string, opts ...HeaderOption) *HeaderExtractor {
	e := &HeaderExtractor{
		headerName: headerName,
		prefix:     "Bearer ",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetToken extracts the session token from the header. The prefix is matched
// case-insensitively.
func (e *HeaderExtractor) GetToken(r *http.Request) (string, error) {
	value := strings.TrimSpace(r.Header.Get(e.headerName))
	if value == "" {
		return "", ErrSessionNotFound
	}

	if e.prefix != "" {
		if len(value) < len(e.prefix) || !strings.EqualFold(value[:len(e.prefix)], e.prefix) {
			return "", ErrSessionNotFound
		}
		value = strings.TrimSpace(value[len(e.prefix):])
	}
	if value == "" {
		return "", ErrSessionNotFound
	}
	return value, nil
}

// CookieExtractor reads the token from a cookie.
type CookieExtractor struct {
	cookieName string
}

// NewCookieExtractor creates a cookie extractor.
func NewCookieExtractor(cookieName string) *CookieExtractor {
	return &CookieExtractor{cookieName: cookieName}
}

// GetToken extracts the session token from the cookie
func (e *CookieExtractor) GetToken(r *http.Request) (string, error) {
	c, err := r.Cookie(e.cookieName)
	if err != nil || c.Value == "" {
		return "", ErrSessionNotFound
	}
	return c.Value, nil
}

// CompositeExtractor tries multiple extractors in order
type CompositeExtractor struct {
	extractors []Extractor
}

// NewCompositeExtractor creates an extractor returning the first token found.
func NewCompositeExtractor(extractors ...Extractor) *CompositeExtractor {
	return &CompositeExtractor{extractors: extractors}
}

// GetToken extracts session token from first successful extractor
func (e *CompositeExtractor) GetToken(r *http.Request) (string, error) {
	for _, ex := range e.extractors {
		token, err := ex.GetToken(r)
		if err == nil && token != "" {
			return token, nil
		}
	}
	return "", ErrSessionNotFound
}
