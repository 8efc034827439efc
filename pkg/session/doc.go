// Package session validates session tokens issued by an external
// authentication system.
//
// The package never creates or stores sessions. It only answers "is this
// token valid, and for which user" through the Validator interface, and
// pulls tokens out of requests with an Extractor.
//
// # Validators
//
// JWTValidator accepts HMAC-signed JWTs whose subject is the user UUID.
// MemoryValidator maps opaque tokens to identities and is meant for tests and
// local development. ValidatorFunc adapts any function.
//
// # Extractors
//
// HeaderExtractor reads "Authorization: Bearer <token>", CookieExtractor reads
// a named cookie and CompositeExtractor tries several in order:
//
//	ex := session.NewCompositeExtractor(
//		session.NewHeaderExtractor("Authorization"),
//		session.NewCookieExtractor("session"),
//	)
//	token, err := ex.GetToken(r)
//	if err != nil {
//		// session.ErrSessionNotFound
//	}
//	id, err := validator.Validate(r.Context(), token)
//
// Validation errors are ErrSessionNotFound, ErrInvalidSession and
// ErrSessionExpired. Callers at the HTTP boundary should not reveal which one
// occurred.
package session
