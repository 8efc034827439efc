// Package requestid attaches a correlation id to every inbound request.
//
// A well-formed X-Request-ID from the client is reused; anything else is
// replaced by a fresh UUIDv7. The id is stored in the request context, echoed
// in the response and, through LoggerExtractor, added to every log record
// written with that context.
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware())
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
