// Package logger builds the structured slog.Logger used across tenantgate.
//
// New returns a logger whose handler is wrapped by LogHandlerDecorator, so
// request-scoped values (request id, tenant id and slug, user id) registered
// as ContextExtractor callbacks are attached to every record logged with a
// *Context method:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "tenantgate"),
//		logger.WithContextExtractors(
//			requestid.LoggerExtractor(),
//			tenant.LoggerExtractor(),
//		),
//	)
//	log.WarnContext(ctx, "tenant cache degraded", logger.Error(err))
//
// Attribute helpers (Error, TenantID, UserID, Policy, ...) keep key names
// consistent between packages and drop nil values.
package logger
