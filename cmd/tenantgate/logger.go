package main

import (
	"io"
	"log/slog"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/membership"
	"github.com/dmitrymomot/tenantgate/pkg/requestid"
	"github.com/dmitrymomot/tenantgate/pkg/session"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
)

// newLogger applies the APP_ENV defaults, then explicit LOG_LEVEL and
// LOG_FORMAT overrides. An invalid LOG_FORMAT panics at startup.
func newLogger(cfg logConfig, out io.Writer) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "tenantgate"),
		logger.WithOutput(out),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
			session.LoggerExtractor(),
			membership.LoggerExtractor(),
		),
	}
	if cfg.Level != "" {
		opts = append(opts, logger.WithLevelName(cfg.Level))
	}
	if cfg.Format != "" {
		opts = append(opts, logger.WithFormat(logger.Format(cfg.Format)))
	}
	return logger.New(opts...)
}
