package membership

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/session"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
)

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	errorHandler ErrorHandler
	log          *slog.Logger
}

// MiddlewareOption configures Require.
type MiddlewareOption func(*middlewareConfig)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithMiddlewareLogger sets the logger for rejections.
func WithMiddlewareLogger(log *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Require admits requests from members of the request's tenant whose role is
// at least minRole. The tenant comes only from the context injected by
// tenant.Middleware; a request without one is rejected.
//
// Unauthenticated callers and non-members receive the same response so that
// membership cannot be probed. The distinction is logged.
func Require(a *Authorizer, ex session.Extractor, minRole Role, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: DefaultErrorHandler,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.log.With(logger.Component("membership"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			reject := func(err error, attrs ...slog.Attr) {
				level := slog.LevelInfo
				if errors.Is(err, ErrStoreUnavailable) {
					level = slog.LevelError
				}
				log.LogAttrs(ctx, level, "access denied", append(attrs, logger.Error(err))...)
				cfg.errorHandler(w, r, err)
			}

			tenantID, ok := tenant.IDFromContext(ctx)
			if !ok {
				reject(ErrUnauthenticated, logger.Reason("no_tenant"))
				return
			}

			token, err := ex.GetToken(r)
			if err != nil {
				reject(errors.Join(ErrUnauthenticated, err), logger.Reason("no_session"))
				return
			}

			ac, err := a.Authorize(ctx, token, tenantID)
			if err != nil {
				reject(err, logger.Reason(reason(err)))
				return
			}

			if !ac.Role.AtLeast(minRole) {
				reject(ErrInsufficientRole,
					logger.Reason("insufficient_role"),
					logger.UserID(ac.UserID.String()),
					logger.Role(string(ac.Role)),
					slog.String("required_role", string(minRole)),
				)
				return
			}

			ctx = session.WithIdentity(ctx, &session.Identity{UserID: ac.UserID})
			ctx = WithContext(ctx, ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DefaultErrorHandler answers 401 for unauthenticated callers and non-members
// alike, 403 for insufficient role and 503 when membership could not be checked.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusUnauthorized
	switch {
	case errors.Is(err, ErrInsufficientRole):
		status = http.StatusForbidden
	case errors.Is(err, ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrNotAMember):
		return "not_a_member"
	case errors.Is(err, session.ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrUnauthenticated):
		return "invalid_session"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
