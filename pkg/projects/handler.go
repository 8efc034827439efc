package projects

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
	"github.com/dmitrymomot/tenantgate/pkg/tenantdb"
)

const maxBodyBytes = 1 << 16

// Handler exposes projects over HTTP. It reads the tenant only from the
// trusted request context and opens one scope per request.
type Handler struct {
	gate *tenantdb.Gate
	log  *slog.Logger
}

// NewHandler returns a Handler. A nil logger discards.
func NewHandler(gate *tenantdb.Gate, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{gate: gate, log: log.With(logger.Component("projects"))}
}

type createRequest struct {
	Name string `json:"name"`
}

// List handles GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var list []Project
	err := h.scoped(r.Context(), func(ctx context.Context, s *tenantdb.Scope) (err error) {
		list, err = List(ctx, s)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": list})
}

// Get handles GET /{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, ErrNotFound)
		return
	}
	var p Project
	err = h.scoped(r.Context(), func(ctx context.Context, s *tenantdb.Scope) (err error) {
		p, err = Get(ctx, s, id)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create handles POST / with {"name": "..."}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.fail(w, r, ErrInvalidName)
		return
	}
	var p Project
	err := h.scoped(r.Context(), func(ctx context.Context, s *tenantdb.Scope) (err error) {
		p, err = Create(ctx, s, req.Name)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Delete handles DELETE /{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, ErrNotFound)
		return
	}
	err = h.scoped(r.Context(), func(ctx context.Context, s *tenantdb.Scope) error {
		return Delete(ctx, s, id)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scoped(ctx context.Context, fn func(ctx context.Context, s *tenantdb.Scope) error) error {
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		return tenant.ErrNoTenantInContext
	}
	return h.gate.WithTenantScope(ctx, tenantID, fn)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, tenant.ErrNoTenantInContext), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, tenantdb.ErrScopeNotSet),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "projects request failed", logger.Error(err))
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
