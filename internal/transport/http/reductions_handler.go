package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "golook/internal/errors"
	"golook/internal/reduction"
)

// ReductionsHandler exposes the reduction lifecycle.
type ReductionsHandler struct {
	manager *reduction.Manager
	logger  *slog.Logger
}

// NewReductionsHandler creates a reductions handler.
func NewReductionsHandler(manager *reduction.Manager, logger *slog.Logger) *ReductionsHandler {
	return &ReductionsHandler{
		manager: manager,
		logger:  logger.With(slog.String("handler", "reductions")),
	}
}

// Routes returns the reduction routes.
func (h *ReductionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	return r
}

// Create handles POST /api/reductions. The run executes asynchronously;
// the response is 202 with the pending state.
func (h *ReductionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reduction.Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.RenderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	op, err := h.manager.Start(req)
	if err != nil {
		if errors.Is(err, reduction.ErrInvalidRequest) {
			apierrors.RenderError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		apierrors.RenderError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "reduction started",
		slog.String("reduction_id", op.ID),
		slog.String("recording", req.Recording),
		slog.String("plan", req.Plan))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, op)
}

// List handles GET /api/reductions.
func (h *ReductionsHandler) List(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"reductions": h.manager.List()})
}

// Get handles GET /api/reductions/{id}.
func (h *ReductionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	op, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderError(w, r, apierrors.ErrReductionNotFound)
		return
	}
	render.JSON(w, r, op)
}
