package notifications

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"motorhub/internal/session"
	apperrors "motorhub/pkg/errors"
	httputil "motorhub/pkg/http"
	"motorhub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	repo Repository
	log  *logger.Logger
}

func NewHandler(repo Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/notifications", h.List)
	router.POST("/api/v1/notifications/id/:id/read", h.MarkRead)
}

// List returns the caller's notifications, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.writeError(w, "List", apperrors.Unauthenticated("Please sign in to continue"))
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			h.writeError(w, "List", apperrors.InvalidInput("invalid limit parameter: "+raw))
			return
		}
		limit = n
	}

	list, err := h.repo.ListByUser(r.Context(), s.Identity.ID, limit)
	if err != nil {
		h.writeError(w, "List", apperrors.Internal("Failed to load notifications", err))
		return
	}
	if err := httputil.WriteList(w, list, len(list), ""); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "operation", "WriteList", "error", err)
	}
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.writeError(w, "MarkRead", apperrors.Unauthenticated("Please sign in to continue"))
		return
	}

	id := ps.ByName("id")
	if err := h.repo.MarkRead(r.Context(), s.Identity.ID, id, time.Now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, "MarkRead", apperrors.NotFoundWithID("notification", id))
			return
		}
		h.writeError(w, "MarkRead", apperrors.Internal("Failed to update notification", err))
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
