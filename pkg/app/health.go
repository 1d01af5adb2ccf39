package app

import (
	"context"
	"net/http"
	"time"

	"motorhub/pkg/client"
	"motorhub/pkg/docstore"
	httputil "motorhub/pkg/http"
	"motorhub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const readyTimeout = 2 * time.Second

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Backend  string `json:"backend,omitempty"`
}

// Reachability is the backend probe.
type Reachability interface {
	Reachable(ctx context.Context, resource string) bool
}

type HealthHandler struct {
	store   docstore.Store
	backend Reachability
	log     *logger.Logger
}

func NewHealthHandler(store docstore.Store, backend Reachability, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		backend: backend,
		log:     log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

// Ready needs the document store. An unreachable backend only means the
// gateway is running offline.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	backend := "ok"
	if h.backend != nil && !h.backend.Reachable(ctx, client.ResourceJobs) {
		backend = "offline"
	}

	if err := h.store.Ping(ctx); err != nil {
		h.log.Error("Database health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		if writeErr := httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Database: "error",
			Backend:  backend,
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "ready",
		Database: "ok",
		Backend:  backend,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
