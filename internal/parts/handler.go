package parts

import (
	"context"
	"net/http"

	"motorhub/internal/session"
	apperrors "motorhub/pkg/errors"
	httputil "motorhub/pkg/http"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RoleLookup interface {
	Role(ctx context.Context, identityID string) (model.Role, error)
}

type Handler struct {
	service *Service
	roles   RoleLookup
	log     *logger.Logger
}

func NewHandler(service *Service, roles RoleLookup, log *logger.Logger) *Handler {
	return &Handler{service: service, roles: roles, log: log}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/spare-parts", h.List)
	router.GET("/api/v1/spare-parts/id/:id", h.GetByID)
	router.POST("/api/v1/spare-parts", h.Create)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	parts, err := h.service.List(r.Context(), Criteria{
		Search:   query.Get("search"),
		Category: query.Get("category"),
		Brand:    query.Get("brand"),
	})
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	if err := httputil.WriteList(w, parts, len(parts), ""); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "operation", "WriteList", "error", err)
	}
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	part, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	if err := httputil.WriteSuccess(w, part, ""); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// Create is open to service centers only.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthenticated("Please sign in to continue"))
		return
	}
	role, err := h.roles.Role(r.Context(), s.Identity.ID)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if role != model.RoleServiceCenter {
		h.writeError(w, "Create", apperrors.Forbidden("Only service centers can list spare parts for sale"))
		return
	}

	var part model.SparePart
	if err := httputil.DecodeJSON(r, &part); err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if err := h.service.Create(r.Context(), &part); err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if err := httputil.WriteCreated(w, part, ""); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
