package profile

import (
	"net/http"

	"motorhub/internal/session"
	apperrors "motorhub/pkg/errors"
	httputil "motorhub/pkg/http"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	resolver *Resolver
	log      *logger.Logger
}

func NewHandler(resolver *Resolver, log *logger.Logger) *Handler {
	return &Handler{resolver: resolver, log: log}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/profile", h.Get)
	router.POST("/api/v1/profile", h.Register)
	router.PATCH("/api/v1/profile", h.Update)
	router.PUT("/api/v1/profile/availability", h.SetAvailability)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := h.identity(w, r, "Get")
	if !ok {
		return
	}
	res, err := h.resolver.Resolve(r.Context(), identity)
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}
	if err := httputil.WriteSuccess(w, res, res.Notice); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := h.identity(w, r, "Register")
	if !ok {
		return
	}
	var form Registration
	if err := httputil.DecodeJSON(r, &form); err != nil {
		h.writeError(w, "Register", err)
		return
	}
	out, err := h.resolver.Register(r.Context(), identity, &form)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}
	h.writeOutcome(w, "Register", out, http.StatusCreated)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := h.identity(w, r, "Update")
	if !ok {
		return
	}
	var patch Patch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		h.writeError(w, "Update", err)
		return
	}
	out, err := h.resolver.Update(r.Context(), identity, &patch)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}
	h.writeOutcome(w, "Update", out, http.StatusOK)
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := h.identity(w, r, "SetAvailability")
	if !ok {
		return
	}
	var body struct {
		Available *bool `json:"available"`
	}
	if err := httputil.DecodeJSON(r, &body); err != nil {
		h.writeError(w, "SetAvailability", err)
		return
	}
	if body.Available == nil {
		h.writeError(w, "SetAvailability", apperrors.MissingFields([]string{"available"}))
		return
	}
	out, err := h.resolver.SetAvailability(r.Context(), identity, *body.Available)
	if err != nil {
		h.writeError(w, "SetAvailability", err)
		return
	}
	h.writeOutcome(w, "SetAvailability", out, http.StatusOK)
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request, handler string) (model.Identity, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.writeError(w, handler, apperrors.Unauthenticated("Please sign in to continue"))
		return model.Identity{}, false
	}
	return s.Identity, true
}

func (h *Handler) writeOutcome(w http.ResponseWriter, handler string, out *Outcome, status int) {
	if out.Degraded() {
		status = http.StatusAccepted
	}
	if err := httputil.WriteJSON(w, status, httputil.Response{Data: out, Notice: out.Notice}); err != nil {
		h.log.Error("failed to write response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
