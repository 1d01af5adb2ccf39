package handler

import (
	"net/http"

	"motorhub/internal/jobs/service"
	apperrors "motorhub/pkg/errors"
	httputil "motorhub/pkg/http"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	roles   RoleLookup
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, roles RoleLookup, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		roles:   roles,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := caller(r)
	if err != nil {
		writeError(w, h.log, "Create", err)
		return
	}

	var booking model.Job
	if err := httputil.DecodeJSON(r, &booking); err != nil {
		writeError(w, h.log, "Create", err)
		return
	}

	res, err := h.service.Create(r.Context(), actor, &booking)
	if err != nil {
		writeError(w, h.log, "Create", err)
		return
	}
	writeResult(w, h.log, "Create", res, true)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := caller(r)
	if err != nil {
		writeError(w, h.log, "GetByID", err)
		return
	}
	booking, notice, err := h.service.GetByID(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		writeError(w, h.log, "GetByID", err)
		return
	}
	if err := httputil.WriteSuccess(w, booking, notice); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// List returns the bookings a service center received, or the ones any
// other caller made.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := caller(r)
	if err != nil {
		writeError(w, h.log, "List", err)
		return
	}

	role := model.RoleOwner
	if h.roles != nil {
		if role, err = h.roles.Role(r.Context(), actor.ID); err != nil {
			writeError(w, h.log, "List", err)
			return
		}
	}

	var list *service.List
	if role == model.RoleServiceCenter {
		list, err = h.service.ListByServiceCenter(r.Context(), actor.ID, criteria(r))
	} else {
		list, err = h.service.ListByRequester(r.Context(), actor.ID, criteria(r))
	}
	if err != nil {
		writeError(w, h.log, "List", err)
		return
	}
	writeList(w, h.log, "List", list)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := caller(r)
	if err != nil {
		writeError(w, h.log, "Update", err)
		return
	}

	var update model.JobUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		writeError(w, h.log, "Update", err)
		return
	}

	res, err := h.service.Update(r.Context(), actor, ps.ByName("id"), &update)
	if err != nil {
		writeError(w, h.log, "Update", err)
		return
	}
	writeResult(w, h.log, "Update", res, false)
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := caller(r)
	if err != nil {
		writeError(w, h.log, "UpdateStatus", err)
		return
	}

	var change model.StatusChange
	if err := httputil.DecodeJSON(r, &change); err != nil {
		writeError(w, h.log, "UpdateStatus", err)
		return
	}
	if change.Status == "" {
		writeError(w, h.log, "UpdateStatus", apperrors.MissingFields([]string{"status"}))
		return
	}

	res, err := h.service.UpdateStatus(r.Context(), actor, ps.ByName("id"), change.Status)
	if err != nil {
		writeError(w, h.log, "UpdateStatus", err)
		return
	}
	writeResult(w, h.log, "UpdateStatus", res, false)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.List)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.PUT("/api/v1/bookings/id/:id/status", h.UpdateStatus)
}
