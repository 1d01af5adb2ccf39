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

type JobHandler struct {
	service service.JobService
	roles   RoleLookup
	log     *logger.Logger
}

func NewJobHandler(service service.JobService, roles RoleLookup, log *logger.Logger) *JobHandler {
	return &JobHandler{
		service: service,
		roles:   roles,
		log:     log,
	}
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := caller(r)
	if err != nil {
		writeError(w, h.log, "Create", err)
		return
	}

	var job model.Job
	if err := httputil.DecodeJSON(r, &job); err != nil {
		writeError(w, h.log, "Create", err)
		return
	}

	res, err := h.service.Create(r.Context(), actor, &job)
	if err != nil {
		writeError(w, h.log, "Create", err)
		return
	}
	writeResult(w, h.log, "Create", res, true)
}

func (h *JobHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	job, notice, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, h.log, "GetByID", err)
		return
	}
	if err := httputil.WriteSuccess(w, job, notice); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *JobHandler) ListOpen(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.service.ListOpen(r.Context(), criteria(r))
	if err != nil {
		writeError(w, h.log, "ListOpen", err)
		return
	}
	writeList(w, h.log, "ListOpen", list)
}

func (h *JobHandler) ListAssigned(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := caller(r)
	if err != nil {
		writeError(w, h.log, "ListAssigned", err)
		return
	}
	list, err := h.service.ListAssigned(r.Context(), actor.ID, criteria(r))
	if err != nil {
		writeError(w, h.log, "ListAssigned", err)
		return
	}
	writeList(w, h.log, "ListAssigned", list)
}

func (h *JobHandler) ListRequested(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := caller(r)
	if err != nil {
		writeError(w, h.log, "ListRequested", err)
		return
	}
	list, err := h.service.ListRequested(r.Context(), actor.ID, criteria(r))
	if err != nil {
		writeError(w, h.log, "ListRequested", err)
		return
	}
	writeList(w, h.log, "ListRequested", list)
}

func (h *JobHandler) Accept(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := h.technician(r)
	if err != nil {
		writeError(w, h.log, "Accept", err)
		return
	}
	res, err := h.service.Accept(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		writeError(w, h.log, "Accept", err)
		return
	}
	writeResult(w, h.log, "Accept", res, false)
}

func (h *JobHandler) Release(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := caller(r)
	if err != nil {
		writeError(w, h.log, "Release", err)
		return
	}
	res, err := h.service.Release(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		writeError(w, h.log, "Release", err)
		return
	}
	writeResult(w, h.log, "Release", res, false)
}

func (h *JobHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

// technician returns the caller when their profile is a technician.
func (h *JobHandler) technician(r *http.Request) (model.Identity, error) {
	actor, err := caller(r)
	if err != nil {
		return actor, err
	}
	if h.roles == nil {
		return actor, nil
	}
	role, err := h.roles.Role(r.Context(), actor.ID)
	if err != nil {
		return actor, err
	}
	if role != model.RoleTechnician {
		return actor, apperrors.Forbidden("Only technicians can accept jobs")
	}
	return actor, nil
}

func (h *JobHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/jobs", h.Create)
	router.GET("/api/v1/jobs/open", h.ListOpen)
	router.GET("/api/v1/jobs/assigned", h.ListAssigned)
	router.GET("/api/v1/jobs/requested", h.ListRequested)
	router.GET("/api/v1/jobs/id/:id", h.GetByID)
	router.POST("/api/v1/jobs/id/:id/accept", h.Accept)
	router.POST("/api/v1/jobs/id/:id/release", h.Release)
	router.PUT("/api/v1/jobs/id/:id/status", h.UpdateStatus)
}
