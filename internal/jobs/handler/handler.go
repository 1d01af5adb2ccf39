package handler

import (
	"context"
	"net/http"

	"motorhub/internal/jobs"
	"motorhub/internal/jobs/service"
	"motorhub/internal/session"
	apperrors "motorhub/pkg/errors"
	httputil "motorhub/pkg/http"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"
)

// RoleLookup tells handlers which profile variant the caller has.
type RoleLookup interface {
	Role(ctx context.Context, identityID string) (model.Role, error)
}

func caller(r *http.Request) (model.Identity, error) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return model.Identity{}, apperrors.Unauthenticated("Please sign in to continue")
	}
	return s.Identity, nil
}

func criteria(r *http.Request) jobs.Criteria {
	p := httputil.ExtractListParams(r)
	return jobs.Criteria{Status: p.Status, Search: p.Search}
}

func writeError(w http.ResponseWriter, log *logger.Logger, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// writeResult answers a write. Offline writes get 202 with the notice.
func writeResult(w http.ResponseWriter, log *logger.Logger, handler string, res *service.Result, created bool) {
	var err error
	switch {
	case res.Degraded():
		err = httputil.WriteAccepted(w, res.Job, res.Notice)
	case created:
		err = httputil.WriteCreated(w, res.Job, res.Notice)
	default:
		err = httputil.WriteSuccess(w, res.Job, res.Notice)
	}
	if err != nil {
		log.Error("failed to write response", "handler", handler, "operation", "WriteResult", "error", err)
	}
}

func writeList(w http.ResponseWriter, log *logger.Logger, handler string, list *service.List) {
	if err := httputil.WriteList(w, list.Jobs, len(list.Jobs), list.Notice); err != nil {
		log.Error("failed to write list response", "handler", handler, "operation", "WriteList", "error", err)
	}
}
