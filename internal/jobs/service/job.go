package service

import (
	"context"
	"sort"

	"motorhub/internal/dualwrite"
	"motorhub/internal/events"
	"motorhub/internal/jobs"
	"motorhub/internal/jobs/repository"
	"motorhub/internal/jobs/validator"
	"motorhub/pkg/docstore"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"
	"motorhub/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
)

// JobService runs the marketplace: owners post jobs, technicians accept,
// release and progress them.
type JobService interface {
	Create(ctx context.Context, actor model.Identity, job *model.Job) (*Result, error)
	GetByID(ctx context.Context, id string) (*model.Job, string, error)
	ListOpen(ctx context.Context, c jobs.Criteria) (*List, error)
	ListAssigned(ctx context.Context, providerID string, c jobs.Criteria) (*List, error)
	ListRequested(ctx context.Context, requesterID string, c jobs.Criteria) (*List, error)
	Accept(ctx context.Context, actor model.Identity, id string) (*Result, error)
	Release(ctx context.Context, actor model.Identity, id string) (*Result, error)
	UpdateStatus(ctx context.Context, actor model.Identity, id, status string) (*Result, error)
}

type jobService struct {
	base
	validator *validator.JobValidator
}

func NewJobService(
	repo repository.JobRepository,
	validator *validator.JobValidator,
	phones *sanitizer.Phones,
	publisher events.Publisher,
	log *logger.Logger,
) JobService {
	return &jobService{
		base: base{
			name:       "Job",
			collection: docstore.CollectionJobs,
			repo:       repo,
			events:     publisher,
			phones:     phones,
			log:        log,
		},
		validator: validator,
	}
}

func (s *jobService) Create(ctx context.Context, actor model.Identity, job *model.Job) (*Result, error) {
	s.sanitize(job)
	job.AssignedProviderID = ""
	job.ServiceCenterID = ""
	job.StartedAt = nil
	job.CompletedAt = nil

	if err := s.validator.Validate(job); err != nil {
		s.log.Warn("Job validation failed", "requester_id", actor.ID, "error", err)
		return nil, err
	}
	return s.create(ctx, actor, job, events.JobCreated)
}

func (s *jobService) GetByID(ctx context.Context, id string) (*model.Job, string, error) {
	return s.load(ctx, id)
}

func (s *jobService) ListOpen(ctx context.Context, c jobs.Criteria) (*List, error) {
	page, err := s.repo.List(ctx, dualwrite.ListQuery{
		Filter: bson.M{
			"assigned_provider_id": "",
			"service_center_id":    nil,
		},
		Sort: newestFirst(),
	})
	if err != nil {
		return nil, err
	}
	return finish(jobs.Open(page.Items), c, page.Notice), nil
}

func (s *jobService) ListAssigned(ctx context.Context, providerID string, c jobs.Criteria) (*List, error) {
	page, err := s.repo.List(ctx, dualwrite.ListQuery{
		Filter: bson.M{"assigned_provider_id": providerID},
		Sort:   newestFirst(),
	})
	if err != nil {
		return nil, err
	}
	items := jobs.Where(page.Items, func(j *model.Job) bool {
		return j.ServiceCenterID == "" && j.AssignedProviderID == providerID
	})
	return finish(items, c, page.Notice), nil
}

func (s *jobService) ListRequested(ctx context.Context, requesterID string, c jobs.Criteria) (*List, error) {
	page, err := s.repo.List(ctx, dualwrite.ListQuery{
		UserID: requesterID,
		Filter: bson.M{
			"requester_id":      requesterID,
			"service_center_id": nil,
		},
		Sort: newestFirst(),
	})
	if err != nil {
		return nil, err
	}
	items := jobs.Where(page.Items, func(j *model.Job) bool {
		return j.ServiceCenterID == "" && j.RequesterID == requesterID
	})
	return finish(items, c, page.Notice), nil
}

func (s *jobService) Accept(ctx context.Context, actor model.Identity, id string) (*Result, error) {
	at := s.repo.Now()
	return s.transition(ctx, actor, id, dualwrite.OpUpdate,
		func(j model.Job) (model.Job, error) { return jobs.Accept(j, actor.ID, at) },
		nil, events.JobAccepted)
}

func (s *jobService) Release(ctx context.Context, actor model.Identity, id string) (*Result, error) {
	return s.transition(ctx, actor, id, dualwrite.OpUpdate,
		func(j model.Job) (model.Job, error) { return jobs.Release(j, actor.ID) },
		nil, events.JobReleased)
}

func (s *jobService) UpdateStatus(ctx context.Context, actor model.Identity, id, status string) (*Result, error) {
	at := s.repo.Now()
	return s.transition(ctx, actor, id, dualwrite.OpUpdateStatus,
		func(j model.Job) (model.Job, error) { return jobs.UpdateStatus(j, actor.ID, status, at) },
		statusPatch, events.JobStatusChanged)
}

func statusPatch(j model.Job) any {
	return model.StatusChange{Status: string(j.Status)}
}

func newestFirst() docstore.FindOptions {
	return docstore.FindOptions{SortField: docstore.FieldCreatedAt, Descending: true}
}

// finish applies the view filter and orders newest first. Backend lists
// arrive in backend order with offline records appended.
func finish(items []*model.Job, c jobs.Criteria, notice string) *List {
	out := jobs.Filter(items, c)
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return &List{Jobs: out, Notice: notice}
}
