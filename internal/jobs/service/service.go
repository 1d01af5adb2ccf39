package service

import (
	"context"
	"errors"

	"motorhub/internal/dualwrite"
	"motorhub/internal/events"
	"motorhub/internal/jobs"
	"motorhub/internal/jobs/repository"
	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"
	"motorhub/pkg/sanitizer"
)

// Result is the outcome of a write. On failure Job is the record as it was
// before the attempt.
type Result struct {
	Job    *model.Job
	Mode   dualwrite.Mode
	Notice string
}

func (r *Result) Degraded() bool {
	return r != nil && r.Mode == dualwrite.ModeDegraded
}

type List struct {
	Jobs   []*model.Job
	Notice string
}

// base holds what job and booking services share.
type base struct {
	name       string
	collection string
	repo       repository.JobRepository
	events     events.Publisher
	phones     *sanitizer.Phones
	log        *logger.Logger
}

func (b *base) load(ctx context.Context, id string) (*model.Job, string, error) {
	if id == "" {
		return nil, "", apperrors.InvalidInput(b.name + " ID cannot be empty")
	}
	view, err := b.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return view.Item, view.Notice, nil
}

// transition applies change to a copy of the stored record and writes the
// copy. The stored record is returned untouched if either step fails.
func (b *base) transition(ctx context.Context, actor model.Identity, id string, op dualwrite.Op,
	change func(model.Job) (model.Job, error), patch func(model.Job) any, event string,
) (*Result, error) {
	current, _, err := b.load(ctx, id)
	if err != nil {
		return nil, err
	}
	original := *current

	next, err := change(original)
	if err != nil {
		return &Result{Job: &original}, translate(err)
	}
	next.UpdatedAt = b.repo.Now()

	var body any
	if patch != nil {
		body = patch(next)
	}
	ack, err := b.repo.Save(ctx, dualwrite.Request{
		Op:         op,
		ID:         next.ID,
		RestID:     next.RestRef,
		Record:     &next,
		Patch:      body,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		Recipients: recipients(&next, actor.ID),
	})
	if err != nil {
		b.log.Warn("Write failed, keeping previous state",
			"kind", b.name,
			"id", id,
			"event", event,
			"error", err,
		)
		return &Result{Job: &original}, err
	}

	reconcile(&next, ack)
	events.Emit(ctx, b.events, b.log, events.Event{
		Type:       event,
		RecordID:   next.ID,
		RestRef:    next.RestRef,
		Collection: b.collection,
		ActorID:    actor.ID,
		Recipients: recipients(&next, actor.ID),
		Status:     string(next.Status),
		Notice:     ack.Notice,
		OccurredAt: next.UpdatedAt,
	})
	return &Result{Job: &next, Mode: ack.Mode, Notice: ack.Notice}, nil
}

func (b *base) create(ctx context.Context, actor model.Identity, job *model.Job, event string) (*Result, error) {
	now := b.repo.Now()
	job.ID = ""
	job.RestRef = ""
	job.RequesterID = actor.ID
	job.Status = model.StatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	ack, err := b.repo.Save(ctx, dualwrite.Request{
		Op:         dualwrite.OpCreate,
		Record:     job,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
	})
	if err != nil {
		return nil, err
	}
	reconcile(job, ack)

	b.log.Info(b.name+" created",
		"id", job.ID,
		"rest_ref", job.RestRef,
		"mode", ack.Mode,
	)
	events.Emit(ctx, b.events, b.log, events.Event{
		Type:       event,
		RecordID:   job.ID,
		RestRef:    job.RestRef,
		Collection: b.collection,
		ActorID:    actor.ID,
		Recipients: recipients(job, actor.ID),
		Status:     string(job.Status),
		Notice:     ack.Notice,
		OccurredAt: now,
	})
	return &Result{Job: job, Mode: ack.Mode, Notice: ack.Notice}, nil
}

func (b *base) sanitize(job *model.Job) {
	job.CustomerName = sanitizer.NormalizeName(job.CustomerName)
	job.Vehicle = sanitizer.TrimAndNormalize(job.Vehicle)
	job.ServiceType = sanitizer.TrimAndNormalize(job.ServiceType)
	job.Message = sanitizer.TrimAndNormalize(job.Message)
	if phone := b.phones.Normalize(job.ContactNumber); phone != "" {
		job.ContactNumber = phone
	}
}

func reconcile(job *model.Job, ack *dualwrite.Ack) {
	job.ID = ack.ID
	if ack.RestID != "" {
		job.RestRef = ack.RestID
	}
	job.NeedsSync = ack.Degraded()
}

// recipients are the parties of a job other than the actor.
func recipients(job *model.Job, actorID string) []string {
	var out []string
	for _, id := range []string{job.RequesterID, job.AssignedProviderID, job.ServiceCenterID} {
		if id != "" && id != actorID {
			out = append(out, id)
		}
	}
	return out
}

func translate(err error) error {
	switch {
	case errors.Is(err, jobs.ErrAlreadyAssigned):
		return apperrors.Conflict("This job has already been taken by another technician")
	case errors.Is(err, jobs.ErrNotOpen):
		return apperrors.Conflict("This job is no longer open")
	case errors.Is(err, jobs.ErrNotAssignee):
		return apperrors.Forbidden("Only the assigned technician can change this job")
	case errors.Is(err, jobs.ErrNotParty):
		return apperrors.Forbidden("You do not have access to this booking")
	case errors.Is(err, jobs.ErrNotServiceCenter):
		return apperrors.Forbidden("Only the service center can change the booking status")
	case errors.Is(err, jobs.ErrCostByServiceCenter):
		return apperrors.Forbidden("Only the service center can set the booking cost")
	case errors.Is(err, jobs.ErrInvalidStatus):
		return apperrors.Validation("Unknown status", map[string]any{"allowed": model.Statuses})
	default:
		return err
	}
}
