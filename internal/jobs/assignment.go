// Package jobs holds the marketplace assignment rules and the list-view
// filters shared by jobs and bookings.
package jobs

import (
	"errors"
	"time"

	"motorhub/pkg/model"
)

var (
	ErrAlreadyAssigned = errors.New("job is already assigned to another provider")
	ErrNotAssignee     = errors.New("only the assigned provider can change this job")
	ErrNotOpen         = errors.New("job is no longer open")
	ErrInvalidStatus   = errors.New("unknown status")

	ErrNotParty            = errors.New("only the requester or the service center can change this booking")
	ErrNotServiceCenter    = errors.New("only the booked service center can change the status")
	ErrCostByServiceCenter = errors.New("only the booked service center can set the cost")
)

// Accept assigns an open job to identityID and starts it. Accepting a job
// the caller already holds changes nothing.
func Accept(job model.Job, identityID string, at time.Time) (model.Job, error) {
	switch {
	case job.AssignedProviderID == identityID:
		return job, nil
	case job.Assigned():
		return job, ErrAlreadyAssigned
	case job.Status != model.StatusPending && job.Status != model.StatusConfirmed:
		return job, ErrNotOpen
	}

	started := at
	job.AssignedProviderID = identityID
	job.Status = model.StatusInProgress
	job.StartedAt = &started
	job.CompletedAt = nil
	return job, nil
}

// Release returns the job to the marketplace.
func Release(job model.Job, identityID string) (model.Job, error) {
	if !job.Assigned() || job.AssignedProviderID != identityID {
		return job, ErrNotAssignee
	}

	job.AssignedProviderID = ""
	job.Status = model.StatusPending
	job.StartedAt = nil
	job.CompletedAt = nil
	return job, nil
}

// UpdateStatus moves an assigned job to another status. The provider keeps
// the job.
func UpdateStatus(job model.Job, identityID, raw string, at time.Time) (model.Job, error) {
	if !job.Assigned() || job.AssignedProviderID != identityID {
		return job, ErrNotAssignee
	}
	status, ok := model.ParseStatus(raw)
	if !ok {
		return job, ErrInvalidStatus
	}
	return applyStatus(job, status, at), nil
}

// applyStatus sets status and the timestamps that go with it.
func applyStatus(job model.Job, status model.Status, at time.Time) model.Job {
	job.Status = status
	switch status {
	case model.StatusInProgress:
		if job.StartedAt == nil {
			started := at
			job.StartedAt = &started
		}
		job.CompletedAt = nil
	case model.StatusCompleted:
		completed := at
		job.CompletedAt = &completed
	case model.StatusPending, model.StatusConfirmed:
		job.CompletedAt = nil
	}
	return job
}

// SetStatus applies a status without assignment checks. Used for bookings,
// which service centers manage directly.
func SetStatus(job model.Job, raw string, at time.Time) (model.Job, error) {
	status, ok := model.ParseStatus(raw)
	if !ok {
		return job, ErrInvalidStatus
	}
	return applyStatus(job, status, at), nil
}
