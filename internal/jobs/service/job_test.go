package service

import (
	"context"
	"testing"

	"motorhub/internal/dualwrite"
	"motorhub/internal/events"
	"motorhub/internal/jobs"
	"motorhub/pkg/docstore"
	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestJobService_Create(t *testing.T) {
	f := newFixture(t)

	res, err := f.jobs.Create(context.Background(), owner, newJob())
	require.NoError(t, err)

	assert.Equal(t, dualwrite.ModeSynced, res.Mode)
	assert.Equal(t, "rest-1", res.Job.ID)
	assert.Equal(t, "rest-1", res.Job.RestRef)
	assert.Equal(t, owner.ID, res.Job.RequesterID)
	assert.Equal(t, model.StatusPending, res.Job.Status)
	assert.Equal(t, "Dana Levi", res.Job.CustomerName)
	assert.Equal(t, "+972544567890", res.Job.ContactNumber)
	assert.False(t, res.Job.NeedsSync)

	assert.Equal(t, "owner-1", f.backend.get("rest-1")["requester_id"])
	_, ok := f.events.find(events.JobCreated)
	assert.True(t, ok)
}

func TestJobService_Create_Offline(t *testing.T) {
	f := newFixture(t)
	f.backend.setDown(true)

	res, err := f.jobs.Create(context.Background(), owner, newJob())
	require.NoError(t, err)

	assert.True(t, res.Degraded())
	assert.Equal(t, dualwrite.NoticeSavedOffline, res.Notice)
	assert.Equal(t, "local-1", res.Job.ID)
	assert.Empty(t, res.Job.RestRef)
	assert.True(t, res.Job.NeedsSync)

	fields, ok := f.store.Fields(docstore.CollectionJobs, "local-1")
	require.True(t, ok)
	assert.Equal(t, true, fields[docstore.FieldNeedsSync])
}

func TestJobService_Create_Invalid(t *testing.T) {
	f := newFixture(t)
	job := newJob()
	job.Vehicle = ""

	_, err := f.jobs.Create(context.Background(), owner, job)
	require.Error(t, err)
	assert.Equal(t, []string{"vehicle"}, apperrors.AsAppError(err).Details["missing_fields"])
	assert.Zero(t, f.backend.requests())
}

func TestJobService_AcceptAndRelease(t *testing.T) {
	f := newFixture(t)
	f.backend.put(openJob("rest-1"))
	ctx := context.Background()

	accepted, err := f.jobs.Accept(ctx, technician, "rest-1")
	require.NoError(t, err)
	assert.Equal(t, technician.ID, accepted.Job.AssignedProviderID)
	assert.Equal(t, model.StatusInProgress, accepted.Job.Status)
	assert.NotNil(t, accepted.Job.StartedAt)
	assert.Equal(t, "tech-1", f.backend.get("rest-1")["assigned_provider_id"])
	assert.Equal(t, "In Progress", f.backend.get("rest-1")["status"])

	e, ok := f.events.find(events.JobAccepted)
	require.True(t, ok)
	assert.Equal(t, []string{owner.ID}, e.Recipients)

	released, err := f.jobs.Release(ctx, technician, "rest-1")
	require.NoError(t, err)
	assert.Empty(t, released.Job.AssignedProviderID)
	assert.Equal(t, model.StatusPending, released.Job.Status)
	rec := f.backend.get("rest-1")
	require.Contains(t, rec, "assigned_provider_id")
	assert.Nil(t, rec["assigned_provider_id"])
	assert.Equal(t, "Pending", f.backend.get("rest-1")["status"])
}

func TestJobService_Release_ByOtherProvider(t *testing.T) {
	f := newFixture(t)
	f.backend.put(openJob("rest-1"))
	ctx := context.Background()

	_, err := f.jobs.Accept(ctx, technician, "rest-1")
	require.NoError(t, err)

	res, err := f.jobs.Release(ctx, other, "rest-1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	require.NotNil(t, res)
	assert.Equal(t, technician.ID, res.Job.AssignedProviderID)
	assert.Equal(t, model.StatusInProgress, res.Job.Status)
	assert.Equal(t, "tech-1", f.backend.get("rest-1")["assigned_provider_id"])
}

func TestJobService_Accept_AlreadyTaken(t *testing.T) {
	f := newFixture(t)
	f.backend.put(openJob("rest-1"))
	ctx := context.Background()

	_, err := f.jobs.Accept(ctx, technician, "rest-1")
	require.NoError(t, err)

	res, err := f.jobs.Accept(ctx, other, "rest-1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, technician.ID, res.Job.AssignedProviderID)
}

func TestJobService_Accept_RejectedByBackend(t *testing.T) {
	f := newFixture(t)
	f.backend.put(openJob("rest-1"))
	f.backend.setReject("Technician is not verified")

	res, err := f.jobs.Accept(context.Background(), technician, "rest-1")
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeBusinessRejected, appErr.Code)
	assert.Equal(t, "Technician is not verified", appErr.Message)

	assert.Empty(t, res.Job.AssignedProviderID)
	assert.Equal(t, model.StatusPending, res.Job.Status)
	assert.Zero(t, f.store.Len(docstore.CollectionJobs))
}

func TestJobService_Accept_Offline(t *testing.T) {
	f := newFixture(t)
	job := openJob("rest-1")
	job.RestRef = "rest-1"
	f.store.Put(docstore.CollectionJobs, "rest-1", job)
	f.backend.setDown(true)

	res, err := f.jobs.Accept(context.Background(), technician, "rest-1")
	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Equal(t, "rest-1", res.Job.ID)
	assert.Equal(t, "rest-1", res.Job.RestRef)

	fields, ok := f.store.Fields(docstore.CollectionJobs, "rest-1")
	require.True(t, ok)
	assert.Equal(t, "tech-1", fields["assigned_provider_id"])
	assert.Equal(t, true, fields[docstore.FieldNeedsSync])
	assert.Equal(t, 1, f.store.Len(docstore.CollectionJobs))
}

func TestJobService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	f.backend.put(openJob("rest-1"))
	ctx := context.Background()

	_, err := f.jobs.Accept(ctx, technician, "rest-1")
	require.NoError(t, err)

	res, err := f.jobs.UpdateStatus(ctx, technician, "rest-1", "completed")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Job.Status)
	assert.NotNil(t, res.Job.CompletedAt)
	assert.Equal(t, "Completed", f.backend.get("rest-1")["status"])

	_, err = f.jobs.UpdateStatus(ctx, technician, "rest-1", "on hold")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.jobs.UpdateStatus(ctx, other, "rest-1", "pending")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestJobService_ListViews(t *testing.T) {
	f := newFixture(t)
	open := openJob("rest-1")
	taken := openJob("rest-2")
	taken.AssignedProviderID = technician.ID
	taken.Status = model.StatusInProgress
	taken.ServiceType = "Tire rotation"
	taken.Message = "Rotate all four"
	booking := openJob("rest-3")
	booking.ServiceCenterID = center.ID
	f.backend.put(open)
	f.backend.put(taken)
	f.backend.put(booking)
	ctx := context.Background()

	list, err := f.jobs.ListOpen(ctx, jobs.Criteria{})
	require.NoError(t, err)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "rest-1", list.Jobs[0].ID)

	list, err = f.jobs.ListAssigned(ctx, technician.ID, jobs.Criteria{Status: "in_progress"})
	require.NoError(t, err)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "rest-2", list.Jobs[0].ID)

	list, err = f.jobs.ListAssigned(ctx, technician.ID, jobs.Criteria{Search: "brake"})
	require.NoError(t, err)
	assert.Empty(t, list.Jobs)
}

func TestJobService_ListOpen_Offline(t *testing.T) {
	f := newFixture(t)
	f.store.Put(docstore.CollectionJobs, "local-9", openJob("local-9"))
	f.backend.setDown(true)

	list, err := f.jobs.ListOpen(context.Background(), jobs.Criteria{Status: jobs.StatusAll})
	require.NoError(t, err)
	assert.Equal(t, dualwrite.NoticeWorkingOffline, list.Notice)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "local-9", list.Jobs[0].ID)
}

func TestJobService_ListOpen_IncludesPending(t *testing.T) {
	f := newFixture(t)
	f.backend.put(openJob("rest-1"))
	pending := openJob("local-1")
	pending.NeedsSync = true
	f.store.Put(docstore.CollectionJobs, "local-1", pending)

	list, err := f.jobs.ListOpen(context.Background(), jobs.Criteria{})
	require.NoError(t, err)
	assert.Len(t, list.Jobs, 2)
	assert.Empty(t, list.Notice)
}

func TestJobService_RecordWithoutStatusIsOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.putRaw("rest-7", map[string]any{
		"requester_id":   owner.ID,
		"customer_name":  "Dana Levi",
		"contact_number": "+972544567890",
		"vehicle":        "Mazda 3",
		"service_type":   "Brakes",
	})

	list, err := f.jobs.ListOpen(ctx, jobs.Criteria{})
	require.NoError(t, err)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, model.StatusPending, list.Jobs[0].Status)

	res, err := f.jobs.Accept(ctx, technician, "rest-7")
	require.NoError(t, err)
	assert.Equal(t, technician.ID, res.Job.AssignedProviderID)
	assert.Equal(t, model.StatusInProgress, res.Job.Status)
}

func TestJobService_StoredRecordWithoutStatusIsOpen(t *testing.T) {
	f := newFixture(t)
	f.backend.setDown(true)
	f.store.Put(docstore.CollectionJobs, "local-3", bson.M{
		"requester_id":          owner.ID,
		"assigned_provider_id":  "",
		"customer_name":         "Dana Levi",
		docstore.FieldNeedsSync: true,
	})

	list, err := f.jobs.ListOpen(context.Background(), jobs.Criteria{})
	require.NoError(t, err)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, model.StatusPending, list.Jobs[0].Status)
}

func TestJobService_Get_Empty(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.jobs.GetByID(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
