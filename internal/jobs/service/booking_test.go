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
)

func newBooking() *model.Job {
	b := newJob()
	b.ServiceCenterID = center.ID
	b.Cost = 250
	return b
}

func TestBookingService_Create(t *testing.T) {
	f := newFixture(t)

	res, err := f.bookings.Create(context.Background(), owner, newBooking())
	require.NoError(t, err)

	assert.Equal(t, dualwrite.ModeSynced, res.Mode)
	assert.Equal(t, "rest-1", res.Job.ID)
	assert.Equal(t, model.StatusPending, res.Job.Status)
	assert.Zero(t, res.Job.Cost)
	assert.Equal(t, center.ID, f.backend.get("rest-1")["service_center_id"])

	_, ok := f.store.Fields(docstore.CollectionBookings, "rest-1")
	assert.True(t, ok)
	assert.Zero(t, f.store.Len(docstore.CollectionJobs))

	e, ok := f.events.find(events.BookingCreated)
	require.True(t, ok)
	assert.Equal(t, []string{center.ID}, e.Recipients)
}

func TestBookingService_Create_MissingFields(t *testing.T) {
	f := newFixture(t)
	booking := newBooking()
	booking.CustomerName = "   "
	booking.ServiceCenterID = ""

	_, err := f.bookings.Create(context.Background(), owner, booking)
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, []string{"customer_name", "service_center_id"}, appErr.Details["missing_fields"])
	assert.Zero(t, f.backend.requests())
	assert.Zero(t, f.store.Calls["Upsert"])
}

func TestBookingService_Create_Offline(t *testing.T) {
	f := newFixture(t)
	f.backend.setDown(true)

	res, err := f.bookings.Create(context.Background(), owner, newBooking())
	require.NoError(t, err)
	assert.True(t, res.Degraded())

	fields, ok := f.store.Fields(docstore.CollectionBookings, res.Job.ID)
	require.True(t, ok)
	assert.Equal(t, true, fields[docstore.FieldNeedsSync])
	assert.Equal(t, "Pending", fields["status"])
}

func TestBookingService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.bookings.Create(ctx, owner, newBooking())
	require.NoError(t, err)

	_, err = f.bookings.UpdateStatus(ctx, owner, created.Job.ID, "confirmed")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	res, err := f.bookings.UpdateStatus(ctx, center, created.Job.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, res.Job.Status)
	assert.Equal(t, "Confirmed", f.backend.get(created.Job.ID)["status"])

	e, ok := f.events.find(events.BookingStatusChanged)
	require.True(t, ok)
	assert.Equal(t, []string{owner.ID}, e.Recipients)
}

func TestBookingService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.bookings.Create(ctx, owner, newBooking())
	require.NoError(t, err)

	vehicle := "  Toyota   Corolla "
	res, err := f.bookings.Update(ctx, owner, created.Job.ID, &model.JobUpdate{Vehicle: &vehicle})
	require.NoError(t, err)
	assert.Equal(t, "Toyota Corolla", res.Job.Vehicle)
	assert.Equal(t, "Toyota Corolla", f.backend.get(created.Job.ID)["vehicle"])

	_, err = f.bookings.Update(ctx, other, created.Job.ID, &model.JobUpdate{Vehicle: &vehicle})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	short := "x"
	_, err = f.bookings.Update(ctx, owner, created.Job.ID, &model.JobUpdate{CustomerName: &short})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestBookingService_Update_CostByServiceCenterOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.bookings.Create(ctx, owner, newBooking())
	require.NoError(t, err)

	cost := 10.0
	_, err = f.bookings.Update(ctx, owner, created.Job.ID, &model.JobUpdate{Cost: &cost})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.Equal(t, float64(0), f.backend.get(created.Job.ID)["cost"])

	cost = 480
	res, err := f.bookings.Update(ctx, center, created.Job.ID, &model.JobUpdate{Cost: &cost})
	require.NoError(t, err)
	assert.Equal(t, 480.0, res.Job.Cost)
	assert.Equal(t, 480.0, f.backend.get(created.Job.ID)["cost"])
}

func TestBookingService_GetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.bookings.Create(ctx, owner, newBooking())
	require.NoError(t, err)

	got, notice, err := f.bookings.GetByID(ctx, center, created.Job.ID)
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.Equal(t, owner.ID, got.RequesterID)

	_, _, err = f.bookings.GetByID(ctx, other, created.Job.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestBookingService_Lists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.bookings.Create(ctx, owner, newBooking())
	require.NoError(t, err)
	_, err = f.jobs.Create(ctx, owner, newJob())
	require.NoError(t, err)

	mine, err := f.bookings.ListByRequester(ctx, owner.ID, jobs.Criteria{})
	require.NoError(t, err)
	require.Len(t, mine.Jobs, 1)
	assert.Equal(t, center.ID, mine.Jobs[0].ServiceCenterID)

	incoming, err := f.bookings.ListByServiceCenter(ctx, center.ID, jobs.Criteria{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, incoming.Jobs, 1)

	none, err := f.bookings.ListByServiceCenter(ctx, "center-2", jobs.Criteria{})
	require.NoError(t, err)
	assert.Empty(t, none.Jobs)

	_, err = f.bookings.ListByRequester(ctx, "", jobs.Criteria{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
