package validation

import (
	"testing"
	"time"

	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validJob() *model.Job {
	return &model.Job{
		CustomerName:  "Dana Levi",
		ContactNumber: "+972544567890",
		Vehicle:       "Mazda 3",
		ServiceType:   "Oil change",
		ScheduledAt:   time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
	}
}

func TestStruct_Valid(t *testing.T) {
	v := New(nil, logger.Discard())
	assert.NoError(t, v.Struct(validJob()))
}

func TestStruct_MissingFieldsAreEnumerated(t *testing.T) {
	v := New(nil, logger.Discard())
	job := validJob()
	job.CustomerName = ""
	job.Vehicle = ""
	job.ScheduledAt = time.Time{}

	err := v.Struct(job)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, []string{"customer_name", "vehicle", "scheduled_at"}, appErr.Details["missing_fields"])
}

func TestStruct_InvalidPhone(t *testing.T) {
	v := New(nil, logger.Discard())
	job := validJob()
	job.ContactNumber = "12"

	err := v.Struct(job)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Nil(t, appErr.Details["missing_fields"])

	fields, ok := appErr.Details["fields"].([]FieldError)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "contact_number", fields[0].Field)
	assert.Equal(t, "contact_number must be a valid phone number", fields[0].Message)
}

func TestStruct_ProfileLengths(t *testing.T) {
	v := New(nil, logger.Discard())
	p := &model.TechnicianProfile{ProfileBase: model.ProfileBase{DisplayName: "A", Email: "not-an-email"}}

	appErr := apperrors.AsAppError(v.Struct(p))
	fields, ok := appErr.Details["fields"].([]FieldError)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"display_name", "email"}, []string{fields[0].Field, fields[1].Field})
}
