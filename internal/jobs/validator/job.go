package validator

import (
	"time"

	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/model"
	"motorhub/pkg/validation"
)

// JobValidator checks job and booking forms before anything is sent.
type JobValidator struct {
	v   *validation.Validator
	now func() time.Time
}

func NewJobValidator(v *validation.Validator) *JobValidator {
	return &JobValidator{v: v, now: time.Now}
}

func (jv *JobValidator) Validate(job *model.Job) error {
	if err := jv.v.Struct(job); err != nil {
		return err
	}
	return jv.validateSchedule(job.ScheduledAt)
}

// ValidateBooking also requires the service center being booked.
func (jv *JobValidator) ValidateBooking(job *model.Job) error {
	var missing []string
	if err := jv.v.Struct(job); err != nil {
		appErr := apperrors.AsAppError(err)
		fields, ok := appErr.Details["missing_fields"].([]string)
		if !ok {
			return err
		}
		missing = fields
	}
	if job.ServiceCenterID == "" {
		missing = append(missing, "service_center_id")
	}
	if len(missing) > 0 {
		return apperrors.MissingFields(missing)
	}
	return jv.validateSchedule(job.ScheduledAt)
}

func (jv *JobValidator) ValidateUpdate(update *model.JobUpdate) error {
	if err := jv.v.Struct(update); err != nil {
		return err
	}
	if update.ScheduledAt != nil {
		return jv.validateSchedule(*update.ScheduledAt)
	}
	return nil
}

// Dates come from a date picker, so any time on the current day is allowed.
func (jv *JobValidator) validateSchedule(at time.Time) error {
	now := jv.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if at.UTC().Before(today) {
		return apperrors.Validation("Some fields are not valid", map[string]any{
			"fields": []validation.FieldError{{Field: "scheduled_at", Message: "scheduled_at cannot be in the past"}},
		})
	}
	return nil
}
