package model

import (
	"encoding/json"
	"time"
)

// Job is a single requested service engagement. Marketplace jobs and
// service-center bookings share the shape; bookings carry ServiceCenterID.
//
// AssignedProviderID is "" while the job is unassigned. It is never omitted
// from documents so that a release clears it on merge. On the wire an
// unassigned job carries null.
type Job struct {
	ID                 string     `json:"id,omitempty" bson:"_id,omitempty"`
	RequesterID        string     `json:"requester_id" bson:"requester_id"`
	AssignedProviderID string     `json:"assigned_provider_id" bson:"assigned_provider_id"`
	ServiceCenterID    string     `json:"service_center_id,omitempty" bson:"service_center_id,omitempty"`
	CustomerName       string     `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	ContactNumber      string     `json:"contact_number" bson:"contact_number" validate:"required,phone"`
	Vehicle            string     `json:"vehicle" bson:"vehicle" validate:"required,max=200"`
	ServiceType        string     `json:"service_type" bson:"service_type" validate:"required,max=100"`
	Message            string     `json:"message,omitempty" bson:"message,omitempty" validate:"max=2000"`
	Status             Status     `json:"status" bson:"status"`
	ScheduledAt        time.Time  `json:"scheduled_at" bson:"scheduled_at" validate:"required"`
	Cost               float64    `json:"cost" bson:"cost" validate:"min=0"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
	StartedAt          *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	NeedsSync          bool       `json:"needs_sync" bson:"needs_sync"`
	RestRef            string     `json:"rest_ref,omitempty" bson:"rest_ref,omitempty"`
}

// JobUpdate is a partial edit of a booking. Nil fields are left unchanged.
type JobUpdate struct {
	CustomerName  *string    `json:"customer_name,omitempty" validate:"omitempty,min=2,max=100"`
	ContactNumber *string    `json:"contact_number,omitempty" validate:"omitempty,phone"`
	Vehicle       *string    `json:"vehicle,omitempty" validate:"omitempty,max=200"`
	ServiceType   *string    `json:"service_type,omitempty" validate:"omitempty,max=100"`
	Message       *string    `json:"message,omitempty" validate:"omitempty,max=2000"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	Cost          *float64   `json:"cost,omitempty" validate:"omitempty,min=0"`
}

type jobFields Job

// MarshalJSON writes an empty AssignedProviderID as null.
func (j Job) MarshalJSON() ([]byte, error) {
	var assigned *string
	if j.AssignedProviderID != "" {
		assigned = &j.AssignedProviderID
	}
	return json.Marshal(struct {
		jobFields
		AssignedProviderID *string `json:"assigned_provider_id"`
	}{jobFields(j), assigned})
}

// UnmarshalJSON reads a null AssignedProviderID as "".
func (j *Job) UnmarshalJSON(data []byte) error {
	wire := struct {
		jobFields
		AssignedProviderID *string `json:"assigned_provider_id"`
	}{jobFields: jobFields(*j)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*j = Job(wire.jobFields)
	j.AssignedProviderID = ""
	if wire.AssignedProviderID != nil {
		j.AssignedProviderID = *wire.AssignedProviderID
	}
	return nil
}

// Assigned reports whether a provider holds the job.
func (j *Job) Assigned() bool {
	return j.AssignedProviderID != ""
}

// StatusChange is the body of a status update request.
type StatusChange struct {
	Status string `json:"status" validate:"required"`
}
