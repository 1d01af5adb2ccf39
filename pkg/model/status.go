package model

import (
	"encoding/json"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Status is the canonical lifecycle state of a booking or job.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusConfirmed  Status = "Confirmed"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

var statusAliases = map[string]Status{
	"pending":     StatusPending,
	"confirmed":   StatusConfirmed,
	"in progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"completed":   StatusCompleted,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
}

// ParseStatus matches raw against the canonical values ignoring case,
// surrounding whitespace and '_'/'-' separators.
func ParseStatus(raw string) (Status, bool) {
	key := strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, strings.ToLower(raw))
	key = strings.Join(strings.Fields(key), " ")

	s, ok := statusAliases[key]
	return s, ok
}

// NormalizeStatus returns the canonical status for raw. Unknown input is
// Pending.
func NormalizeStatus(raw string) Status {
	if s, ok := ParseStatus(raw); ok {
		return s
	}
	return StatusPending
}

// Valid reports whether s is already in canonical form.
func (s Status) Valid() bool {
	return s != "" && NormalizeStatus(string(s)) == s
}

// Badge is the display color for the status.
func (s Status) Badge() string {
	switch NormalizeStatus(string(s)) {
	case StatusConfirmed:
		return "info"
	case StatusInProgress:
		return "primary"
	case StatusCompleted:
		return "success"
	case StatusCancelled:
		return "danger"
	default:
		return "warning"
	}
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = StatusPending
		return nil
	}
	*s = NormalizeStatus(*raw)
	return nil
}

func (s *Status) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*s = StatusPending
		return nil
	}
	raw, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		*s = StatusPending
		return nil
	}
	*s = NormalizeStatus(raw)
	return nil
}
