package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"pending", StatusPending},
		{"Pending", StatusPending},
		{"PENDING", StatusPending},
		{"confirmed", StatusConfirmed},
		{"Confirmed", StatusConfirmed},
		{"in progress", StatusInProgress},
		{"In Progress", StatusInProgress},
		{"in_progress", StatusInProgress},
		{"IN-PROGRESS", StatusInProgress},
		{"  in   progress ", StatusInProgress},
		{"InProgress", StatusInProgress},
		{"completed", StatusCompleted},
		{"Completed", StatusCompleted},
		{"cancelled", StatusCancelled},
		{"Cancelled", StatusCancelled},
		{"canceled", StatusCancelled},
		{"", StatusPending},
		{"accepted", StatusPending},
		{"done!", StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizeStatus(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, Statuses, got)
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	_, ok := ParseStatus("shipped")
	assert.False(t, ok)
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatus_Badge(t *testing.T) {
	assert.Equal(t, "warning", StatusPending.Badge())
	assert.Equal(t, "info", StatusConfirmed.Badge())
	assert.Equal(t, "primary", Status("in progress").Badge())
	assert.Equal(t, "success", StatusCompleted.Badge())
	assert.Equal(t, "danger", Status("CANCELLED").Badge())
	assert.Equal(t, "warning", Status("mystery").Badge())
}

func TestStatus_JSONDecodeNormalizes(t *testing.T) {
	var rec struct {
		Status Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"in_progress"}`), &rec))
	assert.Equal(t, StatusInProgress, rec.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"status":null}`), &rec))
	assert.Equal(t, StatusPending, rec.Status)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Pending"}`, string(out))
}

func TestStatus_BSONDecodeNormalizes(t *testing.T) {
	type doc struct {
		Status Status `bson:"status"`
	}

	tests := []struct {
		name string
		in   bson.M
		want Status
	}{
		{"lowercase", bson.M{"status": "completed"}, StatusCompleted},
		{"mixed", bson.M{"status": "In progress"}, StatusInProgress},
		{"null", bson.M{"status": nil}, StatusPending},
		{"wrong type", bson.M{"status": 3}, StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(tt.in)
			require.NoError(t, err)

			var d doc
			require.NoError(t, bson.Unmarshal(raw, &d))
			assert.Equal(t, tt.want, d.Status)
		})
	}
}
