package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func response(status int, body string) *Response {
	return &Response{
		Response: &http.Response{StatusCode: status},
		Body:     []byte(body),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		resp    *Response
		err     error
		outcome Outcome
		message string
	}{
		{"transport error", nil, errors.New("dial tcp 10.0.0.1:443: connect: connection refused"), NetworkFailure, ""},
		{"bad gateway", response(502, "<html>"), nil, NetworkFailure, "Bad Gateway"},
		{"service unavailable", response(503, ""), nil, NetworkFailure, "Service Unavailable"},
		{"gateway timeout", response(504, ""), nil, NetworkFailure, "Gateway Timeout"},
		{"validation rejection", response(400, `{"success":false,"message":"Slot already taken"}`), nil, BusinessFailure, "Slot already taken"},
		{"not found", response(404, `{"error":"job not found"}`), nil, BusinessFailure, "job not found"},
		{"internal server error", response(500, `{"message":"boom"}`), nil, BusinessFailure, "boom"},
		{"success flag false on 200", response(200, `{"success":false,"message":"Technician unavailable"}`), nil, BusinessFailure, "Technician unavailable"},
		{"envelope success", response(201, `{"success":true,"data":{"id":"42"}}`), nil, Success, ""},
		{"bare object success", response(200, `{"id":"42"}`), nil, Success, ""},
		{"encode failure", nil, fmt.Errorf("%w: json: unsupported type", ErrEncodeBody), BusinessFailure, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.resp, tt.err)
			assert.Equal(t, tt.outcome, got.Outcome)
			if tt.message != "" {
				assert.Equal(t, tt.message, got.Message)
			}
		})
	}
}

func TestClassify_DataAndID(t *testing.T) {
	tests := []struct {
		name string
		body string
		id   string
	}{
		{"envelope string id", `{"success":true,"data":{"id":"j-1","status":"Pending"}}`, "j-1"},
		{"envelope mongo id", `{"data":{"_id":"6650f1"}}`, "6650f1"},
		{"numeric id", `{"success":true,"data":{"id":17}}`, "17"},
		{"bare object", `{"id":"t-9","name":"Ana"}`, "t-9"},
		{"null data", `{"success":true,"data":null}`, ""},
		{"empty body", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(response(http.StatusOK, tt.body), nil)
			assert.Equal(t, Success, got.Outcome)
			assert.Equal(t, tt.id, got.ID())
		})
	}
}

func TestDecodeData_Array(t *testing.T) {
	assert.JSONEq(t, `[{"id":"1"}]`, string(DecodeData([]byte(`{"success":true,"data":[{"id":"1"}]}`))))
	assert.JSONEq(t, `[{"id":"1"}]`, string(DecodeData([]byte(`[{"id":"1"}]`))))
}

func TestResult_NotFound(t *testing.T) {
	assert.True(t, Classify(response(404, `{}`), nil).NotFound())
	assert.False(t, Classify(response(400, `{}`), nil).NotFound())
	assert.False(t, Classify(nil, errors.New("timeout")).NotFound())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "business_failure", BusinessFailure.String())
	assert.Equal(t, "network_failure", NetworkFailure.String())
}
