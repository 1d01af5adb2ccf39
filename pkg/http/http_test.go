package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "motorhub/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccess_WithNotice(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteSuccess(w, map[string]string{"id": "j1"}, "Working offline"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"j1"},"notice":"Working offline"}`, w.Body.String())
}

func TestWriteList_EmptyDataIsKept(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteList(w, []string{}, 0, ""))
	assert.JSONEq(t, `{"data":[],"count":0}`, w.Body.String())
}

func TestWriteError_UsesAppErrorStatus(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteError(w, apperrors.Conflict("Job already taken")))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeConflict, body.Code)
	assert.Equal(t, "Job already taken", body.Message)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"status":"Completed"}`, ""},
		{"empty", ``, "Request body is required"},
		{"malformed", `{"status":`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v struct {
				Status string `json:"status"`
			}
			err := DecodeJSON(r, &v)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Completed", v.Status)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, apperrors.AsAppError(err).Message)
		})
	}
}

func TestExtractListParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs?status=+in_progress+&search=brakes", nil)
	p := ExtractListParams(r)
	assert.Equal(t, "in_progress", p.Status)
	assert.Equal(t, "brakes", p.Search)
}
