package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"motorhub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourcePath(t *testing.T) {
	assert.Equal(t, "/api/jobs", ResourcePath(ResourceJobs, ""))
	assert.Equal(t, "/api/jobs/j%2F1", ResourcePath(ResourceJobs, "j/1"))
	assert.Equal(t, "/api/technicians/t1/availability", ResourcePath(ResourceTechnicians, "t1", "availability"))
}

func TestResourceClient_Requests(t *testing.T) {
	type seen struct {
		method, path, idem, contentType string
		body                            map[string]any
	}
	var got seen

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = seen{
			method:      r.Method,
			path:        r.URL.EscapedPath(),
			idem:        r.Header.Get(IdempotencyKeyHeader),
			contentType: r.Header.Get("Content-Type"),
		}
		got.body = nil
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"x"}}`))
	}))
	defer srv.Close()

	b := NewBackend(BackendConfig{BaseURL: srv.URL + "/", RequestTimeout: time.Second}, logger.Discard())
	ctx := context.Background()

	t.Run("create with idempotency key", func(t *testing.T) {
		resp, err := b.Jobs.Create(ctx, map[string]string{"vehicle": "Civic"}, "logical-1")
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, got.method)
		assert.Equal(t, "/api/jobs", got.path)
		assert.Equal(t, "logical-1", got.idem)
		assert.Equal(t, "application/json", got.contentType)
		assert.Equal(t, "Civic", got.body["vehicle"])
		assert.Equal(t, "x", Classify(resp, nil).ID())
	})

	t.Run("create without key", func(t *testing.T) {
		_, err := b.Jobs.Create(ctx, map[string]string{}, "")
		require.NoError(t, err)
		assert.Empty(t, got.idem)
	})

	t.Run("status update", func(t *testing.T) {
		_, err := b.Jobs.UpdateStatus(ctx, "j1", map[string]string{"status": "Completed"})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, got.method)
		assert.Equal(t, "/api/jobs/j1/status", got.path)
	})

	t.Run("availability update", func(t *testing.T) {
		_, err := b.Resource(ResourceTechnicians).UpdateAvailability(ctx, "t1", map[string]bool{"available": false})
		require.NoError(t, err)
		assert.Equal(t, "/api/technicians/t1/availability", got.path)
	})

	t.Run("by user", func(t *testing.T) {
		_, err := b.ServiceCenters.GetByUser(ctx, "auth0|abc")
		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, got.method)
		assert.Equal(t, "/api/service-centers/user/auth0%7Cabc", got.path)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := b.Resource("spare-parts").Delete(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, http.MethodDelete, got.method)
		assert.Equal(t, "/api/spare-parts/p1", got.path)
	})
}

func TestHttpClient_EncodeFailure(t *testing.T) {
	c := NewHttpClient("http://127.0.0.1:1", time.Second)
	_, err := c.POST(context.Background(), "/api/jobs", map[string]any{"bad": make(chan int)}, nil)
	require.ErrorIs(t, err, ErrEncodeBody)
	assert.Equal(t, BusinessFailure, Classify(nil, err).Outcome)
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "nope", GetErrorMessage(response(400, `{"message":"nope"}`)))
	assert.Equal(t, "bad", GetErrorMessage(response(400, `{"error":"bad"}`)))
	assert.Equal(t, "E42", GetErrorMessage(response(400, `{"code":"E42"}`)))
	assert.Equal(t, "plain text", GetErrorMessage(response(400, "plain text\n")))
}
