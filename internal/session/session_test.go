package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"motorhub/pkg/logger"
	"motorhub/pkg/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRevocations(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := NewRedisRevocations(rdb)
	ctx := context.Background()

	revoked, err := r.Revoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "tok", time.Minute))
	revoked, err = r.Revoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = r.Revoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryRevocations_Expire(t *testing.T) {
	m := NewMemoryRevocations()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Revoke(ctx, "tok", time.Minute))
	revoked, _ := m.Revoked(ctx, "tok")
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = m.Revoked(ctx, "tok")
	assert.False(t, revoked)
}

func TestWatch_DispatchesUntilSignedOut(t *testing.T) {
	hub := NewHub()
	var signedIn []string
	signedOut := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- Watch(context.Background(), hub, "u1", Handlers{
			OnSignedIn:  func(id model.Identity) { signedIn = append(signedIn, id.Email) },
			OnSignedOut: func() { close(signedOut) },
		})
	}()

	require.Eventually(t, func() bool { return hub.Subscribers("u1") == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish("u1", &model.Identity{ID: "u1", Email: "a@example.com"})
	hub.Publish("u2", &model.Identity{ID: "u2", Email: "other@example.com"})
	hub.Publish("u1", nil)

	require.NoError(t, <-done)
	<-signedOut
	assert.Equal(t, []string{"a@example.com"}, signedIn)
	assert.Zero(t, hub.Subscribers("u1"))

	// After Watch returns nothing is listening.
	hub.Publish("u1", &model.Identity{ID: "u1"})
	assert.Len(t, signedIn, 1)
}

func TestWatch_ReleasesOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, hub, "u1", Handlers{})
	}()
	require.Eventually(t, func() bool { return hub.Subscribers("u1") == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, hub.Subscribers("u1"))
}

type gateFixture struct {
	gate  *Gate
	auth  *HMACAuthenticator
	token string
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	auth := NewHMACAuthenticator("test-secret")
	token, err := auth.Sign(model.Identity{ID: "u1", Email: "dana@example.com"}, time.Hour)
	require.NoError(t, err)
	return &gateFixture{
		gate:  NewGate(auth, NewMemoryRevocations(), NewHub(), logger.Discard()),
		auth:  auth,
		token: token,
	}
}

func TestGate_Require(t *testing.T) {
	f := newGateFixture(t)

	var seen *Session
	h := f.gate.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + f.token, http.StatusOK},
		{"lowercase scheme", "bearer " + f.token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + f.token, http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "u1", seen.Identity.ID)
				return
			}
			assert.Nil(t, seen)
			assert.Contains(t, w.Body.String(), `"redirect":"/login"`)
		})
	}
}

func TestGate_SignOutRevokes(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	s, err := f.gate.Authenticate(ctx, f.token)
	require.NoError(t, err)
	require.NoError(t, f.gate.SignOut(ctx, s))

	_, err = f.gate.Authenticate(ctx, f.token)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestStream_SignedInThenSignedOut(t *testing.T) {
	f := newGateFixture(t)
	router := httprouter.New()
	NewHandler(f.gate, nil, logger.Discard()).RegisterRoutes(router)
	srv := httptest.NewServer(f.gate.Require(router))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/session/stream?access_token=" + f.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg StateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, StateSignedIn, msg.State)
	require.NotNil(t, msg.Identity)
	assert.Equal(t, "u1", msg.Identity.ID)

	require.Eventually(t, func() bool { return f.gate.Hub().Subscribers("u1") == 1 }, time.Second, 5*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/session/sign-out", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, StateSignedOut, msg.State)
	assert.Equal(t, "/login", msg.Redirect)
}

func TestStream_RequiresToken(t *testing.T) {
	f := newGateFixture(t)
	router := httprouter.New()
	NewHandler(f.gate, nil, logger.Discard()).RegisterRoutes(router)
	srv := httptest.NewServer(f.gate.Require(router))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/session/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
