package session

import (
	"context"
	"net/http"
	"time"

	apperrors "motorhub/pkg/errors"
	httputil "motorhub/pkg/http"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

const (
	StateSignedIn  = "signed_in"
	StateSignedOut = "signed_out"
)

// StateMessage is one frame of the session stream.
type StateMessage struct {
	State    string          `json:"state"`
	Identity *model.Identity `json:"identity,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
}

type Handler struct {
	gate     *Gate
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler serves the session endpoints. allowedOrigins limits websocket
// handshakes; empty means same-origin only and "*" allows any origin.
func NewHandler(gate *Gate, allowedOrigins []string, log *logger.Logger) *Handler {
	return &Handler{
		gate: gate,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/session", h.Current)
	router.POST("/api/v1/session/sign-in", h.SignIn)
	router.POST("/api/v1/session/sign-out", h.SignOut)
	router.GET("/api/v1/session/stream", h.Stream)
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := FromContext(r.Context())
	if !ok {
		h.writeError(w, "Current", apperrors.Unauthenticated("Please sign in to continue"))
		return
	}
	if err := httputil.WriteSuccess(w, StateMessage{State: StateSignedIn, Identity: &s.Identity}, ""); err != nil {
		h.log.Error("failed to write success response", "handler", "Current", "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := FromContext(r.Context())
	if !ok {
		h.writeError(w, "SignIn", apperrors.Unauthenticated("Please sign in to continue"))
		return
	}
	h.gate.SignIn(s)
	if err := httputil.WriteSuccess(w, StateMessage{State: StateSignedIn, Identity: &s.Identity}, ""); err != nil {
		h.log.Error("failed to write success response", "handler", "SignIn", "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := FromContext(r.Context())
	if !ok {
		h.writeError(w, "SignOut", apperrors.Unauthenticated("Please sign in to continue"))
		return
	}
	if err := h.gate.SignOut(r.Context(), s); err != nil {
		h.writeError(w, "SignOut", apperrors.Internal("Failed to sign out", err))
		return
	}
	if err := httputil.WriteSuccess(w, StateMessage{State: StateSignedOut, Redirect: apperrors.LoginPath}, ""); err != nil {
		h.log.Error("failed to write success response", "handler", "SignOut", "operation", "WriteSuccess", "error", err)
	}
}

// Stream upgrades to a websocket and sends the identity's state changes
// until it signs out or the client goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := FromContext(r.Context())
	if !ok {
		h.writeError(w, "Stream", apperrors.Unauthenticated("Please sign in to continue"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "identity_id", s.Identity.ID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	go h.readLoop(conn, cancel)
	go h.pingLoop(ctx, conn, cancel)

	send := func(msg StateMessage) {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debug("Session stream write failed", "identity_id", s.Identity.ID, "error", err)
			cancel()
		}
	}

	identity := s.Identity
	send(StateMessage{State: StateSignedIn, Identity: &identity})

	err = Watch(ctx, h.gate.Hub(), s.Identity.ID, Handlers{
		OnSignedIn: func(id model.Identity) {
			send(StateMessage{State: StateSignedIn, Identity: &id})
		},
		OnSignedOut: func() {
			send(StateMessage{State: StateSignedOut, Redirect: apperrors.LoginPath})
		},
	})
	if err == nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, StateSignedOut),
			time.Now().Add(writeWait))
	}
	h.log.Debug("Session stream closed", "identity_id", s.Identity.ID)
}

// readLoop drains client frames so pongs are processed and a closed
// connection is noticed.
func (h *Handler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				cancel()
				return
			}
		}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		if set["*"] {
			return true
		}
		return set[r.Header.Get("Origin")]
	}
}
