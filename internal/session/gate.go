package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "motorhub/pkg/errors"
	"motorhub/pkg/logger"

	"github.com/gorilla/websocket"
)

const accessTokenParam = "access_token"

// Gate admits requests that carry a valid, not signed-out bearer token.
type Gate struct {
	auth        Authenticator
	revocations Revocations
	hub         *Hub
	log         *logger.Logger
	revokeTTL   time.Duration
}

func NewGate(auth Authenticator, revocations Revocations, hub *Hub, log *logger.Logger) *Gate {
	if revocations == nil {
		revocations = NewMemoryRevocations()
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Gate{
		auth:        auth,
		revocations: revocations,
		hub:         hub,
		log:         log,
		revokeTTL:   DefaultRevocationTTL,
	}
}

func (g *Gate) Hub() *Hub {
	return g.hub
}

// Require rejects unauthenticated requests with 401 and a redirect to the
// login page. Admitted requests carry their Session in the context.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := g.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			g.log.Info("Request not signed in",
				"method", r.Method,
				"path", r.URL.Path,
				"reason", err.Error(),
			)
			apperrors.WriteError(w, apperrors.Unauthenticated("Please sign in to continue"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func (g *Gate) Authenticate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	revoked, err := g.revocations.Revoked(ctx, token)
	if err != nil {
		// The token is still verified below; an unreachable revocation
		// store does not sign everyone out.
		g.log.Warn("Failed to check token revocation", "error", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}

	identity, err := g.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Session{Identity: *identity, Token: token}, nil
}

// SignIn announces the identity to its open session streams.
func (g *Gate) SignIn(s *Session) {
	identity := s.Identity
	g.hub.Publish(identity.ID, &identity)
}

// SignOut revokes the session token and ends the identity's open streams.
func (g *Gate) SignOut(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("no session")
	}
	if err := g.revocations.Revoke(ctx, s.Token, g.revokeTTL); err != nil {
		return err
	}
	g.hub.Publish(s.Identity.ID, nil)
	g.log.Info("Signed out", "identity_id", s.Identity.ID)
	return nil
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// a websocket handshake, so upgrades may pass the token as a query parameter.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get(accessTokenParam)
	}
	return ""
}
