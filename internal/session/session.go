// Package session authenticates requests and tracks sign-in state per
// identity.
package session

import (
	"context"

	"motorhub/pkg/model"
)

// Session is the authenticated caller of one request.
type Session struct {
	Identity model.Identity
	Token    string
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session placed by Gate.Require.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// Account is the signed-in email, or "" outside a session.
func Account(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.Identity.Email
	}
	return ""
}
