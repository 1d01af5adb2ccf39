package session

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"motorhub/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACAuthenticator_RoundTrip(t *testing.T) {
	auth := NewHMACAuthenticator("test-secret")
	token, err := auth.Sign(model.Identity{ID: "u1", Email: "dana@example.com"}, time.Hour)
	require.NoError(t, err)

	identity, err := auth.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, "dana@example.com", identity.Email)
}

func TestHMACAuthenticator_Rejects(t *testing.T) {
	auth := NewHMACAuthenticator("test-secret")

	expired, err := auth.Sign(model.Identity{ID: "u1"}, -time.Hour)
	require.NoError(t, err)
	otherSecret, err := NewHMACAuthenticator("other").Sign(model.Identity{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	noSubject, err := auth.Sign(model.Identity{}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong secret", otherSecret},
		{"no subject", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Authenticate(context.Background(), tt.token)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestAuth0Authenticator(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	const issuer = "https://tenant.example.com/"
	const audience = "https://api.motorhub.test"

	auth, err := newAuth0Authenticator(func(context.Context) (any, error) {
		return &key.PublicKey, nil
	}, issuer, audience)
	require.NoError(t, err)

	sign := func(aud string) string {
		claims := jwt.MapClaims{
			"sub":   "auth0|abc",
			"iss":   issuer,
			"aud":   []string{aud},
			"exp":   time.Now().Add(time.Hour).Unix(),
			"iat":   time.Now().Unix(),
			"email": "tech@example.com",
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	identity, err := auth.Authenticate(context.Background(), sign(audience))
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc", identity.ID)
	assert.Equal(t, "tech@example.com", identity.Email)

	_, err = auth.Authenticate(context.Background(), sign("https://someone-else"))
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestNewAuthenticator(t *testing.T) {
	_, err := NewAuthenticator(Config{})
	assert.Error(t, err)

	a, err := NewAuthenticator(Config{JWTSecret: "s"})
	require.NoError(t, err)
	assert.IsType(t, &HMACAuthenticator{}, a)

	a, err = NewAuthenticator(Config{Auth0Domain: "tenant.example.com", Auth0Audience: "aud", JWTSecret: "s"})
	require.NoError(t, err)
	assert.IsType(t, &Auth0Authenticator{}, a)
}
