package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"motorhub/pkg/model"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token has been signed out")
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// Config selects the token verifier. Domain wins over Secret.
type Config struct {
	Auth0Domain   string
	Auth0Audience string
	JWTSecret     string
}

func NewAuthenticator(cfg Config) (Authenticator, error) {
	switch {
	case cfg.Auth0Domain != "":
		return NewAuth0Authenticator(cfg.Auth0Domain, cfg.Auth0Audience)
	case cfg.JWTSecret != "":
		return NewHMACAuthenticator(cfg.JWTSecret), nil
	default:
		return nil, errors.New("no token verifier configured: set AUTH0_DOMAIN or JWT_SECRET")
	}
}

type auth0Claims struct {
	Email string `json:"email"`
}

func (c *auth0Claims) Validate(context.Context) error {
	return nil
}

// Auth0Authenticator verifies RS256 tokens against the tenant's JWKS.
type Auth0Authenticator struct {
	validator *validator.Validator
}

func NewAuth0Authenticator(domain, audience string) (*Auth0Authenticator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}
	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	return newAuth0Authenticator(provider.KeyFunc, issuerURL.String(), audience)
}

func newAuth0Authenticator(keyFunc func(context.Context) (any, error), issuer, audience string) (*Auth0Authenticator, error) {
	v, err := validator.New(
		keyFunc,
		validator.RS256,
		issuer,
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &auth0Claims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}
	return &Auth0Authenticator{validator: v}, nil
}

func (a *Auth0Authenticator) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	raw, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := raw.(*validator.ValidatedClaims)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return nil, ErrInvalidToken
	}

	identity := &model.Identity{ID: claims.RegisteredClaims.Subject}
	if custom, ok := claims.CustomClaims.(*auth0Claims); ok {
		identity.Email = custom.Email
	}
	return identity, nil
}

// HMACAuthenticator verifies HS256 tokens signed with a shared secret. Used
// for local development and tests.
type HMACAuthenticator struct {
	secret []byte
}

type hmacClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewHMACAuthenticator(secret string) *HMACAuthenticator {
	return &HMACAuthenticator{secret: []byte(secret)}
}

func (a *HMACAuthenticator) Authenticate(_ context.Context, token string) (*model.Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &hmacClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*hmacClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &model.Identity{ID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues an HS256 token for identity. Used by the dev token command and
// tests.
func (a *HMACAuthenticator) Sign(identity model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := hmacClaims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
