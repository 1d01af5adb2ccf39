package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revocationKeyPrefix  = "motorhub:revoked:"
	DefaultRevocationTTL = 24 * time.Hour
)

// Revocations remembers signed-out tokens until they would have expired.
type Revocations interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	Revoked(ctx context.Context, token string) (bool, error)
}

type RedisRevocations struct {
	client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (r *RedisRevocations) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultRevocationTTL
	}
	if err := r.client.Set(ctx, revocationKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevocations) Revoked(ctx context.Context, token string) (bool, error) {
	err := r.client.Get(ctx, revocationKey(token)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
}

// Tokens are stored hashed.
func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revocationKeyPrefix + hex.EncodeToString(sum[:])
}

// MemoryRevocations is the single-process store used when Redis is not
// configured.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevocations) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultRevocationTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, k)
		}
	}
	m.revoked[revocationKey(token)] = now.Add(ttl)
	return nil
}

func (m *MemoryRevocations) Revoked(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[revocationKey(token)]
	return ok && !m.now().After(exp), nil
}
