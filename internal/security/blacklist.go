package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// BlacklistReasonLogout is recorded when a user signs out.
const BlacklistReasonLogout = "LOGOUT"

// TokenBlacklist remembers revoked access token ids until they would have expired anyway.
type TokenBlacklist interface {
	Add(ctx context.Context, tokenID, reason string, expiresAt time.Time) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}

const blacklistPrefix = "jwt-blacklist:"

// RedisBlacklist stores revoked ids as keys with a TTL equal to the token's remaining lifetime.
type RedisBlacklist struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedisBlacklist(client redis.UniversalClient) *RedisBlacklist {
	return &RedisBlacklist{client: client, now: time.Now}
}

func (b *RedisBlacklist) Add(ctx context.Context, tokenID, reason string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistPrefix+tokenID, reason, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) Contains(ctx context.Context, tokenID string) (bool, error) {
	err := b.client.Get(ctx, blacklistPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return true, nil
}

// MemoryBlacklist is the single-instance fallback used when Redis is not configured.
type MemoryBlacklist struct {
	store *cache.Cache
	now   func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		store: cache.New(cache.NoExpiration, 10*time.Minute),
		now:   time.Now,
	}
}

func (b *MemoryBlacklist) Add(_ context.Context, tokenID, reason string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	b.store.Set(tokenID, reason, ttl)
	return nil
}

func (b *MemoryBlacklist) Contains(_ context.Context, tokenID string) (bool, error) {
	_, found := b.store.Get(tokenID)
	return found, nil
}
