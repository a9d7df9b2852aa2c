package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkraev/linkforge/internal/app/model"
	"github.com/redis/go-redis/v9"
)

// Key prefixes keep slugs and quota counters in separate namespaces so a slug
// can never collide with a caller key.
const (
	linkKeyPrefix  = "link:"
	QuotaKeyPrefix = "quota:"
)

// LinkRepository is the slug registry contract. PutIfAbsent must be atomic:
// it is the single serialization point that makes "first writer wins" hold
// under concurrent registrations. A Get-then-Set sequence is not a valid
// substitute implementation.
type LinkRepository interface {
	// GetTarget returns the URL stored under slug, or model.ErrLinkNotFound
	// when the slug was never written or its TTL has elapsed.
	GetTarget(ctx context.Context, slug string) (string, error)

	// PutIfAbsent writes slug -> target with the given TTL only when the slug
	// holds no value. It reports false when the slug is already taken.
	PutIfAbsent(ctx context.Context, slug, target string, ttl time.Duration) (bool, error)
}

type redisLinkRepository struct {
	client *redis.Client
}

// NewLinkRepository returns a Redis-backed LinkRepository. Expiry is
// store-managed: once the TTL elapses the key is simply absent.
func NewLinkRepository(client *redis.Client) LinkRepository {
	return &redisLinkRepository{client: client}
}

func (r *redisLinkRepository) GetTarget(ctx context.Context, slug string) (string, error) {
	target, err := r.client.Get(ctx, linkKeyPrefix+slug).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrLinkNotFound
		}
		return "", fmt.Errorf("%w: get %q: %v", model.ErrStoreUnavailable, slug, err)
	}
	return target, nil
}

func (r *redisLinkRepository) PutIfAbsent(ctx context.Context, slug, target string, ttl time.Duration) (bool, error) {
	created, err := r.client.SetNX(ctx, linkKeyPrefix+slug, target, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: setnx %q: %v", model.ErrStoreUnavailable, slug, err)
	}
	return created, nil
}
