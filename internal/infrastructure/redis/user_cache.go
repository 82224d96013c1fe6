package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/victoralfred/userdir/internal/domain/user"
	"go.uber.org/zap"
)

const (
	userKeyPrefix = "user:"

	// DefaultUserTTL is how long a cached user stays valid when no TTL is configured
	DefaultUserTTL = 5 * time.Minute
)

// CachedRepository is a read-through cache in front of another user.Repository.
// Redis failures are logged and the wrapped repository answers instead.
type CachedRepository struct {
	next   user.Repository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRepository wraps next with a Redis cache
func NewCachedRepository(next user.Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// UserKey returns the cache key for a user ID
func UserKey(id int64) string {
	return userKeyPrefix + strconv.FormatInt(id, 10)
}

// FindByID serves from cache and falls back to the wrapped repository on a miss.
// Not-found results are never cached.
func (r *CachedRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	key := UserKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var u user.User
		if err := json.Unmarshal(data, &u); err == nil {
			return &u, nil
		}
		r.logger.Warn("Discarding undecodable cached user", zap.String("key", key))
		r.client.Del(ctx, key)
	case errors.Is(err, redis.Nil):
	default:
		r.logger.Warn("User cache read failed", zap.String("key", key), zap.Error(err))
	}

	u, err := r.next.FindByID(ctx, id)
	if err != nil {
		return u, err
	}

	r.store(ctx, u)
	return u, nil
}

// Create writes to the wrapped repository and then populates the cache
func (r *CachedRepository) Create(ctx context.Context, u *user.User) error {
	if err := r.next.Create(ctx, u); err != nil {
		return err
	}
	r.store(ctx, u)
	return nil
}

// List is not cached
func (r *CachedRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	return r.next.List(ctx, filter)
}

// Invalidate removes a cached user
func (r *CachedRepository) Invalidate(ctx context.Context, id int64) error {
	return r.client.Del(ctx, UserKey(id)).Err()
}

func (r *CachedRepository) store(ctx context.Context, u *user.User) {
	if u == nil {
		return
	}
	id, ok := u.ID.Int64()
	if !ok {
		return
	}

	data, err := json.Marshal(u)
	if err != nil {
		r.logger.Warn("Failed to encode user for cache", zap.Int64("user_id", id), zap.Error(err))
		return
	}

	if err := r.client.Set(ctx, UserKey(id), data, r.ttl).Err(); err != nil {
		r.logger.Warn("User cache write failed", zap.Int64("user_id", id), zap.Error(err))
	}
}
