package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crossapp/crossapp-go/pkg/api"
)

const (
	redisKeyPrefix = "crossapp:session:"

	redisDialAttempts = 3
	redisDialInterval = 5 * time.Second
	redisDialTimeout  = 30 * time.Second
)

// ErrRedisNotReady indicates the Redis server could not be reached within
// the dial budget.
var ErrRedisNotReady = errors.New("store.redis_not_ready")

// RedisStore implements Store on Redis, for server-side member apps that
// want sessions shared across instances or surviving restarts. Entries
// expire automatically alongside the session token.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed store using the provided client.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("store.nil_redis_client")
	}
	return &RedisStore{client: client}, nil
}

// DialRedisStore connects to the Redis server at the given URL, in the
// "redis://:password@host:6379/0" format, verifying the connection with a
// ping and retrying a few times before giving up. Convenience for callers
// that do not manage their own client.
func DialRedisStore(ctx context.Context, connectionURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()

	for range redisDialAttempts {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return &RedisStore{client: client}, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(redisDialInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// Load reads the persisted session for the app ID.
func (r *RedisStore) Load(ctx context.Context, appID string) (*api.Session, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+appID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session api.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, ErrNotFound
	}
	return &session, nil
}

// Save persists the session with a TTL matching its expiry, so Redis drops
// the entry on its own once the token is unusable anyway.
func (r *RedisStore) Save(ctx context.Context, session *api.Session) error {
	if session == nil || session.AppID == "" {
		return ErrInvalidSession
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrInvalidSession
	}

	if err := r.client.Set(ctx, redisKeyPrefix+session.AppID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes the session for the app ID.
func (r *RedisStore) Delete(ctx context.Context, appID string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+appID).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
