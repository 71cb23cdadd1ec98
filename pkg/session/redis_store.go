package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix   = "session:"
	principalKeyPrefix = "session:principal:"
)

// RedisStore backs the session cache with Redis. Every session is stored
// under its credential digest, and a per-principal set indexes the digests
// so logout-everywhere can sweep them.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed session store.
// Panics on a nil client to fail fast during initialization.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	if client == nil {
		panic("session: redis client is required")
	}
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) (*Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, errors.Join(ErrFailedToDecode, err)
	}
	return &sess, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, sess *Session, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(ErrFailedToEncode, err)
	}

	principalKey := principalKeyPrefix + sess.Principal.ID.String()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+key, raw, ttl)
	pipe.SAdd(ctx, principalKey, key)
	// The index must outlive its members; refresh it to the same TTL.
	pipe.Expire(ctx, principalKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+key).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (r *RedisStore) DeletePrincipal(ctx context.Context, principalID uuid.UUID) error {
	principalKey := principalKeyPrefix + principalID.String()

	keys, err := r.client.SMembers(ctx, principalKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errors.Join(ErrStoreFailure, err)
	}

	toDelete := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		toDelete = append(toDelete, sessionKeyPrefix+key)
	}
	toDelete = append(toDelete, principalKey)

	if err := r.client.Del(ctx, toDelete...).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}
