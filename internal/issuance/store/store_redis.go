package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"medcred/internal/issuance/models"
)

const (
	sessionKeyPrefix = "issuance:session:"
	maxTxRetries     = 5
)

// RedisStore persists sessions as JSON with TTL-based eviction.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(state string) string {
	return sessionKeyPrefix + state
}

func (s *RedisStore) Save(ctx context.Context, session models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.State), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, state string) (models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, ErrNotFound
		}
		return models.Session{}, fmt.Errorf("find session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// Update uses WATCH/MULTI so concurrent callbacks for one state serialize.
func (s *RedisStore) Update(ctx context.Context, state string, fn func(*models.Session) error) (models.Session, error) {
	key := sessionKey(state)
	var updated models.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("load session: %w", err)
		}
		var session models.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if err := fn(&session); err != nil {
			return err
		}
		payload, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, payload, redis.SetArgs{KeepTTL: true})
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return models.Session{}, err
	}
	return models.Session{}, fmt.Errorf("update session %s: too much contention", state)
}
