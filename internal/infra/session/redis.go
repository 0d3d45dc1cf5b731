// Package session stores BFA sessions: the upstream bearer token and the
// actor behind each issued access token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

const (
	keyPrefix     = "bfa:session:"
	userKeyPrefix = "bfa:user-sessions:"
)

func key(id string) string { return keyPrefix + id }

func userKey(userID string) string { return userKeyPrefix + userID }

// RedisStore keeps sessions in Redis, shared by every BFA replica.
type RedisStore struct {
	client *redis.Client
}

// NewRedis parses url (redis://...) and checks the connection.
func NewRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save writes the session as JSON with SET ... EX ttl and indexes it in the
// owner's session set.
func (s *RedisStore) Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if sess.User.ID == "" {
		return s.client.Set(ctx, key(sess.ID), payload, ttl).Err()
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key(sess.ID), payload, ttl)
		p.SAdd(ctx, userKey(sess.User.ID), sess.ID)
		p.Expire(ctx, userKey(sess.User.ID), ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, nil
	}
	raw, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, key(id)).Err()
}

// DeleteByUser removes every session in the user's set, then the set.
func (s *RedisStore) DeleteByUser(ctx context.Context, userID string) error {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range ids {
			p.Del(ctx, key(id))
		}
		p.Del(ctx, userKey(userID))
		return nil
	})
	return err
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Check(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
