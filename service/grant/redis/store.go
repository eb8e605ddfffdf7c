// Package redis provides a Redis grant store. Grants expire from Redis
// after their own expiry plus a retention window so that expired links can
// still be told apart from unknown ones.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/model/grant"
	"github.com/viant/guaranty/service/dao"
)

const defaultPrefix = "guaranty:grant:v1:"

// Store implements dao.Service for grants on Redis.
type Store struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

var _ dao.Service[string, grant.Grant] = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithRetention sets how long a grant outlives its expiry.
func WithRetention(retention time.Duration) Option {
	return func(s *Store) {
		s.retention = retention
	}
}

// New wraps an existing client.
func New(client *redis.Client, options ...Option) *Store {
	ret := &Store{client: client, prefix: defaultPrefix, retention: 7 * 24 * time.Hour}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Connect creates a client and verifies connectivity.
func Connect(ctx context.Context, addr, password string, db int, options ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              db,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
		MaxRetries:      3,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, options...), nil
}

func (s *Store) grantKey(digest string) string { return s.prefix + digest }

func (s *Store) actorKey(actorID string) string { return s.prefix + "actor:" + actorID }

// Save writes the grant and indexes it by actor.
func (s *Store) Save(ctx context.Context, g *grant.Grant) error {
	if g == nil {
		return dao.ErrNilEntity
	}
	if g.Digest == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal grant: %w", err)
	}
	ttl := g.ExpiresAt.Sub(clock.Now()) + s.retention
	if ttl <= 0 {
		ttl = s.retention
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.grantKey(g.Digest), data, ttl)
	actorKey := s.actorKey(g.ActorID)
	pipe.SAdd(ctx, actorKey, g.Digest)
	pipe.Expire(ctx, actorKey, ttl)
	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save grant: %w", err)
	}
	return nil
}

// Load returns dao.ErrNotFound for unknown or evicted digests.
func (s *Store) Load(ctx context.Context, digest string) (*grant.Grant, error) {
	data, err := s.client.Get(ctx, s.grantKey(digest)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, dao.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load grant: %w", err)
	}
	ret := &grant.Grant{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grant: %w", err)
	}
	return ret, nil
}

// Delete removes the grant.
func (s *Store) Delete(ctx context.Context, digest string) error {
	g, err := s.Load(ctx, digest)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.grantKey(digest))
	pipe.SRem(ctx, s.actorKey(g.ActorID), digest)
	_, err = pipe.Exec(ctx)
	return err
}

// List returns the grants of the actor named by the dao.ParamActorID parameter.
func (s *Store) List(ctx context.Context, parameters ...*dao.Parameter) ([]*grant.Grant, error) {
	actorID := ""
	for _, parameter := range parameters {
		if parameter != nil && parameter.Name == dao.ParamActorID {
			actorID, _ = parameter.Value.(string)
		}
	}
	if actorID == "" {
		return nil, fmt.Errorf("redis grant store: %s parameter is required", dao.ParamActorID)
	}
	digests, err := s.client.SMembers(ctx, s.actorKey(actorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	var result []*grant.Grant
	for _, digest := range digests {
		g, err := s.Load(ctx, digest)
		if errors.Is(err, dao.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, nil
}
