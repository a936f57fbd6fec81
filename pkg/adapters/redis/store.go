package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/gashu/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store and locker.
const DefaultPrefix = "gashu:session:"

// Store implements ports.SessionStore using one Redis hash per user.
// Each hash field is a slot name holding the slot's JSON value.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying connection, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Session hashes, the index and locks live in separate key spaces under
// the prefix, so no user id can name the index or a lock.
func (s *Store) key(userID string) string {
	return s.prefix + "u:" + userID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save replaces the user's hash with the flattened session.
func (s *Store) Save(ctx context.Context, userID string, session *domain.Session) error {
	fields, err := session.Flatten()
	if err != nil {
		return err
	}
	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = string(v)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(userID))
	pipe.HSet(ctx, s.key(userID), values)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(userID), s.ttl)
	}

	// Score = Now + TTL. Without a TTL the entry never expires.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: userID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load reads the user's hash back into a session.
func (s *Store) Load(ctx context.Context, userID string) (*domain.Session, error) {
	values, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(values) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	fields := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		fields[k] = json.RawMessage(v)
	}
	return domain.Unflatten(fields)
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, userID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(userID))
	pipe.ZRem(ctx, s.indexKey(), userID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns active users, pruning expired index entries lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	users, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return users, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
