package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fmuoria/interview-review-agent/internal/config"
	"github.com/fmuoria/interview-review-agent/internal/models"
)

// oauthStateKeyPrefix namespaces pending OAuth states: app:oauth:state:{state}
const oauthStateKeyPrefix = "app:oauth:state:"

// OAuthState is what the connect step remembers until the provider calls back
type OAuthState struct {
	Email    string `json:"email"`
	ReturnTo string `json:"returnTo"`
}

// StateStore keeps short-lived OAuth states in Redis
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateStore connects to Redis and verifies the connection
func NewStateStore(cfg config.RedisConfig, ttl time.Duration) (*StateStore, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewStateStoreWithClient(client, ttl), nil
}

// NewStateStoreWithClient wraps an existing client
func NewStateStoreWithClient(client *redis.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{client: client, ttl: ttl}
}

// Put remembers st under state until the TTL elapses
func (s *StateStore) Put(ctx context.Context, state string, st OAuthState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, oauthStateKeyPrefix+state, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to store oauth state: %w", models.ErrUpstreamUnavailable, err)
	}
	return nil
}

// Take returns and deletes the state; unknown or expired states yield models.ErrNotFound
func (s *StateStore) Take(ctx context.Context, state string) (OAuthState, error) {
	data, err := s.client.GetDel(ctx, oauthStateKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return OAuthState{}, models.WrapOp("take oauth state", "", models.ErrNotFound)
	}
	if err != nil {
		return OAuthState{}, fmt.Errorf("%w: failed to read oauth state: %w", models.ErrUpstreamUnavailable, err)
	}

	var st OAuthState
	if err := json.Unmarshal(data, &st); err != nil {
		return OAuthState{}, fmt.Errorf("failed to decode oauth state: %w", err)
	}
	return st, nil
}

// Ping checks the Redis connection
func (s *StateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client connection
func (s *StateStore) Close() error {
	return s.client.Close()
}
