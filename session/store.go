// Package session implements the Redis-backed server-side session store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"somnia/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the name of the session cookie presented by clients.
const CookieName = "somnia_sid"

// Store maps opaque session identifiers to authenticated user snapshots.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store with the given session lifetime.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "sess:" + id
}

// Create stores a new session for user and returns its opaque identifier.
func (s *Store) Create(ctx context.Context, user models.SessionUser) (string, error) {
	id := uuid.NewString()

	data, err := json.Marshal(user)
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return id, nil
}

// Get returns the user snapshot for id, or nil if the session does not exist
// or has expired.
func (s *Store) Get(ctx context.Context, id string) (*models.SessionUser, error) {
	if id == "" {
		return nil, nil
	}

	data, err := s.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var user models.SessionUser
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update replaces the stored snapshot without extending the session lifetime.
// A session that expired in the meantime stays gone.
func (s *Store) Update(ctx context.Context, id string, user models.SessionUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.client.SetXX(ctx, sessionKey(id), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Destroy removes the session. Destroying a missing session is a no-op so
// logout stays idempotent.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
