package redis

// Package redis provides the Redis-backed session store used in production
// deployments where several portal instances share one session space.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
)

const defaultPrefix = "session:"

// SessionStore is a Redis-based session store. Redis key TTLs carry the
// expiry, so expired records disappear without a janitor. The TTL is always
// a time.Duration here; adapters never deal in raw second or millisecond
// counts.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSessionStore creates a Redis session store with the given record TTL.
func NewSessionStore(client redis.UniversalClient, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: defaultPrefix,
		ttl:    ttl,
	}
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, ttl time.Duration, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Save writes the session, replacing any record under the same ID and
// restarting its TTL.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.client.Set(ctx, s.prefix+sess.ID, data, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}

	return s.client.Del(ctx, s.prefix+id).Err()
}

// Touch restarts the TTL of an existing record. A missing record is not an
// error; it simply stays gone.
func (s *SessionStore) Touch(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	return s.client.Expire(ctx, s.prefix+id, s.ttl).Err()
}
