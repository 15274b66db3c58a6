package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"naviauto/api/internal/ids"
	"naviauto/api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "sess:"

// SessionRepository keeps session payloads server-side in Redis, keyed
// by an opaque session id. The cookie only ever carries the id.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create stores a new session payload and returns its id.
func (r *SessionRepository) Create(ctx context.Context, sess models.Session) (string, error) {
	id := ids.New()
	if err := r.write(ctx, id, sess); err != nil {
		return "", err
	}
	return id, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Replace swaps the payload under an existing id, restarting the TTL.
// Impersonation begin/end and profile updates go through here.
func (r *SessionRepository) Replace(ctx context.Context, id string, sess models.Session) error {
	return r.write(ctx, id, sess)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) write(ctx context.Context, id string, sess models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(id), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}
