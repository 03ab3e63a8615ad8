package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"medibook/models"
)

// sessionStore persists wizard sessions as JSON documents with a TTL, the
// same way the rest of the platform caches short-lived state.
type sessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *sessionStore) load(ctx context.Context, sessionID string) (*models.WizardSession, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wizard session: %w", err)
	}

	var session models.WizardSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse wizard session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (s *sessionStore) save(ctx context.Context, session *models.WizardSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store wizard session: %w", err)
	}
	return nil
}

func (s *sessionStore) delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

func sessionKey(sessionID string) string {
	return "wizard:session:" + sessionID
}
