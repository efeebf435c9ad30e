// Package services holds the import wizard's collaborators: durable
// session persistence, AI link suggestions and final confirmation.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mkarlsen/tradescribe/internal/database"
	"github.com/mkarlsen/tradescribe/internal/wizard"
)

const sessionKeyPrefix = "tradescribe:import_session:"

// DefaultSessionTTL bounds how long an interrupted import stays resumable.
const DefaultSessionTTL = 7 * 24 * time.Hour

// sessionEnvelope is the stored form of a session snapshot. The checksum
// covers the snapshot only, so UpdatedAt can change without breaking it.
type sessionEnvelope struct {
	Snapshot  wizard.Snapshot `json:"snapshot"`
	UpdatedAt time.Time       `json:"updated_at"`
	Checksum  string          `json:"checksum"`
}

// SessionStore persists wizard sessions in Redis so a reload mid-import
// resumes at the same step with the same decisions. One session per user.
type SessionStore struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionStore creates a session store. A zero ttl uses the default.
func NewSessionStore(redis *database.RedisClient, ttl time.Duration, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{redis: redis, ttl: ttl, logger: logger}
}

// Save writes the session's durable snapshot, refreshing the TTL.
func (s *SessionStore) Save(ctx context.Context, userID string, sess *wizard.Session) error {
	snap := sess.Snapshot()
	checksum, err := snapshotChecksum(snap)
	if err != nil {
		return err
	}
	data, err := json.Marshal(sessionEnvelope{
		Snapshot:  snap,
		UpdatedAt: time.Now(),
		Checksum:  checksum,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(userID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load restores a user's session. Returns (nil, nil) when no session is
// stored; a checksum mismatch is an error, not a silent reset.
func (s *SessionStore) Load(ctx context.Context, userID string) (*wizard.Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(userID))
	if err != nil {
		if database.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var env sessionEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	expected, err := snapshotChecksum(env.Snapshot)
	if err != nil {
		return nil, err
	}
	if env.Checksum != expected {
		return nil, fmt.Errorf("session checksum mismatch: stored data may be corrupted")
	}
	return wizard.Restore(env.Snapshot), nil
}

// Delete drops a user's stored session.
func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Delete(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

func snapshotChecksum(snap wizard.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot for checksum: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
