// Package handlers exposes the import wizard over HTTP.
package handlers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mkarlsen/tradescribe/internal/services"
	"github.com/mkarlsen/tradescribe/internal/wizard"
)

// SessionManager hands out one wizard session per user and serializes
// access to it. Sessions are cached in memory and backed by the durable
// store, so a server restart or page reload resumes mid-import.
type SessionManager struct {
	store  *services.SessionStore
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*userSession
}

type userSession struct {
	mu   sync.Mutex
	sess *wizard.Session
}

// NewSessionManager creates a session manager. The store is optional;
// without it sessions live only in process memory.
func NewSessionManager(store *services.SessionStore, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		store:    store,
		logger:   logger,
		sessions: make(map[string]*userSession),
	}
}

// WithSession runs fn while holding the user's session lock, so two
// requests for the same user cannot interleave wizard mutations. The
// session is persisted after fn returns.
func (m *SessionManager) WithSession(ctx context.Context, userID string, fn func(*wizard.Session) error) error {
	us := m.entry(userID)
	us.mu.Lock()
	defer us.mu.Unlock()

	if us.sess == nil {
		us.sess = m.load(ctx, userID)
	}

	if err := fn(us.sess); err != nil {
		return err
	}
	m.persist(ctx, userID, us.sess)
	return nil
}

func (m *SessionManager) entry(userID string) *userSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	us, ok := m.sessions[userID]
	if !ok {
		us = &userSession{}
		m.sessions[userID] = us
	}
	return us
}

// load restores the user's stored session, falling back to a fresh one.
// A corrupt stored session is logged and discarded rather than wedging
// the user out of the importer.
func (m *SessionManager) load(ctx context.Context, userID string) *wizard.Session {
	if m.store != nil {
		sess, err := m.store.Load(ctx, userID)
		if err != nil {
			m.logger.Warn("failed to restore import session",
				zap.String("user_id", userID), zap.Error(err))
		} else if sess != nil {
			return sess
		}
	}
	return wizard.NewSession()
}

func (m *SessionManager) persist(ctx context.Context, userID string, sess *wizard.Session) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, userID, sess); err != nil {
		m.logger.Warn("failed to persist import session",
			zap.String("user_id", userID), zap.Error(err))
	}
}

// Drop removes the user's session from memory and the durable store.
func (m *SessionManager) Drop(ctx context.Context, userID string) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Delete(ctx, userID); err != nil {
			m.logger.Warn("failed to delete stored session",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
}
