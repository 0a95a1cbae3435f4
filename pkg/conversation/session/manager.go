package session

import (
	"errors"
	"sync"
	"time"

	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/pkg/store"
)

// ErrSessionNotOwned is returned when a session id is used by someone other
// than the user who started it.
var ErrSessionNotOwned = errors.New("session belongs to another user")

// Store is where sessions live between requests.
type Store interface {
	Get(sessionID string) (*store.ConversationSession, bool)
	Save(session *store.ConversationSession)
	Delete(sessionID string)
}

// Manager serializes all work on one session while letting different
// sessions proceed in parallel.
type Manager struct {
	store  Store
	logger logger.ILogger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(store Store, logger logger.ILogger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
		locks:  make(map[string]*sessionLock),
	}
}

// lock takes the per-session mutex. The entry is dropped once nobody holds or
// waits for it, so the map only grows with concurrent sessions.
func (m *Manager) lock(sessionID string) func() {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.mu.Unlock()
	}
}

// GetOrCreate loads a session or starts a fresh one. It does not lock; use
// WithSession for read-modify-write.
func (m *Manager) GetOrCreate(sessionID, userID string) *store.ConversationSession {
	if sess, found := m.store.Get(sessionID); found {
		return sess
	}
	m.logger.Debug("SessionManager", "Creating session", map[string]interface{}{
		"session_id": sessionID,
		"user_id":    userID,
	})
	return store.NewConversationSession(sessionID, userID, m.now())
}

func (m *Manager) Save(sess *store.ConversationSession) {
	m.store.Save(sess)
}

// WithSession runs fn on the session while holding its lock and saves the
// result, even when fn fails. A session owned by another user is left
// untouched and ErrSessionNotOwned is returned.
func (m *Manager) WithSession(sessionID, userID string, fn func(sess *store.ConversationSession) error) error {
	unlock := m.lock(sessionID)
	defer unlock()

	sess := m.GetOrCreate(sessionID, userID)
	if sess.UserID != userID {
		m.logger.Warn("SessionManager", "Session used by another user", map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
		})
		return ErrSessionNotOwned
	}
	defer func() {
		sess.LastActivity = m.now()
		m.store.Save(sess)
	}()

	sess.TurnCount++
	return fn(sess)
}

// Snapshot returns a deep copy of the session, or false when it does not exist.
func (m *Manager) Snapshot(sessionID string) (*store.ConversationSession, bool) {
	unlock := m.lock(sessionID)
	defer unlock()

	sess, found := m.store.Get(sessionID)
	if !found {
		return nil, false
	}
	return sess.Clone(), true
}

// CheckOwner reports ErrSessionNotOwned when the session exists and was
// started by a different user. A missing session is free to claim.
func (m *Manager) CheckOwner(sessionID, userID string) error {
	sess, found := m.Snapshot(sessionID)
	if found && sess.UserID != userID {
		return ErrSessionNotOwned
	}
	return nil
}

// Reset drops the session; the next request starts from scratch.
func (m *Manager) Reset(sessionID string) {
	unlock := m.lock(sessionID)
	defer unlock()

	m.store.Delete(sessionID)
	m.logger.Info("SessionManager", "Session reset", map[string]interface{}{"session_id": sessionID})
}
