package memory

import (
	"time"

	"bcct-chatbot-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for ttl after their last save. A ttl of
// zero keeps them for the process lifetime; a purge interval of zero disables
// the janitor.
func NewSessionRepository(ttl, purgeInterval time.Duration) *SessionRepository {
	expiration := ttl
	if ttl <= 0 {
		expiration = cache.NoExpiration
	}
	return &SessionRepository{
		cache: cache.New(expiration, purgeInterval),
	}
}

func (r *SessionRepository) Save(session *store.ConversationSession) {
	r.cache.Set(session.SessionID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.ConversationSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.ConversationSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
