package memory

import (
	"time"

	"mediagrid-be/internal/session"

	"github.com/patrickmn/go-cache"
)

// SessionManagerRepository holds the live session managers keyed by
// session id. Entries expire with the auth token lifetime; eviction
// closes the manager so its auth-state subscription is released.
type SessionManagerRepository struct {
	cache *cache.Cache
}

func NewSessionManagerRepository() *SessionManagerRepository {
	c := cache.New(24*time.Hour, 10*time.Minute)
	c.OnEvicted(func(_ string, v interface{}) {
		if m, ok := v.(*session.Manager); ok {
			m.Close()
		}
	})
	return &SessionManagerRepository{cache: c}
}

func (r *SessionManagerRepository) Save(sessionID string, m *session.Manager) {
	r.cache.Set(sessionID, m, cache.DefaultExpiration)
}

func (r *SessionManagerRepository) Get(sessionID string) (*session.Manager, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*session.Manager), true
	}
	return nil, false
}

func (r *SessionManagerRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
