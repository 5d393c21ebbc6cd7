package memory

import (
	"sync"
	"time"

	"uml-nli-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository is the in-process session arena. Every lookup renews a
// session's TTL, so only sessions idle for longer than the TTL are evicted.
// Held sessions, those with an editor attached, never expire.
type SessionRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
	held  map[string]struct{}
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
		held:  make(map[string]struct{}),
	}
}

// OnEvicted registers a hook that runs when a session expires or is deleted.
func (r *SessionRepository) OnEvicted(fn func(sessionID string)) {
	r.cache.OnEvicted(func(key string, _ interface{}) {
		fn(key)
	})
}

// LoadOrCreate returns the session with the given id, creating it if needed.
func (r *SessionRepository) LoadOrCreate(sessionID string) (*store.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionID); found {
		sess := x.(*store.Session)
		r.save(sess)
		return sess, false
	}
	sess := store.NewSession(sessionID, time.Now())
	r.save(sess)
	return sess, true
}

// save stores the session and renews its TTL. Callers hold r.mu.
func (r *SessionRepository) save(session *store.Session) {
	if _, ok := r.held[session.ID]; ok {
		r.cache.Set(session.ID, session, cache.NoExpiration)
		return
	}
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get returns the session and counts the lookup as activity.
func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	sess := x.(*store.Session)
	r.save(sess)
	return sess, true
}

// Hold keeps the session alive regardless of activity until Release or Delete.
func (r *SessionRepository) Hold(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(sessionID)
	if !found {
		return false
	}
	r.held[sessionID] = struct{}{}
	r.save(x.(*store.Session))
	return true
}

// Release puts a held session back on the idle TTL.
func (r *SessionRepository) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.held, sessionID)
	if x, found := r.cache.Get(sessionID); found {
		r.save(x.(*store.Session))
	}
}

func (r *SessionRepository) Delete(sessionID string) {
	r.mu.Lock()
	delete(r.held, sessionID)
	r.mu.Unlock()
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
