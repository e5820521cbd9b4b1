package memory

import (
	"sync"
	"time"

	"course-pr-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds the in-flight edit sessions keyed by
// (conversation, user). Expiry is configurable because the upstream behavior
// left it unspecified; ttl 0 disables it.
type SessionRepository struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock is reference-counted so the locks map can shed entries as soon as
// the last holder releases, instead of growing with every key ever seen.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
		locks: make(map[string]*keyLock),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.Key(), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(key string) (*store.Session, bool) {
	if x, found := r.cache.Get(key); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(key string) {
	r.cache.Delete(key)
}

// Lock serializes message handling per session key. The transport usually
// delivers one message at a time per conversation, but the store does not
// rely on it: a duplicate confirmation arriving concurrently waits here and
// then observes the terminal state.
func (r *SessionRepository) Lock(key string) func() {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &keyLock{}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}
