package cart

import (
	"sync"
	"time"
)

// session is the in-memory copy of one identity's cart. While dirty it holds
// mutations the backing store has not accepted yet and is authoritative.
type session struct {
	mu       sync.Mutex
	store    *Store
	loaded   bool
	dirty    bool
	lastSeen time.Time
}

// registry hands out one session per identity so mutations on the same cart
// run one at a time.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	idleTTL  time.Duration
	now      func() time.Time
}

func newRegistry(idleTTL time.Duration, now func() time.Time) *registry {
	if now == nil {
		now = time.Now
	}
	return &registry{
		sessions: make(map[string]*session),
		idleTTL:  idleTTL,
		now:      now,
	}
}

func (r *registry) get(key string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictIdleLocked(now)

	sess, ok := r.sessions[key]
	if !ok {
		sess = &session{}
		r.sessions[key] = sess
	}
	sess.lastSeen = now
	return sess
}

func (r *registry) drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

func (r *registry) evictIdleLocked(now time.Time) {
	if r.idleTTL <= 0 {
		return
	}
	for key, sess := range r.sessions {
		if now.Sub(sess.lastSeen) > r.idleTTL {
			delete(r.sessions, key)
		}
	}
}
