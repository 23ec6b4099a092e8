package auth

import (
	"sync"
	"time"
)

// Store keeps the server-side record of live sessions. A token whose id is
// missing here is rejected even when its signature is valid, which is what
// makes logout effective.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]storedSession
}

type storedSession struct {
	session   Session
	expiresAt time.Time
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]storedSession)}
}

// Put records s until expiresAt, replacing any session with the same id.
func (s *Store) Put(sess Session, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = storedSession{session: sess, expiresAt: expiresAt}
}

// Get returns the session with id if it exists and has not expired at now.
func (s *Store) Get(id string, now time.Time) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok || !now.Before(st.expiresAt) {
		return Session{}, false
	}
	return st.session, true
}

// Delete removes id. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep drops sessions expired at now and reports how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, st := range s.sessions {
		if !now.Before(st.expiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
