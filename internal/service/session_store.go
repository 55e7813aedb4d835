package service

import (
	"sync"
	"time"

	"github.com/noah-isme/obs-timetable-api/internal/planner"
)

// generationSession is the server side state of one timetable being built.
type generationSession struct {
	ID         string
	Name       string
	Window     planner.Window
	Ledger     *planner.Ledger
	Submitting bool
	TouchedAt  time.Time
}

// sessionStore keeps generation sessions in memory. Every read or
// mutation of a session happens under the store lock, and expired
// sessions are dropped lazily.
type sessionStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	items map[string]*generationSession
}

func newSessionStore(ttl time.Duration, now func() time.Time) *sessionStore {
	if now == nil {
		now = time.Now
	}
	return &sessionStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]*generationSession),
	}
}

func (s *sessionStore) Save(session *generationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.TouchedAt = s.now()
	s.items[session.ID] = session
}

// With runs fn against a live session while holding the lock and refreshes
// its expiry. It reports false when the session does not exist.
func (s *sessionStore) With(id string, fn func(*generationSession) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[id]
	if !ok {
		return false, nil
	}
	now := s.now()
	if s.expired(session, now) {
		delete(s.items, id)
		return false, nil
	}
	session.TouchedAt = now
	return true, fn(session)
}

func (s *sessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

// Sweep drops expired sessions and returns how many remain.
func (s *sessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, session := range s.items {
		if s.expired(session, now) {
			delete(s.items, id)
		}
	}
	return len(s.items)
}

func (s *sessionStore) ExpiresAt(session *generationSession) time.Time {
	return session.TouchedAt.Add(s.ttl)
}

func (s *sessionStore) expired(session *generationSession, now time.Time) bool {
	return s.ttl > 0 && now.Sub(session.TouchedAt) > s.ttl
}
