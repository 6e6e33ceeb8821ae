package service

import (
	"sync"

	"myejbclient/domain"
)

// SessionStore remembers sessions learned by the client. A session's affinity is fixed when it is
// first stored; later Puts of the same id are ignored.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[domain.SessionID]domain.Session)}
}

// Put stores s unless its id is already known.
//
// Returns: the stored session (the existing one when the id was known) and whether s was inserted.
func (s *SessionStore) Put(session domain.Session) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[session.ID]; ok {
		return existing, false
	}
	s.sessions[session.ID] = session
	return session, true
}

// Get returns the session with id.
func (s *SessionStore) Get(id domain.SessionID) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Forget drops the session with id.
func (s *SessionStore) Forget(id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of known sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
