package memory

import (
	"sync"

	"quest-bot/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.RegistrationSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.RegistrationSession),
	}
}

func (s *SessionStore) Get(participantID string) (domain.RegistrationSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[participantID]
	return session, ok
}

func (s *SessionStore) Put(session domain.RegistrationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ParticipantID] = session
}

func (s *SessionStore) Delete(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, participantID)
}

// Len returns the number of registrations in flight.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
