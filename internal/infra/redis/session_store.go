package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"quest-bot/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions themselves stay in a local map; losing them on restart is accepted.
//   - Redis holds a liveness marker per participant with the current stage, so
//     operators can see registrations in flight across instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]domain.RegistrationSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ParticipantID), session.Stage.String(), s.ttl).Err()
}

func (s *SessionStore) Delete(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, participantID)
	_ = s.client.Del(context.Background(), s.key(participantID)).Err()
}

func (s *SessionStore) key(participantID string) string {
	return "quest:registration:" + participantID
}
