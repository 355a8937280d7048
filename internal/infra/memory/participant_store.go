package memory

import (
	"context"
	"sort"
	"sync"

	"quest-bot/internal/domain"
)

// ParticipantStore keeps participants in process memory.
type ParticipantStore struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{participants: make(map[string]domain.Participant)}
}

func (s *ParticipantStore) Get(_ context.Context, id string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return clone(p), nil
}

func (s *ParticipantStore) Save(_ context.Context, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = clone(p)
	return nil
}

// ListActive returns participants without a completion time, oldest registration first.
func (s *ParticipantStore) ListActive(_ context.Context) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if !p.Completed() {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func clone(p domain.Participant) domain.Participant {
	if p.TimeToComplete != nil {
		v := *p.TimeToComplete
		p.TimeToComplete = &v
	}
	return p
}
