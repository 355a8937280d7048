package memory

import (
	"context"
	"sync"
	"time"

	"quest-bot/internal/domain"
)

// HintService charges a fixed penalty for the first hint a participant takes
// on each level. Repeat requests on the same level are free.
type HintService struct {
	penalty int64

	mu      sync.Mutex
	used    map[string]map[int]struct{}
	charged map[string]int64
}

func NewHintService(penalty time.Duration) *HintService {
	return &HintService{
		penalty: int64(penalty / time.Second),
		used:    make(map[string]map[int]struct{}),
		charged: make(map[string]int64),
	}
}

func (s *HintService) ApplyHint(_ context.Context, p domain.Participant, q domain.Question) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	levels, ok := s.used[p.ID]
	if !ok {
		levels = make(map[int]struct{})
		s.used[p.ID] = levels
	}
	if _, seen := levels[q.Level]; seen {
		return 0, nil
	}
	levels[q.Level] = struct{}{}
	s.charged[p.ID] += s.penalty
	return s.penalty, nil
}

func (s *HintService) TotalPenalty(_ context.Context, participantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charged[participantID], nil
}
