package memory

import (
	"context"
	"sync"

	"quest-bot/internal/domain"
)

// AttemptLedger is an append-only in-memory attempt log with a per-level index
// of participants that answered correctly.
type AttemptLedger struct {
	mu       sync.RWMutex
	attempts []domain.AnswerAttempt
	correct  map[int]map[string]struct{}
}

func NewAttemptLedger() *AttemptLedger {
	return &AttemptLedger{correct: make(map[int]map[string]struct{})}
}

func (l *AttemptLedger) Append(_ context.Context, attempt domain.AnswerAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, attempt)
	if attempt.Correct {
		set, ok := l.correct[attempt.Level]
		if !ok {
			set = make(map[string]struct{})
			l.correct[attempt.Level] = set
		}
		set[attempt.ParticipantID] = struct{}{}
	}
	return nil
}

func (l *AttemptLedger) CountDistinctCorrect(_ context.Context, level int) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.correct[level]), nil
}

// Attempts returns a copy of every attempt logged so far.
func (l *AttemptLedger) Attempts() []domain.AnswerAttempt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.AnswerAttempt, len(l.attempts))
	copy(out, l.attempts)
	return out
}
