package app

import (
	"context"
	"sync"
	"time"

	"quest-bot/internal/domain"
)

// ReactionFunc handles an emoji reaction. It reports whether the emoji was a
// valid choice; a matched reaction consumes the listener even when err is set.
type ReactionFunc func(ctx context.Context, emoji string) (bool, error)

// ListenerRegistry holds at most one reaction listener per participant.
// A listener lives until it matches, is cancelled, is superseded by a newer
// one, or its window elapses.
type ListenerRegistry struct {
	mu    sync.Mutex
	now   func() time.Time
	seq   uint64
	slots map[string]*reactionListener
}

type reactionListener struct {
	gen       uint64
	stage     domain.Stage
	expiresAt time.Time
	timer     *time.Timer
	fn        ReactionFunc
}

func NewListenerRegistry() *ListenerRegistry {
	return NewListenerRegistryWithClock(time.Now)
}

// NewListenerRegistryWithClock is test-only for deterministic expiry.
func NewListenerRegistryWithClock(now func() time.Time) *ListenerRegistry {
	return &ListenerRegistry{
		now:   now,
		slots: make(map[string]*reactionListener),
	}
}

// Arm installs a listener for the participant, replacing any previous one.
func (r *ListenerRegistry) Arm(participantID string, stage domain.Stage, window time.Duration, fn ReactionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked(participantID)
	r.seq++
	gen := r.seq
	l := &reactionListener{
		gen:       gen,
		stage:     stage,
		expiresAt: r.now().Add(window),
		fn:        fn,
	}
	l.timer = time.AfterFunc(window, func() { r.expire(participantID, gen) })
	r.slots[participantID] = l
}

// Fire delivers a reaction to the participant's listener. Reactions with no
// live listener are ignored.
func (r *ListenerRegistry) Fire(ctx context.Context, participantID, emoji string) (bool, error) {
	r.mu.Lock()
	l, ok := r.slots[participantID]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	if !r.now().Before(l.expiresAt) {
		r.stopLocked(participantID)
		r.mu.Unlock()
		return false, nil
	}
	r.mu.Unlock()

	matched, err := l.fn(ctx, emoji)
	if !matched {
		return false, err
	}

	r.mu.Lock()
	if cur, ok := r.slots[participantID]; ok && cur.gen == l.gen {
		r.stopLocked(participantID)
	}
	r.mu.Unlock()
	return true, err
}

// Stage returns the stage of the participant's live listener.
func (r *ListenerRegistry) Stage(participantID string) (domain.Stage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.slots[participantID]
	if !ok || !r.now().Before(l.expiresAt) {
		return 0, false
	}
	return l.stage, true
}

func (r *ListenerRegistry) Cancel(participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked(participantID)
}

// Len counts listeners that have not been collected yet.
func (r *ListenerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Close cancels every listener.
func (r *ListenerRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.slots {
		r.stopLocked(id)
	}
}

func (r *ListenerRegistry) expire(participantID string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.slots[participantID]; ok && l.gen == gen {
		delete(r.slots, participantID)
	}
}

func (r *ListenerRegistry) stopLocked(participantID string) {
	if l, ok := r.slots[participantID]; ok {
		l.timer.Stop()
		delete(r.slots, participantID)
	}
}
