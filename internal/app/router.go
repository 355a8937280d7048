package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quest-bot/internal/domain"
)

// Router dispatches chat events to registration or to the game, holding a
// per-participant lock for the whole handling of one event.
type Router struct {
	registration *RegistrationService
	game         *GameService
	participants ParticipantStore
	locks        *participantLocks
}

func NewRouter(registration *RegistrationService, game *GameService, participants ParticipantStore) *Router {
	return &Router{
		registration: registration,
		game:         game,
		participants: participants,
		locks:        newParticipantLocks(),
	}
}

// HandleMessage processes a free-text message and returns the reply to send, if any.
func (r *Router) HandleMessage(ctx context.Context, ev domain.MessageEvent) (domain.Reply, error) {
	unlock := r.locks.Lock(ev.ParticipantID)
	defer unlock()

	if r.registration.InProgress(ev.ParticipantID) {
		return r.registration.HandleMessage(ctx, ev)
	}
	p, err := r.participants.Get(ctx, ev.ParticipantID)
	if errors.Is(err, domain.ErrParticipantNotFound) {
		return r.registration.HandleMessage(ctx, ev)
	}
	if err != nil {
		return domain.Reply{}, fmt.Errorf("load participant: %w", err)
	}
	return r.play(ctx, p, ev.Text)
}

// HandleReaction processes an emoji reaction. Reactions nobody waits for are dropped.
func (r *Router) HandleReaction(ctx context.Context, ev domain.ReactionEvent) error {
	unlock := r.locks.Lock(ev.ParticipantID)
	defer unlock()
	return r.registration.HandleReaction(ctx, ev)
}

func (r *Router) play(ctx context.Context, p domain.Participant, text string) (domain.Reply, error) {
	if p.Completed() {
		return domain.Reply{Text: msgFinished}, nil
	}
	q, err := r.game.CurrentQuestion(ctx, p)
	if errors.Is(err, domain.ErrQuestionNotFound) {
		// Past the last level without a recorded time: a previous completion failed midway.
		r.game.finishMu.Lock()
		defer r.game.finishMu.Unlock()
		if err := r.game.complete(ctx, &p, true); err != nil {
			return domain.Reply{}, err
		}
		return domain.Reply{Text: finishedText(p)}, nil
	}
	if err != nil {
		return domain.Reply{}, fmt.Errorf("load question: %w", err)
	}

	if r.game.IsHintRequest(text) {
		hint, err := r.game.DoHint(ctx, p, q)
		if err != nil {
			return domain.Reply{}, err
		}
		return domain.Reply{Text: hint}, nil
	}

	if q.Level >= r.game.TotalLevels() {
		r.game.finishMu.Lock()
		defer r.game.finishMu.Unlock()
	}
	result, err := r.game.CheckAnswer(ctx, &p, q, strings.TrimSpace(text))
	if err != nil {
		return domain.Reply{}, err
	}
	if !result.Correct {
		return domain.Reply{}, nil
	}

	next, err := r.game.CurrentQuestion(ctx, p)
	switch {
	case err == nil:
		return domain.Reply{Text: joinMessages(result.Message, next.Text)}, nil
	case errors.Is(err, domain.ErrQuestionNotFound):
		if err := r.game.CompleteGame(ctx, &p); err != nil {
			return domain.Reply{}, err
		}
		return domain.Reply{Text: joinMessages(result.Message, finishedText(p))}, nil
	default:
		return domain.Reply{}, fmt.Errorf("load next question: %w", err)
	}
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
