package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"quest-bot/internal/domain"
)

const (
	// Level-up announcements stop once this many participants cleared the level.
	levelUpBroadcastLimit = 4
	// Winner announcements go to the first finishers below this count.
	winnerBroadcastLimit = 4
	// Prize slots; reaching it unlocks hints for everyone.
	prizeWinners = 3
)

// GameService evaluates answers and moves participants through the quest.
// Callers serialize calls per participant (see Router).
type GameService struct {
	participants ParticipantStore
	questions    QuestionBank
	attempts     AttemptLedger
	notifier     NotificationGateway
	hints        HintService
	totalLevels  int
	hintCommand  string
	hintPenalty  time.Duration
	now          func() time.Time

	// finishMu orders final-level answers and completions so each finisher
	// reads a winner count that includes everyone before it and nobody after.
	finishMu sync.Mutex
}

// GameOptions configures quest length and hint wording.
type GameOptions struct {
	TotalLevels int
	HintCommand string
	HintPenalty time.Duration
}

func NewGameService(participants ParticipantStore, questions QuestionBank, attempts AttemptLedger, notifier NotificationGateway, hints HintService, opts GameOptions) *GameService {
	return NewGameServiceWithClock(participants, questions, attempts, notifier, hints, opts, time.Now)
}

// NewGameServiceWithClock is test-only for deterministic timestamps.
func NewGameServiceWithClock(participants ParticipantStore, questions QuestionBank, attempts AttemptLedger, notifier NotificationGateway, hints HintService, opts GameOptions, now func() time.Time) *GameService {
	if opts.TotalLevels <= 0 {
		opts.TotalLevels = 11
	}
	if opts.HintCommand == "" {
		opts.HintCommand = "!hint"
	}
	return &GameService{
		participants: participants,
		questions:    questions,
		attempts:     attempts,
		notifier:     notifier,
		hints:        hints,
		totalLevels:  opts.TotalLevels,
		hintCommand:  opts.HintCommand,
		hintPenalty:  opts.HintPenalty,
		now:          now,
	}
}

// TotalLevels is the number of the final level.
func (g *GameService) TotalLevels() int {
	return g.totalLevels
}

// CurrentQuestion returns the question for the participant's level.
func (g *GameService) CurrentQuestion(ctx context.Context, p domain.Participant) (domain.Question, error) {
	return g.questions.Question(ctx, p.Level)
}

// IsActivePlayer reports whether a question exists for the participant's current level.
func (g *GameService) IsActivePlayer(ctx context.Context, p domain.Participant) (bool, error) {
	_, err := g.CurrentQuestion(ctx, p)
	if errors.Is(err, domain.ErrQuestionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CheckAnswer logs the attempt and, when correct, advances p by one level.
func (g *GameService) CheckAnswer(ctx context.Context, p *domain.Participant, q domain.Question, answer string) (domain.AnswerResult, error) {
	result := domain.AnswerResult{Correct: q.Accepts(answer)}

	attempt := domain.AnswerAttempt{
		ID:            uuid.NewString(),
		ParticipantID: p.ID,
		Level:         p.Level,
		Answer:        answer,
		Correct:       result.Correct,
		GivenAt:       g.now(),
	}
	if err := g.attempts.Append(ctx, attempt); err != nil {
		return domain.AnswerResult{}, fmt.Errorf("log attempt: %w", err)
	}
	if !result.Correct {
		return result, nil
	}
	result.Message = q.CompleteText

	cleared, err := g.attempts.CountDistinctCorrect(ctx, p.Level)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("count level %d: %w", p.Level, err)
	}
	if cleared < levelUpBroadcastLimit && p.Level < g.totalLevels {
		if err := g.notifier.BroadcastToChannels(ctx, levelUpText(*p, cleared)); err != nil {
			return domain.AnswerResult{}, fmt.Errorf("broadcast level up: %w", err)
		}
	}

	next := *p
	next.Level++
	if err := g.participants.Save(ctx, next); err != nil {
		return domain.AnswerResult{}, fmt.Errorf("advance level: %w", err)
	}
	*p = next
	return result, nil
}

// CompleteGame records the final time for p and announces winners. The
// announcements go out before the time is saved, so a failed broadcast leaves
// p unfinished and the next message retries the whole completion.
func (g *GameService) CompleteGame(ctx context.Context, p *domain.Participant) error {
	return g.complete(ctx, p, false)
}

// complete finishes p. retry marks a completion whose announcements failed
// earlier; the winner count may have moved past the prize threshold since, so
// the hints announcement is repeated for any count at or above it.
func (g *GameService) complete(ctx context.Context, p *domain.Participant, retry bool) error {
	if p.Completed() {
		return domain.ErrAlreadyCompleted
	}
	penalty, err := g.hints.TotalPenalty(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("hint penalty: %w", err)
	}
	// Whole seconds on both ends, truncated.
	elapsed := g.now().Unix() - p.StartedAt.Unix() + penalty

	done := *p
	done.TimeToComplete = &elapsed

	finished, err := g.attempts.CountDistinctCorrect(ctx, g.totalLevels)
	if err != nil {
		return fmt.Errorf("count winners: %w", err)
	}
	if finished < winnerBroadcastLimit {
		if err := g.notifier.BroadcastToChannels(ctx, winnerText(done, finished)); err != nil {
			return fmt.Errorf("broadcast winner: %w", err)
		}
	}
	if finished == prizeWinners || (retry && finished > prizeWinners) {
		if err := g.announceHintsOpen(ctx, p.ID); err != nil {
			return err
		}
	}

	if err := g.participants.Save(ctx, done); err != nil {
		return fmt.Errorf("save completion: %w", err)
	}
	*p = done
	log.Printf("participant %s completed the quest in %ds (penalty %ds)", p.ID, elapsed, penalty)
	return nil
}

func (g *GameService) announceHintsOpen(ctx context.Context, finisherID string) error {
	active, err := g.participants.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active participants: %w", err)
	}
	ids := make([]string, 0, len(active))
	for _, a := range active {
		if a.ID != finisherID {
			ids = append(ids, a.ID)
		}
	}
	text := fmt.Sprintf(msgHintsOpen, g.hintCommand, formatSeconds(int64(g.hintPenalty/time.Second)))
	if len(ids) > 0 {
		if err := g.notifier.BroadcastToParticipants(ctx, ids, text); err != nil {
			return fmt.Errorf("broadcast hints to participants: %w", err)
		}
	}
	if err := g.notifier.BroadcastToChannels(ctx, text); err != nil {
		return fmt.Errorf("broadcast hints to channels: %w", err)
	}
	return nil
}

// HasThreeWinners reports whether the prize slots are taken. Derived from the
// ledger on every call.
func (g *GameService) HasThreeWinners(ctx context.Context) (bool, error) {
	finished, err := g.attempts.CountDistinctCorrect(ctx, g.totalLevels)
	if err != nil {
		return false, fmt.Errorf("count winners: %w", err)
	}
	return finished >= prizeWinners, nil
}

// DoHint returns the hint for q once three winners exist, charging the
// participant's penalty; before that it returns a deflection.
func (g *GameService) DoHint(ctx context.Context, p domain.Participant, q domain.Question) (string, error) {
	open, err := g.HasThreeWinners(ctx)
	if err != nil {
		return "", err
	}
	if !open {
		return msgHintsLocked, nil
	}
	if q.Hint == "" {
		return msgNoHint, nil
	}
	penalty, err := g.hints.ApplyHint(ctx, p, q)
	if err != nil {
		return "", fmt.Errorf("apply hint: %w", err)
	}
	return hintText(q, penalty), nil
}

// IsHintRequest reports whether text is the hint command.
func (g *GameService) IsHintRequest(text string) bool {
	return equalFoldTrim(text, g.hintCommand)
}
