package app

import (
	"context"

	"quest-bot/internal/domain"
)

// ParticipantStore persists registered participants (Postgres, memory).
type ParticipantStore interface {
	// Get returns domain.ErrParticipantNotFound for unknown ids.
	Get(ctx context.Context, id string) (domain.Participant, error)
	Save(ctx context.Context, p domain.Participant) error
	// ListActive returns participants without a completion time.
	ListActive(ctx context.Context) ([]domain.Participant, error)
}

// QuestionBank loads quest questions (from cache/backing store).
type QuestionBank interface {
	// Question returns domain.ErrQuestionNotFound when the level does not exist.
	Question(ctx context.Context, level int) (domain.Question, error)
}

// AttemptLedger is the append-only log of answer attempts.
type AttemptLedger interface {
	Append(ctx context.Context, attempt domain.AnswerAttempt) error
	// CountDistinctCorrect counts participants with at least one correct attempt at level.
	CountDistinctCorrect(ctx context.Context, level int) (int, error)
}

// NotificationGateway fans messages out through the chat platform.
type NotificationGateway interface {
	DirectMessage(ctx context.Context, participantID, text string) error
	BroadcastToParticipants(ctx context.Context, participantIDs []string, text string) error
	BroadcastToChannels(ctx context.Context, text string) error
}

// HintService charges time penalties for hints.
type HintService interface {
	// ApplyHint records hint usage for the question's level and returns the penalty charged, in seconds.
	ApplyHint(ctx context.Context, p domain.Participant, q domain.Question) (int64, error)
	// TotalPenalty returns the accumulated penalty in seconds.
	TotalPenalty(ctx context.Context, participantID string) (int64, error)
}

// SessionRepository abstracts where in-flight registration sessions live (in-memory, Redis, etc).
// Implementations store copies; callers Put the session back after mutating it.
type SessionRepository interface {
	Get(participantID string) (domain.RegistrationSession, bool)
	Put(session domain.RegistrationSession)
	Delete(participantID string)
}

// Catalog exposes the static community, realm and faction configuration.
type Catalog interface {
	Communities() []domain.Community
	CommunityByEmoji(emoji string) (domain.Community, bool)
	Factions() []domain.Faction
	FactionByEmoji(emoji string) (domain.Faction, bool)
	IsValidRealm(name string) bool
}
