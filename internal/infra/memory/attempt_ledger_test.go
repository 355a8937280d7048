package memory

import (
	"context"
	"testing"

	"quest-bot/internal/domain"
)

func TestAttemptLedgerCountsDistinctCorrectParticipants(t *testing.T) {
	ctx := context.Background()
	ledger := NewAttemptLedger()

	attempts := []domain.AnswerAttempt{
		{ParticipantID: "u1", Level: 1, Answer: "x", Correct: false},
		{ParticipantID: "u1", Level: 1, Answer: "orgrimmar", Correct: true},
		{ParticipantID: "u1", Level: 1, Answer: "Orgrimmar", Correct: true},
		{ParticipantID: "u2", Level: 1, Answer: "Orgrimmar", Correct: true},
		{ParticipantID: "u3", Level: 1, Answer: "nope", Correct: false},
		{ParticipantID: "u1", Level: 2, Answer: "Anduin", Correct: true},
	}
	for _, a := range attempts {
		if err := ledger.Append(ctx, a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if n, _ := ledger.CountDistinctCorrect(ctx, 1); n != 2 {
		t.Fatalf("expected 2 distinct correct at level 1, got %d", n)
	}
	if n, _ := ledger.CountDistinctCorrect(ctx, 2); n != 1 {
		t.Fatalf("expected 1 distinct correct at level 2, got %d", n)
	}
	if n, _ := ledger.CountDistinctCorrect(ctx, 3); n != 0 {
		t.Fatalf("expected 0 at level 3, got %d", n)
	}
	if len(ledger.Attempts()) != len(attempts) {
		t.Fatalf("expected every attempt kept, got %d", len(ledger.Attempts()))
	}
}
