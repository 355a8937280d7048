package memory

import (
	"context"
	"testing"
	"time"

	"quest-bot/internal/domain"
)

func TestHintServiceChargesOncePerLevel(t *testing.T) {
	ctx := context.Background()
	hints := NewHintService(5 * time.Minute)
	p := domain.Participant{ID: "u1"}

	if got, _ := hints.ApplyHint(ctx, p, domain.Question{Level: 1}); got != 300 {
		t.Fatalf("expected 300s penalty, got %d", got)
	}
	if got, _ := hints.ApplyHint(ctx, p, domain.Question{Level: 1}); got != 0 {
		t.Fatalf("expected repeat hint to be free, got %d", got)
	}
	if got, _ := hints.ApplyHint(ctx, p, domain.Question{Level: 2}); got != 300 {
		t.Fatalf("expected 300s penalty on new level, got %d", got)
	}

	total, err := hints.TotalPenalty(ctx, "u1")
	if err != nil {
		t.Fatalf("total penalty: %v", err)
	}
	if total != 600 {
		t.Fatalf("expected 600s total, got %d", total)
	}
	if other, _ := hints.TotalPenalty(ctx, "u2"); other != 0 {
		t.Fatalf("expected no penalty for another participant, got %d", other)
	}
}
