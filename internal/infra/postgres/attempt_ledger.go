package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quest-bot/internal/domain"
)

// AttemptLedger appends answer attempts to the answer_attempts table.
type AttemptLedger struct {
	pool *pgxpool.Pool
}

func NewAttemptLedger(pool *pgxpool.Pool) *AttemptLedger {
	return &AttemptLedger{pool: pool}
}

func (l *AttemptLedger) Append(ctx context.Context, a domain.AnswerAttempt) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO answer_attempts (id, participant_id, level, answer, is_correct, given_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.ParticipantID, a.Level, a.Answer, a.Correct, a.GivenAt)
	if err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

func (l *AttemptLedger) CountDistinctCorrect(ctx context.Context, level int) (int, error) {
	var n int
	err := l.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT participant_id) FROM answer_attempts WHERE level=$1 AND is_correct`, level).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count correct attempts: %w", err)
	}
	return n, nil
}
