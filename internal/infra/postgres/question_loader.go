package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quest-bot/internal/domain"
)

// QuestionLoader loads questions from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestion(ctx context.Context, level int) (domain.Question, error) {
	q := domain.Question{Level: level}
	err := l.pool.QueryRow(ctx,
		`SELECT text, answers, complete_text, hint FROM questions WHERE level=$1`, level).
		Scan(&q.Text, &q.Answers, &q.CompleteText, &q.Hint)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

// Levels returns the number of stored levels. Levels must run 1..N without gaps.
func (l *QuestionLoader) Levels(ctx context.Context) (int, error) {
	var count, maxLevel int
	err := l.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(MAX(level), 0) FROM questions`).Scan(&count, &maxLevel)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	if count != maxLevel {
		return 0, fmt.Errorf("questions table has %d rows but the last level is %d", count, maxLevel)
	}
	return count, nil
}

// ImportQuestions upserts a question pack in one transaction.
func ImportQuestions(ctx context.Context, pool *pgxpool.Pool, questions []domain.Question) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, q := range questions {
		_, err := tx.Exec(ctx, `
INSERT INTO questions (level, text, answers, complete_text, hint) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (level) DO UPDATE SET text=EXCLUDED.text, answers=EXCLUDED.answers, complete_text=EXCLUDED.complete_text, hint=EXCLUDED.hint`,
			q.Level, q.Text, q.Answers, q.CompleteText, q.Hint)
		if err != nil {
			return fmt.Errorf("import level %d: %w", q.Level, err)
		}
	}
	return tx.Commit(ctx)
}
