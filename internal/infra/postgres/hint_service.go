package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quest-bot/internal/domain"
)

// HintService records hint usage in hint_usages; the primary key makes the
// first hint per level the only charged one.
type HintService struct {
	pool    *pgxpool.Pool
	penalty int64
	now     func() time.Time
}

func NewHintService(pool *pgxpool.Pool, penalty time.Duration) *HintService {
	return &HintService{pool: pool, penalty: int64(penalty / time.Second), now: time.Now}
}

func (s *HintService) ApplyHint(ctx context.Context, p domain.Participant, q domain.Question) (int64, error) {
	var charged int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO hint_usages (participant_id, level, penalty, used_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (participant_id, level) DO NOTHING
RETURNING penalty`, p.ID, q.Level, s.penalty, s.now()).Scan(&charged)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("record hint: %w", err)
	}
	return charged, nil
}

func (s *HintService) TotalPenalty(ctx context.Context, participantID string) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(penalty), 0)::BIGINT FROM hint_usages WHERE participant_id=$1`, participantID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum hint penalty: %w", err)
	}
	return total, nil
}
