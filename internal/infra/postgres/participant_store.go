package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quest-bot/internal/domain"
)

const participantColumns = `id, display_name, character_name, community_id, realm, faction, level, started_at, avatar_url, time_to_complete`

// ParticipantStore persists participants in the participants table.
type ParticipantStore struct {
	pool *pgxpool.Pool
}

func NewParticipantStore(pool *pgxpool.Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

func (s *ParticipantStore) Get(ctx context.Context, id string) (domain.Participant, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE id=$1`, id)
	p, err := scanParticipant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("load participant: %w", err)
	}
	return p, nil
}

func (s *ParticipantStore) Save(ctx context.Context, p domain.Participant) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO participants (`+participantColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	display_name=EXCLUDED.display_name,
	character_name=EXCLUDED.character_name,
	community_id=EXCLUDED.community_id,
	realm=EXCLUDED.realm,
	faction=EXCLUDED.faction,
	level=EXCLUDED.level,
	avatar_url=EXCLUDED.avatar_url,
	time_to_complete=EXCLUDED.time_to_complete`,
		p.ID, p.DisplayName, p.CharacterName, p.CommunityID, p.Realm, p.Faction,
		p.Level, p.StartedAt, p.AvatarURL, p.TimeToComplete)
	if err != nil {
		return fmt.Errorf("save participant: %w", err)
	}
	return nil
}

func (s *ParticipantStore) ListActive(ctx context.Context) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+participantColumns+` FROM participants WHERE time_to_complete IS NULL ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list active participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanParticipant(row pgx.Row) (domain.Participant, error) {
	var p domain.Participant
	err := row.Scan(&p.ID, &p.DisplayName, &p.CharacterName, &p.CommunityID, &p.Realm, &p.Faction,
		&p.Level, &p.StartedAt, &p.AvatarURL, &p.TimeToComplete)
	return p, err
}
