package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"quest-bot/internal/domain"
)

// applyHintScript marks the level as hinted and charges the penalty only the
// first time. KEYS[1] levels set, KEYS[2] penalty counter; ARGV[1] level, ARGV[2] penalty.
var applyHintScript = redis.NewScript(`
if redis.call("SADD", KEYS[1], ARGV[1]) == 1 then
	redis.call("INCRBY", KEYS[2], ARGV[2])
	return tonumber(ARGV[2])
end
return 0
`)

// HintService keeps hint usage and penalties in Redis so they survive restarts.
type HintService struct {
	client  *redis.Client
	penalty int64
}

func NewHintService(client *redis.Client, penalty time.Duration) *HintService {
	return &HintService{client: client, penalty: int64(penalty / time.Second)}
}

func (s *HintService) ApplyHint(ctx context.Context, p domain.Participant, q domain.Question) (int64, error) {
	keys := []string{s.levelsKey(p.ID), s.penaltyKey(p.ID)}
	return applyHintScript.Run(ctx, s.client, keys, strconv.Itoa(q.Level), s.penalty).Int64()
}

func (s *HintService) TotalPenalty(ctx context.Context, participantID string) (int64, error) {
	total, err := s.client.Get(ctx, s.penaltyKey(participantID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return total, err
}

func (s *HintService) levelsKey(participantID string) string {
	return "quest:hints:" + participantID + ":levels"
}

func (s *HintService) penaltyKey(participantID string) string {
	return "quest:hints:" + participantID + ":penalty"
}
