package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quest-bot/internal/domain"
)

// QuestionLoader fetches questions from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, level int) (domain.Question, error)
}

// QuestionRepository caches questions in Redis (hash per level) and falls back to a loader on cache miss.
// Layout: HSET quest:question:{level} text .. answers [json] complete_text .. hint ..
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) Question(ctx context.Context, level int) (domain.Question, error) {
	key := r.key(level)

	if q, ok := r.fromCache(ctx, key, level); ok {
		return q, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := r.fromCache(ctx, key, level); ok {
			return q, nil
		}

		q, err := r.loader.LoadQuestion(ctx, level)
		if err != nil {
			return domain.Question{}, err
		}

		answers, err := json.Marshal(q.Answers)
		if err != nil {
			return domain.Question{}, err
		}
		pipe := r.client.Pipeline()
		pipe.HSet(ctx, key,
			"text", q.Text,
			"answers", string(answers),
			"complete_text", q.CompleteText,
			"hint", q.Hint,
		)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		// Cache fill is best-effort; the loaded question is still valid.
		_, _ = pipe.Exec(ctx)

		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (r *QuestionRepository) fromCache(ctx context.Context, key string, level int) (domain.Question, bool) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return domain.Question{}, false
	}
	var answers []string
	if err := json.Unmarshal([]byte(fields["answers"]), &answers); err != nil {
		return domain.Question{}, false
	}
	return domain.Question{
		Level:        level,
		Text:         fields["text"],
		Answers:      answers,
		CompleteText: fields["complete_text"],
		Hint:         fields["hint"],
	}, true
}

func (r *QuestionRepository) key(level int) string {
	return "quest:question:" + strconv.Itoa(level)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
