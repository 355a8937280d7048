package memory

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
	"quest-bot/internal/domain"
)

// QuestionLoader fetches questions from a backing store (Postgres, YAML pack).
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, level int) (domain.Question, error)
}

// QuestionRepository caches questions with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedQuestion),
	}
}

func (r *QuestionRepository) Question(ctx context.Context, level int) (domain.Question, error) {
	if q, ok := r.cached(level); ok {
		return q, nil
	}

	result, err, _ := r.sf.Do(strconv.Itoa(level), func() (interface{}, error) {
		if q, ok := r.cached(level); ok {
			return q, nil
		}

		q, err := r.loader.LoadQuestion(ctx, level)
		if err != nil {
			return domain.Question{}, err
		}

		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[level] = cachedQuestion{question: q, expiresAt: expiresAt}
		r.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (r *QuestionRepository) cached(level int) (domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[level]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Question{}, false
	}
	return entry.question, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a loader backed by an in-memory slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions map[int]domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	byLevel := make(map[int]domain.Question, len(questions))
	for _, q := range questions {
		byLevel[q.Level] = q
	}
	return &StaticQuestionLoader{questions: byLevel}
}

func (l *StaticQuestionLoader) LoadQuestion(_ context.Context, level int) (domain.Question, error) {
	if q, ok := l.questions[level]; ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// QuestionPack is the YAML layout of a question file.
type QuestionPack struct {
	Questions []domain.Question `yaml:"questions"`
}

// LoadQuestionPack reads a YAML question pack from path.
func LoadQuestionPack(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuestionPack(data)
}

// ParseQuestionPack decodes a YAML question pack and checks levels run 1..N
// without gaps or duplicates.
func ParseQuestionPack(data []byte) ([]domain.Question, error) {
	var pack QuestionPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("decode question pack: %w", err)
	}
	seen := make(map[int]struct{}, len(pack.Questions))
	for _, q := range pack.Questions {
		if q.Level < 1 {
			return nil, fmt.Errorf("question %q: level must be positive", q.Text)
		}
		if _, dup := seen[q.Level]; dup {
			return nil, fmt.Errorf("duplicate question for level %d", q.Level)
		}
		if len(q.Answers) == 0 {
			return nil, fmt.Errorf("question for level %d has no answers", q.Level)
		}
		seen[q.Level] = struct{}{}
	}
	if len(pack.Questions) == 0 {
		return nil, fmt.Errorf("question pack is empty")
	}
	for level := 1; level <= len(pack.Questions); level++ {
		if _, ok := seen[level]; !ok {
			return nil, fmt.Errorf("question pack has no level %d", level)
		}
	}
	return pack.Questions, nil
}
