package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quest-bot/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	q, err := repo.Question(context.Background(), 1)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.Text != "Where does Thrall live?" {
		t.Fatalf("unexpected question %+v", q)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.Question(context.Background(), 1); err != nil {
		t.Fatalf("get question 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := repo.Question(context.Background(), 99); !errors.Is(err, domain.ErrQuestionNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected loader hit on every miss, got %d", loader.calls)
	}
}

func TestParseQuestionPack(t *testing.T) {
	questions, err := ParseQuestionPack([]byte(`
questions:
  - level: 1
    text: Where does Thrall live?
    answers: [Orgrimmar, "Оргриммар"]
    complete_text: Lok'tar!
    hint: Capital of the Horde
  - level: 2
    text: Who leads the Alliance?
    answers: [Anduin]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 2 || questions[0].CompleteText != "Lok'tar!" || len(questions[0].Answers) != 2 {
		t.Fatalf("unexpected questions %+v", questions)
	}

	if _, err := ParseQuestionPack([]byte("questions:\n  - level: 1\n    answers: [a]\n  - level: 1\n    answers: [b]\n")); err == nil {
		t.Fatalf("expected duplicate level error")
	}
	if _, err := ParseQuestionPack([]byte("questions:\n  - level: 1\n    text: no answers\n")); err == nil {
		t.Fatalf("expected missing answers error")
	}
}

func TestParseQuestionPackRejectsGaps(t *testing.T) {
	_, err := ParseQuestionPack([]byte("questions:\n  - level: 1\n    answers: [a]\n  - level: 3\n    answers: [c]\n"))
	if err == nil || !strings.Contains(err.Error(), "no level 2") {
		t.Fatalf("expected gap error, got %v", err)
	}
	if _, err := ParseQuestionPack([]byte("questions: []\n")); err == nil {
		t.Fatalf("expected empty pack error")
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestion(ctx context.Context, level int) (domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestion(ctx, level)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Level:        1,
			Text:         "Where does Thrall live?",
			Answers:      []string{"Orgrimmar"},
			CompleteText: "Lok'tar!",
			Hint:         "Capital of the Horde",
		},
	}
}
