package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/domain"
	"studyquiz-service/internal/infra/memory"
)

type fakeGenerator struct {
	calls int
	err   error
}

func (g *fakeGenerator) GenerateQuestions(_ context.Context, spec domain.QuizSpec) ([]domain.Question, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return []domain.Question{
		{
			Question:      "Sample question on " + spec.Topic,
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "B",
		},
	}, nil
}

func newQuizFixture(gen *fakeGenerator) (*app.QuizService, *memory.TestCodeStore) {
	testCodes := memory.NewTestCodeStore()
	testCodes.Seed(domain.TestDefinition{
		Code:       "AB12CD34",
		Subject:    "Mathematics",
		Topic:      "Algebra",
		Difficulty: "medium",
		Active:     true,
	})
	cache := memory.NewQuestionCache(gen, time.Minute)
	return app.NewQuizService(testCodes, cache, gen), testCodes
}

func TestGenerateForCode(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	service, _ := newQuizFixture(gen)

	info, questions, err := service.GenerateForCode(ctx, "AB12CD34")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if info.Subject != "Mathematics" || info.Topic != "Algebra" {
		t.Fatalf("unexpected test info: %+v", info)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}

	// A second student entering the same code reuses the cached set.
	if _, _, err := service.GenerateForCode(ctx, "AB12CD34"); err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 generator call, got %d", gen.calls)
	}
}

func TestGenerateForCodeRejectsBadCodes(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	service, testCodes := newQuizFixture(gen)

	if _, _, err := service.GenerateForCode(ctx, "NOPE0000"); !errors.Is(err, domain.ErrTestCodeNotFound) {
		t.Fatalf("expected ErrTestCodeNotFound, got %v", err)
	}

	if err := testCodes.Deactivate(ctx, "AB12CD34"); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, _, err := service.GenerateForCode(ctx, "AB12CD34"); !errors.Is(err, domain.ErrTestCodeInactive) {
		t.Fatalf("expected ErrTestCodeInactive, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called for rejected codes, got %d calls", gen.calls)
	}
}

func TestGenerateAdHoc(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	service, _ := newQuizFixture(gen)

	questions, err := service.GenerateAdHoc(ctx, domain.QuizSpec{Subject: "Science", Topic: "Physics", Difficulty: "hard"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}

	if _, err := service.GenerateAdHoc(ctx, domain.QuizSpec{Subject: "Science"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateAdHocPropagatesGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: domain.ErrGenerationUnavailable}
	service, _ := newQuizFixture(gen)

	_, err := service.GenerateAdHoc(context.Background(), domain.QuizSpec{Subject: "Science", Topic: "Physics", Difficulty: "easy"})
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestTopics(t *testing.T) {
	service, _ := newQuizFixture(&fakeGenerator{})

	topics := service.Topics("Mathematics")
	if len(topics) == 0 {
		t.Fatalf("expected topics for Mathematics")
	}

	unknown := service.Topics("Alchemy")
	if unknown == nil || len(unknown) != 0 {
		t.Fatalf("expected empty non-nil list for unknown subject, got %#v", unknown)
	}
}
