package app

import (
	"context"

	"studyquiz-service/internal/domain"
)

// topicsBySubject is the static catalog offered to students picking a
// practice quiz.
var topicsBySubject = map[string][]string{
	"Mathematics":       {"Algebra", "Geometry", "Calculus", "Statistics", "Trigonometry", "Number Theory"},
	"Science":           {"Physics", "Chemistry", "Biology", "Astronomy", "Earth Science", "Environmental Science"},
	"Social Studies":    {"History", "Geography", "Civics", "Economics", "Political Science", "Sociology"},
	"General Knowledge": {"Current Affairs", "Geography", "Arts & Literature", "Sports", "Technology", "Entertainment"},
	"Machine Learning":  {"Supervised Learning", "Unsupervised Learning", "Deep Learning", "Neural Networks", "Natural Language Processing", "Computer Vision"},
}

// QuizService produces question sets, either ad hoc from an explicit
// subject/topic/difficulty or resolved from a shared test code. Code-scoped
// sets go through the QuestionRepository cache so every student entering the
// same code sees the same questions from a single upstream generation.
type QuizService struct {
	testCodes TestCodeRepository
	questions QuestionRepository
	generator Generator
}

func NewQuizService(testCodes TestCodeRepository, questions QuestionRepository, generator Generator) *QuizService {
	return &QuizService{testCodes: testCodes, questions: questions, generator: generator}
}

// GenerateForCode resolves an active test code and returns its question set.
func (s *QuizService) GenerateForCode(ctx context.Context, code string) (domain.TestInfo, []domain.Question, error) {
	def, err := s.testCodes.FindByCode(ctx, code)
	if err != nil {
		return domain.TestInfo{}, nil, err
	}
	if !def.Active {
		return domain.TestInfo{}, nil, domain.ErrTestCodeInactive
	}
	spec := domain.QuizSpec{Subject: def.Subject, Topic: def.Topic, Difficulty: def.Difficulty}
	questions, err := s.questions.QuestionsForCode(ctx, code, spec)
	if err != nil {
		return domain.TestInfo{}, nil, err
	}
	return def.Info(), questions, nil
}

// GenerateAdHoc produces a fresh question set for a practice quiz.
func (s *QuizService) GenerateAdHoc(ctx context.Context, spec domain.QuizSpec) ([]domain.Question, error) {
	if spec.Subject == "" || spec.Topic == "" || spec.Difficulty == "" {
		return nil, domain.Validationf("subject, topic, and difficulty are required")
	}
	return s.generator.GenerateQuestions(ctx, spec)
}

// Topics returns the known topics for a subject; unknown subjects yield an
// empty list.
func (s *QuizService) Topics(subject string) []string {
	if topics, ok := topicsBySubject[subject]; ok {
		return topics
	}
	return []string{}
}
