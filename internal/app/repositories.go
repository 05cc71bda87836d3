package app

import (
	"context"

	"studyquiz-service/internal/domain"
)

// ScoreRepository persists per-(test code, user) best-score records. Create
// must fail with domain.ErrDuplicateScore when the (test code, user) pair
// already exists so the service can recover the first-submission race.
type ScoreRepository interface {
	ListByTestCode(ctx context.Context, testCode string) ([]domain.ScoreRecord, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ScoreRecord, error)
	Find(ctx context.Context, testCode, userID string) (domain.ScoreRecord, error)
	Create(ctx context.Context, record domain.ScoreRecord) (domain.ScoreRecord, error)
	Update(ctx context.Context, record domain.ScoreRecord) (domain.ScoreRecord, error)
	UpdateRanks(ctx context.Context, testCode string, ranked []domain.ScoreRecord) error
}

// TestCodeRepository stores admin-issued test definitions.
type TestCodeRepository interface {
	FindByCode(ctx context.Context, code string) (domain.TestDefinition, error)
	Create(ctx context.Context, def domain.TestDefinition) (domain.TestDefinition, error)
	ListByCreator(ctx context.Context, adminID string) ([]domain.TestDefinition, error)
	Deactivate(ctx context.Context, code string) error
}

// UserRepository stores student accounts and their quiz history.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	// FindByIdentifier matches either email or username.
	FindByIdentifier(ctx context.Context, identifier string) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	AppendHistory(ctx context.Context, userID string, entry domain.QuizHistoryEntry) error
	History(ctx context.Context, userID string) ([]domain.QuizHistoryEntry, error)
}

// AdminRepository stores admin accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin domain.Admin) (domain.Admin, error)
	FindByEmail(ctx context.Context, email string) (domain.Admin, error)
}

// QuestionRepository serves the generated question set for a test code,
// typically a cache in front of a Generator so concurrent students entering
// the same code share one upstream generation.
type QuestionRepository interface {
	QuestionsForCode(ctx context.Context, code string, spec domain.QuizSpec) ([]domain.Question, error)
}

// Generator produces multiple-choice questions for a quiz spec.
type Generator interface {
	GenerateQuestions(ctx context.Context, spec domain.QuizSpec) ([]domain.Question, error)
}
