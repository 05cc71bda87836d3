package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"studyquiz-service/internal/domain"
)

// codeAttempts bounds the random-code retry loop on collisions.
const codeAttempts = 10

// TestCodeService covers the admin surface: issuing shareable test codes and
// deactivating them.
type TestCodeService struct {
	testCodes TestCodeRepository
	clock     func() time.Time
}

func NewTestCodeService(testCodes TestCodeRepository) *TestCodeService {
	return &TestCodeService{testCodes: testCodes, clock: time.Now}
}

// Generate issues a new unique 8-character test code for the given scope.
func (s *TestCodeService) Generate(ctx context.Context, adminID, subject, topic, difficulty string) (domain.TestDefinition, error) {
	if subject == "" || topic == "" || difficulty == "" {
		return domain.TestDefinition{}, domain.Validationf("subject, topic, and difficulty are required")
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return domain.TestDefinition{}, err
		}
		if _, err := s.testCodes.FindByCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrTestCodeNotFound) {
			return domain.TestDefinition{}, err
		}
		return s.testCodes.Create(ctx, domain.TestDefinition{
			Code:       code,
			Subject:    subject,
			Topic:      topic,
			Difficulty: difficulty,
			CreatedBy:  adminID,
			CreatedAt:  s.clock(),
			Active:     true,
		})
	}
	return domain.TestDefinition{}, errors.New("failed to generate a unique test code")
}

// List returns the codes issued by an admin, newest first.
func (s *TestCodeService) List(ctx context.Context, adminID string) ([]domain.TestDefinition, error) {
	return s.testCodes.ListByCreator(ctx, adminID)
}

// Deactivate soft-disables a code; existing score records are untouched.
func (s *TestCodeService) Deactivate(ctx context.Context, code string) error {
	return s.testCodes.Deactivate(ctx, code)
}

func randomCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf[:])), nil
}
