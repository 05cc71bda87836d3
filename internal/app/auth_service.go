package app

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"studyquiz-service/internal/auth"
	"studyquiz-service/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// duplicateWindow is how long an identical quiz result is treated as a client
// double-submit rather than a new entry.
const duplicateWindow = 60 * time.Second

// AuthService handles student and admin accounts plus per-user quiz history.
type AuthService struct {
	users  UserRepository
	admins AdminRepository
	tokens *auth.Manager
	clock  func() time.Time
}

func NewAuthService(users UserRepository, admins AdminRepository, tokens *auth.Manager) *AuthService {
	return &AuthService{users: users, admins: admins, tokens: tokens, clock: time.Now}
}

// NewAuthServiceWithClock is test-only for deterministic timestamps.
func NewAuthServiceWithClock(users UserRepository, admins AdminRepository, tokens *auth.Manager, now func() time.Time) *AuthService {
	s := NewAuthService(users, admins, tokens)
	s.clock = now
	return s
}

// RegisterInput carries a signup request. Username and Name default to the
// email's local part when omitted.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

// Register creates a student account and returns it with a signed token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, string, error) {
	if in.Email == "" || in.Password == "" {
		return domain.User{}, "", domain.Validationf("email and password are required")
	}
	if !emailPattern.MatchString(in.Email) {
		return domain.User{}, "", domain.Validationf("invalid email address")
	}

	username := in.Username
	if username == "" {
		username = strings.SplitN(in.Email, "@", 2)[0]
	}
	name := in.Name
	if name == "" {
		name = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, "", err
	}

	user, err := s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.ToLower(in.Email),
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.clock(),
	})
	if err != nil {
		return domain.User{}, "", err
	}

	token, err := s.tokens.IssueStudent(user.ID, user.Username)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Login authenticates by email or username.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (domain.User, string, error) {
	if identifier == "" || password == "" {
		return domain.User{}, "", domain.Validationf("identifier and password are required")
	}
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	token, err := s.tokens.IssueStudent(user.ID, user.Username)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Profile returns the account for a user id.
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile changes the display name and/or email. Empty fields are left
// untouched.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, email string) (domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if email != "" {
		if !emailPattern.MatchString(email) {
			return domain.User{}, domain.Validationf("invalid email address")
		}
		user.Email = strings.ToLower(email)
	}
	if name != "" {
		user.Name = name
	}
	return s.users.Update(ctx, user)
}

// QuizResultInput is one completed quiz to append to a user's history.
type QuizResultInput struct {
	Subject           string
	Topic             string
	Score             int
	TotalQuestions    int
	TestCode          string
	Rank              int
	TotalParticipants int
	// IdempotencyKey is a client-supplied dedup token. When present it takes
	// precedence over the time-window heuristic.
	IdempotencyKey string
}

// SaveQuizResult appends a history entry unless it is a duplicate: either an
// entry with the same idempotency key exists, or an identical
// (subject, topic, score, totalQuestions) entry landed within the last
// minute. Duplicates return the existing history unchanged.
func (s *AuthService) SaveQuizResult(ctx context.Context, userID string, in QuizResultInput) ([]domain.QuizHistoryEntry, bool, error) {
	if in.Subject == "" || in.TotalQuestions <= 0 {
		return nil, false, domain.Validationf("subject and totalQuestions are required")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, false, err
	}

	history, err := s.users.History(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	now := s.clock()
	for _, prev := range history {
		if in.IdempotencyKey != "" && prev.IdempotencyKey == in.IdempotencyKey {
			return history, false, nil
		}
		if prev.Subject == in.Subject && prev.Topic == in.Topic &&
			prev.Score == in.Score && prev.TotalQuestions == in.TotalQuestions &&
			now.Sub(prev.Date) < duplicateWindow {
			return history, false, nil
		}
	}

	entry := domain.QuizHistoryEntry{
		ID:                uuid.NewString(),
		Subject:           in.Subject,
		Topic:             in.Topic,
		Score:             in.Score,
		TotalQuestions:    in.TotalQuestions,
		TestCode:          in.TestCode,
		Rank:              in.Rank,
		TotalParticipants: in.TotalParticipants,
		IdempotencyKey:    in.IdempotencyKey,
		Date:              now,
	}
	if err := s.users.AppendHistory(ctx, userID, entry); err != nil {
		return nil, false, err
	}
	return append(history, entry), true, nil
}

// QuizHistory returns a user's full history, oldest first.
func (s *AuthService) QuizHistory(ctx context.Context, userID string) ([]domain.QuizHistoryEntry, error) {
	return s.users.History(ctx, userID)
}

// AdminSignup creates an admin account. Admins log in separately and never
// share tokens with students.
func (s *AuthService) AdminSignup(ctx context.Context, name, email, password string) (domain.Admin, error) {
	if email == "" || password == "" {
		return domain.Admin{}, domain.Validationf("email and password are required")
	}
	if !emailPattern.MatchString(email) {
		return domain.Admin{}, domain.Validationf("invalid email address")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Admin{}, err
	}
	return s.admins.Create(ctx, domain.Admin{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		CreatedAt:    s.clock(),
	})
}

// AdminLogin authenticates an admin by email.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (domain.Admin, string, error) {
	admin, err := s.admins.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Admin{}, "", domain.ErrInvalidCredentials
		}
		return domain.Admin{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return domain.Admin{}, "", domain.ErrInvalidCredentials
	}
	token, err := s.tokens.IssueAdmin(admin.ID, admin.Email)
	if err != nil {
		return domain.Admin{}, "", err
	}
	return admin, token, nil
}
