package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/auth"
	"studyquiz-service/internal/domain"
	"studyquiz-service/internal/infra/memory"
)

func newAuthFixture() (*app.AuthService, *auth.Manager, *time.Time) {
	users := memory.NewUserStore()
	admins := memory.NewAdminStore()
	tokens := auth.NewManager("test-secret", time.Hour)
	now := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	service := app.NewAuthServiceWithClock(users, admins, tokens, func() time.Time { return now })
	return service, tokens, &now
}

func TestRegisterDefaultsUsernameFromEmail(t *testing.T) {
	ctx := context.Background()
	service, tokens, _ := newAuthFixture()

	user, token, err := service.Register(ctx, app.RegisterInput{Email: "Alice@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Username != "Alice" {
		t.Fatalf("expected username from email local part, got %q", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}

	identity, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	student, ok := identity.(auth.StudentIdentity)
	if !ok {
		t.Fatalf("expected student identity, got %T", identity)
	}
	if student.UserID != user.ID {
		t.Fatalf("token subject %q does not match user %q", student.UserID, user.ID)
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newAuthFixture()

	if _, _, err := service.Register(ctx, app.RegisterInput{Email: "not-an-email", Password: "secret1"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := service.Register(ctx, app.RegisterInput{Email: "a@b.com"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for missing password, got %v", err)
	}

	if _, _, err := service.Register(ctx, app.RegisterInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, err := service.Register(ctx, app.RegisterInput{Email: "a@b.com", Password: "other12"}); !errors.Is(err, domain.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestLoginByEmailOrUsername(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newAuthFixture()

	if _, _, err := service.Register(ctx, app.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, _, err := service.Login(ctx, "alice@example.com", "secret1"); err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
	if _, _, err := service.Login(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("login by username failed: %v", err)
	}
	if _, _, err := service.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	// Unknown accounts are indistinguishable from bad passwords.
	if _, _, err := service.Login(ctx, "nobody", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newAuthFixture()

	user, _, err := service.Register(ctx, app.RegisterInput{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	updated, err := service.UpdateProfile(ctx, user.ID, "Alice B", "Alice.B@Example.com")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Alice B" || updated.Email != "alice.b@example.com" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	if _, err := service.UpdateProfile(ctx, user.ID, "", "nope"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := service.UpdateProfile(ctx, "missing", "X", ""); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSaveQuizResultDuplicateWindow(t *testing.T) {
	ctx := context.Background()
	service, _, now := newAuthFixture()

	user, _, err := service.Register(ctx, app.RegisterInput{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result := app.QuizResultInput{Subject: "Mathematics", Topic: "Algebra", Score: 7, TotalQuestions: 10}

	history, appended, err := service.SaveQuizResult(ctx, user.ID, result)
	if err != nil || !appended {
		t.Fatalf("first save: appended=%v err=%v", appended, err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(history))
	}

	// Identical result 30s later is treated as a client double-submit.
	*now = now.Add(30 * time.Second)
	history, appended, err = service.SaveQuizResult(ctx, user.ID, result)
	if err != nil || appended {
		t.Fatalf("duplicate save: appended=%v err=%v", appended, err)
	}
	if len(history) != 1 {
		t.Fatalf("expected history unchanged, got %d entries", len(history))
	}

	// A different score inside the window is a genuine new result.
	other := result
	other.Score = 9
	if _, appended, err = service.SaveQuizResult(ctx, user.ID, other); err != nil || !appended {
		t.Fatalf("distinct save: appended=%v err=%v", appended, err)
	}

	// The same result again after the window closes.
	*now = now.Add(61 * time.Second)
	history, appended, err = service.SaveQuizResult(ctx, user.ID, result)
	if err != nil || !appended {
		t.Fatalf("post-window save: appended=%v err=%v", appended, err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
}

func TestSaveQuizResultIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	service, _, now := newAuthFixture()

	user, _, err := service.Register(ctx, app.RegisterInput{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result := app.QuizResultInput{Subject: "Science", Topic: "Physics", Score: 5, TotalQuestions: 10, IdempotencyKey: "req-1"}
	if _, appended, err := service.SaveQuizResult(ctx, user.ID, result); err != nil || !appended {
		t.Fatalf("first save: appended=%v err=%v", appended, err)
	}

	// Keyed retries are dropped even long after the time window.
	*now = now.Add(10 * time.Minute)
	history, appended, err := service.SaveQuizResult(ctx, user.ID, result)
	if err != nil || appended {
		t.Fatalf("keyed retry: appended=%v err=%v", appended, err)
	}
	if len(history) != 1 {
		t.Fatalf("expected history unchanged, got %d entries", len(history))
	}

	result.IdempotencyKey = "req-2"
	if _, appended, err := service.SaveQuizResult(ctx, user.ID, result); err != nil || !appended {
		t.Fatalf("new key save: appended=%v err=%v", appended, err)
	}
}

func TestSaveQuizResultUnknownUser(t *testing.T) {
	service, _, _ := newAuthFixture()
	_, _, err := service.SaveQuizResult(context.Background(), "missing", app.QuizResultInput{Subject: "Mathematics", TotalQuestions: 10})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	service, tokens, _ := newAuthFixture()

	admin, err := service.AdminSignup(ctx, "Ms. Rivera", "rivera@school.edu", "secret1")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	got, token, err := service.AdminLogin(ctx, "Rivera@School.edu", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got.ID != admin.ID {
		t.Fatalf("expected admin %q, got %q", admin.ID, got.ID)
	}

	identity, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if _, ok := identity.(auth.AdminIdentity); !ok {
		t.Fatalf("expected admin identity, got %T", identity)
	}

	if _, _, err := service.AdminLogin(ctx, "rivera@school.edu", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := service.AdminLogin(ctx, "nobody@school.edu", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
