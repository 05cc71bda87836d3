package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/auth"
	"studyquiz-service/internal/domain"
	"studyquiz-service/internal/infra/memory"
)

type stubGenerator struct{}

func (stubGenerator) GenerateQuestions(_ context.Context, spec domain.QuizSpec) ([]domain.Question, error) {
	return []domain.Question{
		{
			Question:      "Sample question on " + spec.Topic,
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
		},
	}, nil
}

type testEnv struct {
	server    *httptest.Server
	tokens    *auth.Manager
	testCodes *memory.TestCodeStore
	scores    *app.ScoreService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	scoreStore := memory.NewScoreStore()
	testCodes := memory.NewTestCodeStore()
	users := memory.NewUserStore()
	admins := memory.NewAdminStore()
	tokens := auth.NewManager("test-secret", time.Hour)

	authSvc := app.NewAuthService(users, admins, tokens)
	scoreSvc := app.NewScoreService(scoreStore, testCodes, users)
	quizSvc := app.NewQuizService(testCodes, memory.NewQuestionCache(stubGenerator{}, time.Minute), stubGenerator{})
	codeSvc := app.NewTestCodeService(testCodes)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(authSvc, scoreSvc, quizSvc, codeSvc, tokens, logger)

	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)

	return &testEnv{server: server, tokens: tokens, testCodes: testCodes, scores: scoreSvc}
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func (e *testEnv) registerStudent(t *testing.T, username, email string) string {
	t.Helper()
	status, body := e.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": username,
		"email":    email,
		"password": "secret1",
	})
	if status != http.StatusCreated {
		t.Fatalf("register returned %d: %v", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("register returned no token: %v", body)
	}
	return token
}

func (e *testEnv) seedTestCode(code string) {
	e.testCodes.Seed(domain.TestDefinition{
		Code:       code,
		Subject:    "Mathematics",
		Topic:      "Algebra",
		Difficulty: "medium",
		CreatedBy:  "admin-1",
		CreatedAt:  time.Now(),
		Active:     true,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	env.registerStudent(t, "alice", "alice@example.com")

	status, body := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"identifier": "alice",
		"password":   "secret1",
	})
	if status != http.StatusOK {
		t.Fatalf("login returned %d: %v", status, body)
	}
	if body["username"] != "alice" {
		t.Fatalf("unexpected login response: %v", body)
	}

	status, _ = env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"identifier": "alice",
		"password":   "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", status)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "not-an-email",
		"password": "secret1",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d", status)
	}

	status, _ = env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "a@b.com",
		"password": "short",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", status)
	}
}

func TestAuthRequiredOnProtectedRoutes(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.doJSON(t, http.MethodGet, "/api/quiz/scores", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	status, _ = env.doJSON(t, http.MethodGet, "/api/quiz/scores", "garbage-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", status)
	}
}

func TestRoleEnforcement(t *testing.T) {
	env := newTestEnv(t)

	studentToken := env.registerStudent(t, "alice", "alice@example.com")
	adminToken, err := env.tokens.IssueAdmin("admin-1", "rivera@school.edu")
	if err != nil {
		t.Fatalf("issue admin token: %v", err)
	}

	status, _ := env.doJSON(t, http.MethodPost, "/api/admin/test-codes", studentToken, map[string]any{
		"subject": "Mathematics", "topic": "Algebra", "difficulty": "easy",
	})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for student on admin route, got %d", status)
	}

	status, _ = env.doJSON(t, http.MethodGet, "/api/quiz/scores", adminToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for admin on student route, got %d", status)
	}
}

func TestAdminTestCodeLifecycle(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.doJSON(t, http.MethodPost, "/api/admin/signup", "", map[string]any{
		"name": "Ms. Rivera", "email": "rivera@school.edu", "password": "secret1",
	})
	if status != http.StatusCreated {
		t.Fatalf("admin signup returned %d", status)
	}

	status, body := env.doJSON(t, http.MethodPost, "/api/admin/login", "", map[string]any{
		"email": "rivera@school.edu", "password": "secret1",
	})
	if status != http.StatusOK {
		t.Fatalf("admin login returned %d: %v", status, body)
	}
	adminToken, _ := body["token"].(string)

	status, body = env.doJSON(t, http.MethodPost, "/api/admin/test-codes", adminToken, map[string]any{
		"subject": "Science", "topic": "Physics", "difficulty": "hard",
	})
	if status != http.StatusCreated {
		t.Fatalf("generate test code returned %d: %v", status, body)
	}
	def, _ := body["testCode"].(map[string]any)
	code, _ := def["testCode"].(string)
	if len(code) != 8 {
		t.Fatalf("expected 8-character code, got %q", code)
	}

	status, _ = env.doJSON(t, http.MethodDelete, "/api/admin/test-codes/"+code, adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("deactivate returned %d", status)
	}

	studentToken := env.registerStudent(t, "alice", "alice@example.com")
	status, _ = env.doJSON(t, http.MethodPost, "/api/quiz/score", studentToken, map[string]any{
		"testCode": code, "score": 5, "totalQuestions": 10, "timeTaken": 60,
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 submitting to deactivated code, got %d", status)
	}
}

func TestSubmitScoreAndLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	env.seedTestCode("AB12CD34")

	aliceToken := env.registerStudent(t, "alice", "alice@example.com")
	bobToken := env.registerStudent(t, "bob", "bob@example.com")

	status, body := env.doJSON(t, http.MethodPost, "/api/quiz/score", aliceToken, map[string]any{
		"testCode": "AB12CD34", "score": 8, "totalQuestions": 10, "timeTaken": 120,
	})
	if status != http.StatusOK {
		t.Fatalf("submit returned %d: %v", status, body)
	}
	if rank, _ := body["rank"].(float64); rank != 1 {
		t.Fatalf("expected rank 1, got %v", body["rank"])
	}

	status, body = env.doJSON(t, http.MethodPost, "/api/quiz/score", bobToken, map[string]any{
		"testCode": "AB12CD34", "score": 9, "totalQuestions": 10, "timeTaken": 100,
	})
	if status != http.StatusOK {
		t.Fatalf("submit returned %d: %v", status, body)
	}
	if rank, _ := body["rank"].(float64); rank != 1 {
		t.Fatalf("expected bob at rank 1, got %v", body["rank"])
	}

	status, body = env.doJSON(t, http.MethodGet, "/api/quiz/leaderboard/AB12CD34", aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("leaderboard returned %d: %v", status, body)
	}
	entries, _ := body["leaderboard"].([]any)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	top, _ := entries[0].(map[string]any)
	if top["username"] != "bob" {
		t.Fatalf("expected bob on top, got %v", top["username"])
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedTestCode("AB12CD34")
	token := env.registerStudent(t, "alice", "alice@example.com")

	// Missing score must be rejected even though 0 is a legal value.
	status, _ := env.doJSON(t, http.MethodPost, "/api/quiz/score", token, map[string]any{
		"testCode": "AB12CD34", "totalQuestions": 10, "timeTaken": 60,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing score, got %d", status)
	}

	status, body := env.doJSON(t, http.MethodPost, "/api/quiz/score", token, map[string]any{
		"testCode": "AB12CD34", "score": 0, "totalQuestions": 10, "timeTaken": 0,
	})
	if status != http.StatusOK {
		t.Fatalf("zero score and time are legal, got %d: %v", status, body)
	}
}

func TestLeaderboardUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerStudent(t, "alice", "alice@example.com")

	status, _ := env.doJSON(t, http.MethodGet, "/api/quiz/leaderboard/NOPE0000", token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestGenerateQuizForCode(t *testing.T) {
	env := newTestEnv(t)
	env.seedTestCode("AB12CD34")
	token := env.registerStudent(t, "alice", "alice@example.com")

	status, body := env.doJSON(t, http.MethodPost, "/api/quiz/generate", token, map[string]any{
		"testCode": "AB12CD34",
	})
	if status != http.StatusOK {
		t.Fatalf("generate returned %d: %v", status, body)
	}
	info, _ := body["testInfo"].(map[string]any)
	if info["subject"] != "Mathematics" {
		t.Fatalf("unexpected test info: %v", info)
	}
	questions, _ := body["questions"].([]any)
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
}

func TestSaveQuizResult(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerStudent(t, "alice", "alice@example.com")

	payload := map[string]any{
		"subject": "Mathematics", "topic": "Algebra", "score": 7, "totalQuestions": 10,
	}
	status, body := env.doJSON(t, http.MethodPost, "/api/auth/quiz-result", token, payload)
	if status != http.StatusOK {
		t.Fatalf("save returned %d: %v", status, body)
	}
	if body["message"] != "Quiz result saved successfully" {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	// An immediate identical retry is absorbed.
	status, body = env.doJSON(t, http.MethodPost, "/api/auth/quiz-result", token, payload)
	if status != http.StatusOK {
		t.Fatalf("retry returned %d: %v", status, body)
	}
	if body["message"] != "Quiz result already saved" {
		t.Fatalf("unexpected retry message: %v", body["message"])
	}
	history, _ := body["quizHistory"].([]any)
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
}

func TestTopics(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.doJSON(t, http.MethodGet, "/api/quiz/topics/Mathematics", "", nil)
	if status != http.StatusOK {
		t.Fatalf("topics returned %d", status)
	}
	topics, _ := body["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("expected topics for Mathematics")
	}
}
