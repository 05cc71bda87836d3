package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/auth"
	"studyquiz-service/internal/domain"
)

// Handler exposes the REST and websocket surface of the service.
type Handler struct {
	auth      *app.AuthService
	scores    *app.ScoreService
	quizzes   *app.QuizService
	testCodes *app.TestCodeService
	tokens    *auth.Manager
	validate  *validator.Validate
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

func NewHandler(authSvc *app.AuthService, scores *app.ScoreService, quizzes *app.QuizService, testCodes *app.TestCodeService, tokens *auth.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		auth:      authSvc,
		scores:    scores,
		quizzes:   quizzes,
		testCodes: testCodes,
		tokens:    tokens,
		validate:  validator.New(),
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the service mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("GET /api/auth/profile", h.requireStudent(h.handleProfile))
	mux.HandleFunc("PUT /api/auth/profile", h.requireStudent(h.handleUpdateProfile))
	mux.HandleFunc("POST /api/auth/quiz-result", h.requireStudent(h.handleSaveQuizResult))
	mux.HandleFunc("GET /api/auth/quiz-history", h.requireStudent(h.handleQuizHistory))

	mux.HandleFunc("POST /api/admin/signup", h.handleAdminSignup)
	mux.HandleFunc("POST /api/admin/login", h.handleAdminLogin)
	mux.HandleFunc("POST /api/admin/test-codes", h.requireAdmin(h.handleGenerateTestCode))
	mux.HandleFunc("GET /api/admin/test-codes", h.requireAdmin(h.handleListTestCodes))
	mux.HandleFunc("DELETE /api/admin/test-codes/{code}", h.requireAdmin(h.handleDeactivateTestCode))
	mux.HandleFunc("GET /api/admin/leaderboard/{testCode}", h.requireAdmin(h.handleLeaderboard))

	mux.HandleFunc("POST /api/quiz/generate", h.requireStudent(h.handleGenerateQuiz))
	mux.HandleFunc("POST /api/quiz/score", h.requireStudent(h.handleSubmitScore))
	mux.HandleFunc("GET /api/quiz/leaderboard/{testCode}", h.requireStudent(h.handleLeaderboard))
	mux.HandleFunc("GET /api/quiz/scores", h.requireStudent(h.handleUserScores))
	mux.HandleFunc("GET /api/quiz/topics/{subject}", h.handleTopics)

	mux.HandleFunc("GET /ws/leaderboard", h.ServeWS)

	return mux
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, domain.Validationf("invalid request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, domain.Validationf("%v", err))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("write response", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrTestCodeNotFound),
		errors.Is(err, domain.ErrTestCodeInactive),
		errors.Is(err, domain.ErrScoreNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrDuplicateUser), errors.Is(err, domain.ErrDuplicateTestCode):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrGenerationUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "err", err)
		h.writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
