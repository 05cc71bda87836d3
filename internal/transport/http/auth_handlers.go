package http

import (
	"net/http"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/domain"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

type authResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, token, err := h.auth.Register(r.Context(), app.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, authResponse{
		Message:  "User registered successfully",
		Token:    token,
		Username: user.Username,
		Email:    user.Email,
	})
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, token, err := h.auth.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, authResponse{
		Message:  "Login successful",
		Token:    token,
		Username: user.Username,
		Email:    user.Email,
	})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Profile(r.Context(), studentFrom(r).UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.auth.UpdateProfile(r.Context(), studentFrom(r).UserID, req.Name, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

type quizResultRequest struct {
	Subject           string `json:"subject" validate:"required"`
	Topic             string `json:"topic"`
	Score             *int   `json:"score" validate:"required,gte=0"`
	TotalQuestions    int    `json:"totalQuestions" validate:"required,gt=0"`
	TestCode          string `json:"testCode"`
	Rank              int    `json:"rank"`
	TotalParticipants int    `json:"totalParticipants"`
	IdempotencyKey    string `json:"idempotencyKey"`
}

func (h *Handler) handleSaveQuizResult(w http.ResponseWriter, r *http.Request) {
	var req quizResultRequest
	if !h.decode(w, r, &req) {
		return
	}
	history, appended, err := h.auth.SaveQuizResult(r.Context(), studentFrom(r).UserID, app.QuizResultInput{
		Subject:           req.Subject,
		Topic:             req.Topic,
		Score:             *req.Score,
		TotalQuestions:    req.TotalQuestions,
		TestCode:          req.TestCode,
		Rank:              req.Rank,
		TotalParticipants: req.TotalParticipants,
		IdempotencyKey:    req.IdempotencyKey,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	message := "Quiz result saved successfully"
	if !appended {
		message = "Quiz result already saved"
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":     message,
		"quizHistory": history,
	})
}

func (h *Handler) handleQuizHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.auth.QuizHistory(r.Context(), studentFrom(r).UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if history == nil {
		history = []domain.QuizHistoryEntry{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"quizHistory": history})
}
