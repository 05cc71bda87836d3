package http

import (
	"net/http"

	"studyquiz-service/internal/domain"
)

type generateQuizRequest struct {
	TestCode   string `json:"testCode"`
	Subject    string `json:"subject"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

// handleGenerateQuiz serves a question set either for a shared test code or
// ad hoc for an explicit subject/topic/difficulty, mirroring how students
// start a scored test versus a practice quiz.
func (h *Handler) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req generateQuizRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.TestCode != "" {
		info, questions, err := h.quizzes.GenerateForCode(r.Context(), req.TestCode)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"testInfo":  info,
			"questions": questions,
		})
		return
	}

	questions, err := h.quizzes.GenerateAdHoc(r.Context(), domain.QuizSpec{
		Subject:    req.Subject,
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, questions)
}

type submitScoreRequest struct {
	TestCode       string `json:"testCode" validate:"required"`
	Score          *int   `json:"score" validate:"required,gte=0"`
	TotalQuestions int    `json:"totalQuestions" validate:"required,gt=0"`
	TimeTaken      *int   `json:"timeTaken" validate:"required,gte=0"`
}

func (h *Handler) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.scores.SubmitScore(r.Context(), req.TestCode, studentFrom(r).UserID,
		*req.Score, req.TotalQuestions, *req.TimeTaken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":           "Test score saved successfully",
		"result":            result.Record,
		"rank":              result.Rank,
		"totalParticipants": result.TotalParticipants,
	})
}

// handleLeaderboard serves both the student and admin leaderboard routes; the
// ranked view is identical.
func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.scores.GetLeaderboard(r.Context(), r.PathValue("testCode"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if lb.Entries == nil {
		lb.Entries = []domain.LeaderboardEntry{}
	}
	h.writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) handleUserScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.scores.UserScores(r.Context(), studentFrom(r).UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if scores == nil {
		scores = []domain.UserScore{}
	}
	h.writeJSON(w, http.StatusOK, scores)
}

func (h *Handler) handleTopics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"topics": h.quizzes.Topics(r.PathValue("subject")),
	})
}
