package http

import (
	"net/http"

	"studyquiz-service/internal/domain"
)

type adminSignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) handleAdminSignup(w http.ResponseWriter, r *http.Request) {
	var req adminSignupRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.auth.AdminSignup(r.Context(), req.Name, req.Email, req.Password); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"message": "Admin registered successfully"})
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	admin, token, err := h.auth.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"admin": map[string]string{
			"id":    admin.ID,
			"name":  admin.Name,
			"email": admin.Email,
		},
	})
}

type generateTestCodeRequest struct {
	Subject    string `json:"subject" validate:"required"`
	Topic      string `json:"topic" validate:"required"`
	Difficulty string `json:"difficulty" validate:"required"`
}

func (h *Handler) handleGenerateTestCode(w http.ResponseWriter, r *http.Request) {
	var req generateTestCodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	def, err := h.testCodes.Generate(r.Context(), adminFrom(r).AdminID, req.Subject, req.Topic, req.Difficulty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Test code generated successfully",
		"testCode": def,
	})
}

func (h *Handler) handleListTestCodes(w http.ResponseWriter, r *http.Request) {
	defs, err := h.testCodes.List(r.Context(), adminFrom(r).AdminID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if defs == nil {
		defs = []domain.TestDefinition{}
	}
	h.writeJSON(w, http.StatusOK, defs)
}

func (h *Handler) handleDeactivateTestCode(w http.ResponseWriter, r *http.Request) {
	if err := h.testCodes.Deactivate(r.Context(), r.PathValue("code")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Test code deactivated"})
}
