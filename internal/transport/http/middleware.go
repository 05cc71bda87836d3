package http

import (
	"context"
	"net/http"
	"strings"

	"studyquiz-service/internal/auth"
)

type contextKey struct{}

var identityKey contextKey

// identityFrom returns the authenticated identity stored by the middleware.
func identityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey).(auth.Identity)
	return id
}

func (h *Handler) authenticate(r *http.Request) (auth.Identity, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		// Websocket clients cannot set headers; accept the query form too.
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, auth.ErrInvalidToken
	}
	return h.tokens.Parse(token)
}

// requireStudent admits student tokens only.
func (h *Handler) requireStudent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.authenticate(r)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if _, ok := identity.(auth.StudentIdentity); !ok {
			h.writeJSON(w, http.StatusForbidden, errorResponse{Error: "student access required"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	}
}

// requireAdmin admits admin tokens only.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.authenticate(r)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if _, ok := identity.(auth.AdminIdentity); !ok {
			h.writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin access required"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	}
}

func studentFrom(r *http.Request) auth.StudentIdentity {
	student, _ := identityFrom(r.Context()).(auth.StudentIdentity)
	return student
}

func adminFrom(r *http.Request) auth.AdminIdentity {
	admin, _ := identityFrom(r.Context()).(auth.AdminIdentity)
	return admin
}
