package http

import (
	"net/http"

	"studyquiz-service/internal/domain"
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS streams live leaderboard updates for a test code. Clients get the
// current standings on connect and a fresh snapshot after every accepted
// submission. Authentication uses the token query parameter since browsers
// cannot set headers on websocket upgrades.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	testCode := r.URL.Query().Get("testCode")
	if testCode == "" {
		http.Error(w, "missing testCode", http.StatusBadRequest)
		return
	}
	if _, err := h.authenticate(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	updates, cancel, err := h.scores.Subscribe(r.Context(), testCode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		// Inbound frames carry nothing; reading only detects the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: update}); err != nil {
				h.logger.Warn("ws write error", "err", err)
				return
			}
		case <-readerDone:
			return
		case <-r.Context().Done():
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "server shutting down"}})
			return
		}
	}
}
