package server

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/playcadiz/pokeruta/internal/mailcheck"
	"github.com/playcadiz/pokeruta/internal/metrics"
)

const maxNickLength = 50

// RegisterRequest is the request body for POST /api/register.
type RegisterRequest struct {
	Nick    string `json:"nick"`
	Email   string `json:"email"`
	Consent bool   `json:"consent"`
}

// RegisterResponse is the response for POST /api/register.
type RegisterResponse struct {
	OK            bool   `json:"ok"`
	ParticipantID string `json:"participantId"`
}

func handleRegister(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Nick = strings.TrimSpace(req.Nick)
		if req.Nick == "" {
			writeError(w, http.StatusBadRequest, "nick is required")
			return
		}
		if utf8.RuneCountInString(req.Nick) > maxNickLength {
			writeError(w, http.StatusBadRequest, "nick is too long")
			return
		}

		if res := mailcheck.Validate(req.Email); !res.Valid {
			writeError(w, http.StatusBadRequest, res.Reason)
			return
		}

		if !req.Consent {
			writeError(w, http.StatusBadRequest, "you must accept the consent notice")
			return
		}

		// Upsert by email: first registration creates, a repeat updates the
		// nick and refreshes last-seen.
		participant, err := store.UpsertParticipant(r.Context(), mailcheck.Normalize(req.Email), req.Nick)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		metrics.Registrations.Inc()
		broker.Publish(ActivityEvent{Type: "registered", Nick: participant.Nick})

		writeJSON(w, http.StatusOK, RegisterResponse{
			OK:            true,
			ParticipantID: participant.ID,
		})
	}
}
