package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/playcadiz/pokeruta/internal/mailcheck"
	"github.com/playcadiz/pokeruta/internal/metrics"
)

// FinishRequest is the request body for POST /api/finish.
type FinishRequest struct {
	Email string `json:"email"`
}

// FinishResponse is the response for POST /api/finish.
type FinishResponse struct {
	OK         bool   `json:"ok"`
	FinishCode string `json:"finishCode"`
	IssuedAt   string `json:"issuedAt"`
}

// newFinishCode returns an 8-character uppercase hex token. Uniqueness is
// enforced by the finish_code index; CreateFinish reports collisions so the
// caller can regenerate.
func newFinishCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

func handleFinish(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FinishRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}

		participant, err := store.ParticipantByEmail(r.Context(), mailcheck.Normalize(req.Email))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "participant not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		progress, err := store.CountCaptures(r.Context(), participant.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if progress < requiredCaptures {
			remaining := requiredCaptures - progress
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"ok":       false,
				"error":    fmt.Sprintf("%d more capture(s) needed to complete the route", remaining),
				"progress": progress,
			})
			return
		}

		// Already finished: return the existing record unchanged.
		if finish, err := store.FinishByParticipant(r.Context(), participant.ID); err == nil {
			writeJSON(w, http.StatusOK, FinishResponse{
				OK:         true,
				FinishCode: finish.FinishCode,
				IssuedAt:   finish.IssuedAt,
			})
			return
		} else if !errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		var finish Finish
		for attempt := 0; ; attempt++ {
			finish, err = store.CreateFinish(r.Context(), participant.ID, newFinishCode())
			if !errors.Is(err, errCodeConflict) {
				break
			}
			if attempt == 4 {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
		}
		if err != nil {
			// A concurrent finish for the same participant hits the
			// participant_id primary key; return that record instead.
			if existing, ferr := store.FinishByParticipant(r.Context(), participant.ID); ferr == nil {
				writeJSON(w, http.StatusOK, FinishResponse{
					OK:         true,
					FinishCode: existing.FinishCode,
					IssuedAt:   existing.IssuedAt,
				})
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		metrics.Finishes.Inc()
		broker.Publish(ActivityEvent{Type: "finished", Nick: participant.Nick})

		writeJSON(w, http.StatusOK, FinishResponse{
			OK:         true,
			FinishCode: finish.FinishCode,
			IssuedAt:   finish.IssuedAt,
		})
	}
}
