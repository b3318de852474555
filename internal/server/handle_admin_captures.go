package server

import (
	"errors"
	"net/http"

	"github.com/playcadiz/pokeruta/internal/mailcheck"
)

// AdminCaptureRequest is the request body for POST /api/admin/grant-capture
// and POST /api/admin/revoke-capture.
type AdminCaptureRequest struct {
	Email     string `json:"email"`
	PokemonID int64  `json:"pokemonId"`
}

func handleAdminGrantCapture(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, participant, ok := adminCaptureTarget(w, r, store)
		if !ok {
			return
		}

		created, err := store.CreateCapture(r.Context(), participant.ID, req.PokemonID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if !created {
			writeMessage(w, "already captured")
			return
		}
		writeMessage(w, "capture granted")
	}
}

// Revoke applies the retraction policy: a verified completion locks the
// participant's captures, and an unverified completion is retracted when the
// capture count drops below the required total.
func handleAdminRevokeCapture(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, participant, ok := adminCaptureTarget(w, r, store)
		if !ok {
			return
		}

		finish, err := store.FinishByParticipant(r.Context(), participant.ID)
		hasFinish := err == nil
		if err != nil && !errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if hasFinish && finish.VerifiedAt != nil {
			writeError(w, http.StatusConflict, "completion already verified, captures are locked")
			return
		}

		deleted, err := store.DeleteCapture(r.Context(), participant.ID, req.PokemonID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !deleted {
			writeMessage(w, "no such capture")
			return
		}

		if hasFinish {
			progress, err := store.CountCaptures(r.Context(), participant.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if progress < requiredCaptures {
				if err := store.DeleteFinish(r.Context(), participant.ID); err != nil {
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				writeMessage(w, "capture revoked, unverified completion retracted")
				return
			}
		}

		writeMessage(w, "capture revoked")
	}
}

// adminCaptureTarget parses the shared request shape and resolves the
// participant, writing the error response itself when something is off.
func adminCaptureTarget(w http.ResponseWriter, r *http.Request, store Store) (AdminCaptureRequest, Participant, bool) {
	var req AdminCaptureRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, Participant{}, false
	}
	if req.Email == "" || req.PokemonID == 0 {
		writeError(w, http.StatusBadRequest, "email and pokemonId are required")
		return req, Participant{}, false
	}

	participant, err := store.ParticipantByEmail(r.Context(), mailcheck.Normalize(req.Email))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "participant not found")
		return req, Participant{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return req, Participant{}, false
	}
	return req, participant, true
}
