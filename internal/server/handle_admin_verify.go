package server

import (
	"errors"
	"net/http"

	"github.com/playcadiz/pokeruta/internal/metrics"
)

// AdminVerifyRequest is the request body for POST /api/admin/verify-finish.
type AdminVerifyRequest struct {
	FinishCode string `json:"finishCode"`
}

// AdminVerifyResponse is the response for POST /api/admin/verify-finish.
type AdminVerifyResponse struct {
	OK          bool   `json:"ok"`
	Message     string `json:"message"`
	Participant struct {
		Nick  string `json:"nick"`
		Email string `json:"email"`
	} `json:"participant"`
	VerifiedAt string `json:"verifiedAt"`
}

func handleAdminVerifyFinish(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminVerifyRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.FinishCode == "" {
			writeError(w, http.StatusBadRequest, "finishCode is required")
			return
		}

		finish, participant, err := store.FinishByCode(r.Context(), req.FinishCode)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "finish code not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := AdminVerifyResponse{OK: true}
		resp.Participant.Nick = participant.Nick
		resp.Participant.Email = participant.Email

		// Idempotent: re-verification reports the original timestamp.
		if finish.VerifiedAt != nil {
			resp.Message = "already verified"
			resp.VerifiedAt = *finish.VerifiedAt
			writeJSON(w, http.StatusOK, resp)
			return
		}

		verifiedAt, err := store.VerifyFinish(r.Context(), req.FinishCode)
		if errors.Is(err, ErrNotFound) {
			// Lost a race to another verification; report the stored stamp.
			if f, _, ferr := store.FinishByCode(r.Context(), req.FinishCode); ferr == nil && f.VerifiedAt != nil {
				resp.Message = "already verified"
				resp.VerifiedAt = *f.VerifiedAt
				writeJSON(w, http.StatusOK, resp)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		metrics.Verifications.Inc()
		broker.Publish(ActivityEvent{Type: "verified", Nick: participant.Nick})

		resp.Message = "verified"
		resp.VerifiedAt = verifiedAt
		writeJSON(w, http.StatusOK, resp)
	}
}
