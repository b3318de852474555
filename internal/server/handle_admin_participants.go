package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

const participantsPageSize = 20

// AdminParticipantsResponse is the response for GET /api/admin/participants.
type AdminParticipantsResponse struct {
	OK           bool               `json:"ok"`
	Participants []AdminParticipant `json:"participants"`
	Total        int                `json:"total"`
	Page         int                `json:"page"`
	TotalPages   int                `json:"totalPages"`
}

func handleAdminListParticipants(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		participants, total, err := store.SearchParticipants(r.Context(), query, page, participantsPageSize)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		totalPages := (total + participantsPageSize - 1) / participantsPageSize

		writeJSON(w, http.StatusOK, AdminParticipantsResponse{
			OK:           true,
			Participants: participants,
			Total:        total,
			Page:         page,
			TotalPages:   totalPages,
		})
	}
}

// AdminDeleteParticipantRequest is the request body for
// POST /api/admin/delete-participant.
type AdminDeleteParticipantRequest struct {
	ParticipantID string `json:"participantId"`
}

func handleAdminDeleteParticipant(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminDeleteParticipantRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ParticipantID == "" {
			writeError(w, http.StatusBadRequest, "participantId is required")
			return
		}

		participant, err := store.ParticipantByID(r.Context(), req.ParticipantID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "participant not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		removed, err := store.DeleteParticipant(r.Context(), req.ParticipantID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "participant not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeMessage(w, fmt.Sprintf("participant %s (%s) deleted along with %d capture(s)",
			participant.Nick, participant.Email, removed))
	}
}
