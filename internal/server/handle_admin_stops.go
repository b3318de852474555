package server

import (
	"errors"
	"fmt"
	"net/http"
)

// AdminToggleStopRequest is the request body for POST /api/admin/stop/toggle.
type AdminToggleStopRequest struct {
	StopID int64 `json:"stopId"`
	Active *bool `json:"active"`
}

func handleAdminToggleStop(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminToggleStopRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.StopID == 0 || req.Active == nil {
			writeError(w, http.StatusBadRequest, "stopId and active are required")
			return
		}

		err := store.SetStopActive(r.Context(), req.StopID, *req.Active)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "stop not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		state := "deactivated"
		if *req.Active {
			state = "activated"
		}
		writeMessage(w, fmt.Sprintf("stop %d %s", req.StopID, state))
	}
}

// AdminStopPositionRequest is the request body for
// POST /api/admin/stop/update-position. Coordinates are percentages on the
// event map.
type AdminStopPositionRequest struct {
	StopID int64    `json:"stopId"`
	MapX   *float64 `json:"mapX"`
	MapY   *float64 `json:"mapY"`
}

func handleAdminUpdateStopPosition(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminStopPositionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.StopID == 0 || req.MapX == nil || req.MapY == nil {
			writeError(w, http.StatusBadRequest, "stopId, mapX and mapY are required")
			return
		}

		err := store.SetStopPosition(r.Context(), req.StopID, *req.MapX, *req.MapY)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "stop not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeMessage(w, fmt.Sprintf("stop %d position updated", req.StopID))
	}
}
