package server

import "net/http"

// StopsResponse is the response for GET /api/stops.
type StopsResponse struct {
	OK    bool   `json:"ok"`
	Stops []Stop `json:"stops"`
}

func handleListStops(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stops, err := store.ActiveStops(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, StopsResponse{OK: true, Stops: stops})
	}
}
