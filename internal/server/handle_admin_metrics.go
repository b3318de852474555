package server

import "net/http"

// AdminMetricsResponse is the response for GET /api/admin/metrics.
type AdminMetricsResponse struct {
	OK      bool        `json:"ok"`
	Metrics MetricsData `json:"metrics"`
}

func handleAdminMetrics(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := store.Metrics(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, AdminMetricsResponse{OK: true, Metrics: m})
	}
}
