package server

import (
	"encoding/csv"
	"net/http"
	"strconv"
)

// CSV exports stream all rows with a fixed header; encoding/csv quotes free
// text (nicks) as needed and timestamps are the stored RFC3339 strings.

func handleExportParticipants(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := store.ExportParticipants(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename=participants.csv`)

		cw := csv.NewWriter(w)
		cw.Write([]string{"Email", "Nick", "Captures", "Finished", "Registered At", "Last Seen At"})
		for _, row := range rows {
			finished := "no"
			if row.Finished {
				finished = "yes"
			}
			cw.Write([]string{
				row.Email,
				row.Nick,
				strconv.Itoa(row.Captures),
				finished,
				row.CreatedAt,
				row.LastSeenAt,
			})
		}
		cw.Flush()
	}
}

func handleExportCompletions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := store.ExportFinishes(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename=completions.csv`)

		cw := csv.NewWriter(w)
		cw.Write([]string{"Email", "Nick", "Code", "Issued At", "Verified At"})
		for _, row := range rows {
			verifiedAt := ""
			if row.VerifiedAt != nil {
				verifiedAt = *row.VerifiedAt
			}
			cw.Write([]string{
				row.Email,
				row.Nick,
				row.FinishCode,
				row.IssuedAt,
				verifiedAt,
			})
		}
		cw.Flush()
	}
}
