package server

import (
	"errors"
	"net/http"

	"github.com/playcadiz/pokeruta/internal/mailcheck"
	"github.com/playcadiz/pokeruta/internal/metrics"
)

// CaptureRequest is the request body for POST /api/capture. Code is the
// string decoded from the stop's QR.
type CaptureRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// PokemonInfo is the captured collectible as shown on the reveal screen.
type PokemonInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ImagePath  string `json:"imagePath"`
	FlavorText string `json:"flavorText"`
}

// CaptureResponse is the response for POST /api/capture.
type CaptureResponse struct {
	OK              bool        `json:"ok"`
	AlreadyCaptured bool        `json:"alreadyCaptured"`
	Pokemon         PokemonInfo `json:"pokemon"`
	Progress        int         `json:"progress"`
}

func handleCapture(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CaptureRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Code == "" {
			writeError(w, http.StatusBadRequest, "email and code are required")
			return
		}

		participant, err := store.ParticipantByEmail(r.Context(), mailcheck.Normalize(req.Email))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "participant not found, register first")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		stop, err := store.StopByToken(r.Context(), req.Code)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown QR code")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if !stop.Active {
			writeError(w, http.StatusForbidden, "this stop is not active right now")
			return
		}

		pokemon, err := store.PokemonByStop(r.Context(), stop.ID)
		if errors.Is(err, ErrNotFound) {
			// Catalog misconfiguration, not a normal runtime path.
			writeError(w, http.StatusNotFound, "no pokemon configured for this stop")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// The insert is the idempotency check: the unique key settles
		// concurrent duplicate scans, and created=false means re-scan.
		created, err := store.CreateCapture(r.Context(), participant.ID, pokemon.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		progress, err := store.CountCaptures(r.Context(), participant.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if created {
			metrics.Captures.Inc()
			broker.Publish(ActivityEvent{
				Type:        "captured",
				Nick:        participant.Nick,
				PokemonID:   pokemon.ID,
				PokemonName: pokemon.Name,
				Progress:    progress,
			})
		}

		writeJSON(w, http.StatusOK, CaptureResponse{
			OK:              true,
			AlreadyCaptured: !created,
			Pokemon: PokemonInfo{
				ID:         pokemon.ID,
				Name:       pokemon.Name,
				ImagePath:  pokemon.ImagePath,
				FlavorText: pokemon.FlavorText,
			},
			Progress: progress,
		})
	}
}
