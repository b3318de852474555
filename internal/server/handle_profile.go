package server

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/playcadiz/pokeruta/internal/mailcheck"
)

// PokedexEntry is a catalog item annotated with the participant's capture
// state.
type PokedexEntry struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ImagePath  string `json:"imagePath"`
	ThumbPath  string `json:"thumbPath"`
	FlavorText string `json:"flavorText"`
	StopID     int64  `json:"stopId"`
	Captured   bool   `json:"captured"`
}

// ProfileResponse is the response for GET /api/profile.
type ProfileResponse struct {
	OK          bool           `json:"ok"`
	Participant Participant    `json:"participant"`
	Progress    int            `json:"progress"`
	Captures    []Capture      `json:"captures"`
	Pokedex     []PokedexEntry `json:"pokedex"`
	Finished    bool           `json:"finished"`
	FinishCode  string         `json:"finishCode,omitempty"`
}

/// thumbPath derives the thumbnail variant of an image path:
// /p/001-tortillita.jpg -> /p/001-tortillita-thumb.jpg.
func thumbPath(imagePath string) string {
	ext := path.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + "-thumb" + ext
}

func handleProfile(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			writeError(w, http.StatusBadRequest, "email query parameter required")
			return
		}

		participant, err := store.ParticipantByEmail(r.Context(), mailcheck.Normalize(email))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "participant not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := store.TouchParticipant(r.Context(), participant.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		captures, err := store.ListCaptures(r.Context(), participant.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		captured := make(map[int64]bool, len(captures))
		for _, c := range captures {
			captured[c.PokemonID] = true
		}

		catalog, err := store.ListPokemon(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		pokedex := make([]PokedexEntry, 0, len(catalog))
		for _, p := range catalog {
			pokedex = append(pokedex, PokedexEntry{
				ID:         p.ID,
				Name:       p.Name,
				ImagePath:  p.ImagePath,
				ThumbPath:  thumbPath(p.ImagePath),
				FlavorText: p.FlavorText,
				StopID:     p.StopID,
				Captured:   captured[p.ID],
			})
		}

		resp := ProfileResponse{
			OK:          true,
			Participant: participant,
			Progress:    len(captures),
			Captures:    captures,
			Pokedex:     pokedex,
		}

		finish, err := store.FinishByParticipant(r.Context(), participant.ID)
		switch {
		case err == nil:
			resp.Finished = true
			resp.FinishCode = finish.FinishCode
		case errors.Is(err, ErrNotFound):
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
