package server

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// errCodeConflict is returned by CreateFinish when the generated finish code
// collides with an existing one; the caller regenerates and retries.
var errCodeConflict = errors.New("finish code conflict")

// requiredCaptures is the number of stops on the route. A participant may
// finish once they have captured at every stop.
const requiredCaptures = 5

type Stop struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Position int     `json:"order"`
	QRToken  string  `json:"qrToken"`
	Active   bool    `json:"active"`
	MapX     float64 `json:"mapX"`
	MapY     float64 `json:"mapY"`
}

type Pokemon struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ImagePath  string `json:"imagePath"`
	FlavorText string `json:"flavorText"`
	StopID     int64  `json:"stopId"`
}

type Participant struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Nick       string  `json:"nick"`
	CreatedAt  string  `json:"createdAt"`
	LastSeenAt string  `json:"lastSeenAt"`
	ConsentAt  *string `json:"consentAt,omitempty"`
}

type Capture struct {
	PokemonID   int64  `json:"pokemonId"`
	PokemonName string `json:"pokemonName,omitempty"`
	CapturedAt  string `json:"capturedAt"`
}

type Finish struct {
	ParticipantID string  `json:"participantId"`
	FinishCode    string  `json:"finishCode"`
	IssuedAt      string  `json:"issuedAt"`
	VerifiedAt    *string `json:"verifiedAt"`
}

// AdminParticipant is the nested row shape for the dashboard list.
type AdminParticipant struct {
	Participant
	Progress int       `json:"progress"`
	Captures []Capture `json:"captures"`
	Finish   *Finish   `json:"finish"`
}

type PokemonCount struct {
	PokemonID int64 `json:"pokemonId"`
	Count     int   `json:"count"`
}

type MetricsData struct {
	TotalParticipants int            `json:"totalParticipants"`
	TotalCaptures     int            `json:"totalCaptures"`
	TotalCompletions  int            `json:"totalCompletions"`
	CapturesByPokemon []PokemonCount `json:"capturesByPokemon"`
}

type Store interface {
	UpsertParticipant(ctx context.Context, email, nick string) (Participant, error)
	ParticipantByEmail(ctx context.Context, email string) (Participant, error)
	ParticipantByID(ctx context.Context, id string) (Participant, error)
	TouchParticipant(ctx context.Context, id string) error
	// DeleteParticipant removes captures, then any finish, then the
	// participant, in one transaction. Returns the number of captures removed.
	DeleteParticipant(ctx context.Context, id string) (int, error)

	ActiveStops(ctx context.Context) ([]Stop, error)
	StopByToken(ctx context.Context, token string) (Stop, error)
	SetStopActive(ctx context.Context, stopID int64, active bool) error
	SetStopPosition(ctx context.Context, stopID int64, mapX, mapY float64) error
	UpsertStop(ctx context.Context, s Stop) error

	PokemonByStop(ctx context.Context, stopID int64) (Pokemon, error)
	ListPokemon(ctx context.Context) ([]Pokemon, error)
	UpsertPokemon(ctx context.Context, p Pokemon) error

	// CreateCapture inserts atomically; created=false means the pair already
	// existed and nothing changed (including the stored timestamp).
	CreateCapture(ctx context.Context, participantID string, pokemonID int64) (created bool, err error)
	DeleteCapture(ctx context.Context, participantID string, pokemonID int64) (deleted bool, err error)
	CountCaptures(ctx context.Context, participantID string) (int, error)
	ListCaptures(ctx context.Context, participantID string) ([]Capture, error)

	FinishByParticipant(ctx context.Context, participantID string) (Finish, error)
	CreateFinish(ctx context.Context, participantID, code string) (Finish, error)
	DeleteFinish(ctx context.Context, participantID string) error
	FinishByCode(ctx context.Context, code string) (Finish, Participant, error)
	// VerifyFinish stamps verified_at if it is still null; ErrNotFound means
	// the code is unknown or already verified.
	VerifyFinish(ctx context.Context, code string) (string, error)

	Metrics(ctx context.Context) (MetricsData, error)
	SearchParticipants(ctx context.Context, query string, page, pageSize int) ([]AdminParticipant, int, error)

	ExportParticipants(ctx context.Context) ([]ParticipantExportRow, error)
	ExportFinishes(ctx context.Context) ([]FinishExportRow, error)
}

// ParticipantExportRow is one row of the participants CSV export.
type ParticipantExportRow struct {
	Email      string
	Nick       string
	Captures   int
	Finished   bool
	CreatedAt  string
	LastSeenAt string
}

// FinishExportRow is one row of the completions CSV export.
type FinishExportRow struct {
	Email      string
	Nick       string
	FinishCode string
	IssuedAt   string
	VerifiedAt *string
}
