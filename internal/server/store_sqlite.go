package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const sqliteNow = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) UpsertParticipant(ctx context.Context, email, nick string) (Participant, error) {
	var p Participant
	var consentAt sql.NullString
	// The fresh id is only used when the email is new; on conflict the
	// existing row keeps its id and gets nick and last_seen_at refreshed.
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO participants (id, email, nick, consent_at)
		VALUES (?, ?, ?, `+sqliteNow+`)
		ON CONFLICT(email) DO UPDATE SET
			nick = excluded.nick,
			last_seen_at = `+sqliteNow+`
		RETURNING id, email, nick, created_at, last_seen_at, consent_at
	`, uuid.NewString(), email, nick).Scan(&p.ID, &p.Email, &p.Nick, &p.CreatedAt, &p.LastSeenAt, &consentAt)
	if consentAt.Valid {
		p.ConsentAt = &consentAt.String
	}
	return p, err
}

func (s *SQLiteStore) ParticipantByEmail(ctx context.Context, email string) (Participant, error) {
	return s.participantBy(ctx, "email", email)
}

func (s *SQLiteStore) ParticipantByID(ctx context.Context, id string) (Participant, error) {
	return s.participantBy(ctx, "id", id)
}

func (s *SQLiteStore) participantBy(ctx context.Context, column, value string) (Participant, error) {
	var p Participant
	var consentAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, nick, created_at, last_seen_at, consent_at
		FROM participants WHERE `+column+` = ?
	`, value).Scan(&p.ID, &p.Email, &p.Nick, &p.CreatedAt, &p.LastSeenAt, &consentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if consentAt.Valid {
		p.ConsentAt = &consentAt.String
	}
	return p, err
}

func (s *SQLiteStore) TouchParticipant(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE participants SET last_seen_at = `+sqliteNow+` WHERE id = ?
	`, id)
	return err
}

func (s *SQLiteStore) DeleteParticipant(ctx context.Context, id string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Captures and finish first: the schema has no ON DELETE CASCADE, so the
	// ordering avoids foreign-key violations.
	res, err := tx.ExecContext(ctx, `DELETE FROM captures WHERE participant_id = ?`, id)
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM finishes WHERE participant_id = ?`, id); err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}

	return int(removed), tx.Commit()
}

func (s *SQLiteStore) ActiveStops(ctx context.Context) ([]Stop, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, position, qr_token, active, map_x, map_y
		FROM stops WHERE active = 1 ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []Stop
	for rows.Next() {
		st, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, st)
	}
	return stops, rows.Err()
}

func (s *SQLiteStore) StopByToken(ctx context.Context, token string) (Stop, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, position, qr_token, active, map_x, map_y
		FROM stops WHERE qr_token = ?
	`, token)
	st, err := scanStop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrNotFound
	}
	return st, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStop(r rowScanner) (Stop, error) {
	var st Stop
	var active int
	err := r.Scan(&st.ID, &st.Name, &st.Slug, &st.Position, &st.QRToken, &active, &st.MapX, &st.MapY)
	st.Active = active != 0
	return st, err
}

func (s *SQLiteStore) SetStopActive(ctx context.Context, stopID int64, active bool) error {
	activeInt := 0
	if active {
		activeInt = 1
	}
	res, err := s.db.ExecContext(ctx, `UPDATE stops SET active = ? WHERE id = ?`, activeInt, stopID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SetStopPosition(ctx context.Context, stopID int64, mapX, mapY float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE stops SET map_x = ?, map_y = ? WHERE id = ?`, mapX, mapY, stopID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) UpsertStop(ctx context.Context, st Stop) error {
	activeInt := 0
	if st.Active {
		activeInt = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stops (id, name, slug, position, qr_token, active, map_x, map_y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			position = excluded.position,
			qr_token = excluded.qr_token
	`, st.ID, st.Name, st.Slug, st.Position, st.QRToken, activeInt, st.MapX, st.MapY)
	return err
}

func (s *SQLiteStore) PokemonByStop(ctx context.Context, stopID int64) (Pokemon, error) {
	var p Pokemon
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, image_path, flavor_text, stop_id
		FROM pokemon WHERE stop_id = ?
	`, stopID).Scan(&p.ID, &p.Name, &p.ImagePath, &p.FlavorText, &p.StopID)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (s *SQLiteStore) ListPokemon(ctx context.Context) ([]Pokemon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, image_path, flavor_text, stop_id
		FROM pokemon ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []Pokemon
	for rows.Next() {
		var p Pokemon
		if err := rows.Scan(&p.ID, &p.Name, &p.ImagePath, &p.FlavorText, &p.StopID); err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	return all, rows.Err()
}

func (s *SQLiteStore) UpsertPokemon(ctx context.Context, p Pokemon) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pokemon (id, name, image_path, flavor_text, stop_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			image_path = excluded.image_path,
			flavor_text = excluded.flavor_text,
			stop_id = excluded.stop_id
	`, p.ID, p.Name, p.ImagePath, p.FlavorText, p.StopID)
	return err
}

func (s *SQLiteStore) CreateCapture(ctx context.Context, participantID string, pokemonID int64) (bool, error) {
	// The unique (participant_id, pokemon_id) key is the sole arbiter:
	// two simultaneous first scans leave exactly one row, and a re-scan
	// never touches the stored timestamp.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO captures (participant_id, pokemon_id)
		VALUES (?, ?)
		ON CONFLICT(participant_id, pokemon_id) DO NOTHING
	`, participantID, pokemonID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) DeleteCapture(ctx context.Context, participantID string, pokemonID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM captures WHERE participant_id = ? AND pokemon_id = ?
	`, participantID, pokemonID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) CountCaptures(ctx context.Context, participantID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM captures WHERE participant_id = ?
	`, participantID).Scan(&count)
	return count, err
}

func (s *SQLiteStore) ListCaptures(ctx context.Context, participantID string) ([]Capture, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.pokemon_id, p.name, c.captured_at
		FROM captures c
		JOIN pokemon p ON p.id = c.pokemon_id
		WHERE c.participant_id = ?
		ORDER BY c.captured_at
	`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.PokemonID, &c.PokemonName, &c.CapturedAt); err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

func (s *SQLiteStore) FinishByParticipant(ctx context.Context, participantID string) (Finish, error) {
	var f Finish
	var verifiedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT participant_id, finish_code, issued_at, verified_at
		FROM finishes WHERE participant_id = ?
	`, participantID).Scan(&f.ParticipantID, &f.FinishCode, &f.IssuedAt, &verifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return f, ErrNotFound
	}
	if verifiedAt.Valid {
		f.VerifiedAt = &verifiedAt.String
	}
	return f, err
}

func (s *SQLiteStore) CreateFinish(ctx context.Context, participantID, code string) (Finish, error) {
	var f Finish
	var verifiedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO finishes (participant_id, finish_code)
		VALUES (?, ?)
		RETURNING participant_id, finish_code, issued_at, verified_at
	`, participantID, code).Scan(&f.ParticipantID, &f.FinishCode, &f.IssuedAt, &verifiedAt)
	if err != nil && strings.Contains(err.Error(), "finishes.finish_code") {
		return f, errCodeConflict
	}
	if verifiedAt.Valid {
		f.VerifiedAt = &verifiedAt.String
	}
	return f, err
}

func (s *SQLiteStore) DeleteFinish(ctx context.Context, participantID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM finishes WHERE participant_id = ?`, participantID)
	return err
}

func (s *SQLiteStore) FinishByCode(ctx context.Context, code string) (Finish, Participant, error) {
	var f Finish
	var p Participant
	var verifiedAt, consentAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT f.participant_id, f.finish_code, f.issued_at, f.verified_at,
		       p.id, p.email, p.nick, p.created_at, p.last_seen_at, p.consent_at
		FROM finishes f
		JOIN participants p ON p.id = f.participant_id
		WHERE f.finish_code = ?
	`, code).Scan(&f.ParticipantID, &f.FinishCode, &f.IssuedAt, &verifiedAt,
		&p.ID, &p.Email, &p.Nick, &p.CreatedAt, &p.LastSeenAt, &consentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return f, p, ErrNotFound
	}
	if verifiedAt.Valid {
		f.VerifiedAt = &verifiedAt.String
	}
	if consentAt.Valid {
		p.ConsentAt = &consentAt.String
	}
	return f, p, err
}

func (s *SQLiteStore) VerifyFinish(ctx context.Context, code string) (string, error) {
	var verifiedAt string
	err := s.db.QueryRowContext(ctx, `
		UPDATE finishes SET verified_at = `+sqliteNow+`
		WHERE finish_code = ? AND verified_at IS NULL
		RETURNING verified_at
	`, code).Scan(&verifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return verifiedAt, err
}

func (s *SQLiteStore) Metrics(ctx context.Context) (MetricsData, error) {
	var m MetricsData

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM participants`, &m.TotalParticipants},
		{`SELECT COUNT(*) FROM captures`, &m.TotalCaptures},
		{`SELECT COUNT(*) FROM finishes`, &m.TotalCompletions},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return m, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pokemon_id, COUNT(*) FROM captures GROUP BY pokemon_id ORDER BY pokemon_id
	`)
	if err != nil {
		return m, err
	}
	defer rows.Close()

	for rows.Next() {
		var pc PokemonCount
		if err := rows.Scan(&pc.PokemonID, &pc.Count); err != nil {
			return m, err
		}
		m.CapturesByPokemon = append(m.CapturesByPokemon, pc)
	}
	return m, rows.Err()
}

func (s *SQLiteStore) SearchParticipants(ctx context.Context, query string, page, pageSize int) ([]AdminParticipant, int, error) {
	where := ``
	args := []any{}
	if query != "" {
		where = `WHERE instr(lower(email), lower(?)) > 0 OR instr(lower(nick), lower(?)) > 0`
		args = append(args, query, query)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM participants %s`, where), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(args, pageSize, (page-1)*pageSize)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, email, nick, created_at, last_seen_at, consent_at
		FROM participants %s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, where), listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []AdminParticipant
	for rows.Next() {
		var ap AdminParticipant
		var consentAt sql.NullString
		if err := rows.Scan(&ap.ID, &ap.Email, &ap.Nick, &ap.CreatedAt, &ap.LastSeenAt, &consentAt); err != nil {
			return nil, 0, err
		}
		if consentAt.Valid {
			ap.ConsentAt = &consentAt.String
		}
		results = append(results, ap)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// A page is at most 20 rows; one query per row for the nested data is
	// fine at this scale.
	for i := range results {
		captures, err := s.ListCaptures(ctx, results[i].ID)
		if err != nil {
			return nil, 0, err
		}
		results[i].Captures = captures
		results[i].Progress = len(captures)

		finish, err := s.FinishByParticipant(ctx, results[i].ID)
		switch {
		case err == nil:
			f := finish
			results[i].Finish = &f
		case errors.Is(err, ErrNotFound):
		default:
			return nil, 0, err
		}
	}

	return results, total, nil
}

func (s *SQLiteStore) ExportParticipants(ctx context.Context) ([]ParticipantExportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.email, p.nick,
		       (SELECT COUNT(*) FROM captures c WHERE c.participant_id = p.id),
		       EXISTS (SELECT 1 FROM finishes f WHERE f.participant_id = p.id),
		       p.created_at, p.last_seen_at
		FROM participants p
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var export []ParticipantExportRow
	for rows.Next() {
		var row ParticipantExportRow
		var finished int
		if err := rows.Scan(&row.Email, &row.Nick, &row.Captures, &finished, &row.CreatedAt, &row.LastSeenAt); err != nil {
			return nil, err
		}
		row.Finished = finished != 0
		export = append(export, row)
	}
	return export, rows.Err()
}

func (s *SQLiteStore) ExportFinishes(ctx context.Context) ([]FinishExportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.email, p.nick, f.finish_code, f.issued_at, f.verified_at
		FROM finishes f
		JOIN participants p ON p.id = f.participant_id
		ORDER BY f.issued_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var export []FinishExportRow
	for rows.Next() {
		var row FinishExportRow
		var verifiedAt sql.NullString
		if err := rows.Scan(&row.Email, &row.Nick, &row.FinishCode, &row.IssuedAt, &verifiedAt); err != nil {
			return nil, err
		}
		if verifiedAt.Valid {
			row.VerifiedAt = &verifiedAt.String
		}
		export = append(export, row)
	}
	return export, rows.Err()
}
