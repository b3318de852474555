package migrations_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/playcadiz/pokeruta/internal/database"
	"github.com/playcadiz/pokeruta/internal/migrations"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A pooled second connection would see its own empty in-memory database.
	db.SetMaxOpenConns(1)
	return db
}

func TestMigrations(t *testing.T) {
	db := openTestDB(t)

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	// Verify all tables exist by querying sqlite_master.
	want := []string{"stops", "pokemon", "participants", "captures", "finishes"}

	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := migrations.Run(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestCaptureUniqueness(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			t.Fatalf("exec %s: %v", q, err)
		}
	}

	mustExec(`INSERT INTO stops (id, name, slug, position, qr_token) VALUES (1, 'Museo', 'museo', 1, 'stop-1')`)
	mustExec(`INSERT INTO pokemon (id, name, image_path, flavor_text, stop_id) VALUES (1, 'Tortillita', '/p/1.jpg', 'crujiente', 1)`)
	mustExec(`INSERT INTO participants (id, email, nick) VALUES ('p1', 'ash@gmail.com', 'Ash')`)
	mustExec(`INSERT INTO captures (participant_id, pokemon_id) VALUES ('p1', 1)`)

	// Second insert of the same pair must violate the primary key.
	if _, err := db.ExecContext(ctx, `INSERT INTO captures (participant_id, pokemon_id) VALUES ('p1', 1)`); err == nil {
		t.Fatal("expected unique constraint violation for duplicate capture")
	}
}
