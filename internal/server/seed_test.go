package server

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestSeedCatalogIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := SeedCatalog(ctx, logger, store); err != nil {
		t.Fatalf("re-seed: %v", err)
	}

	stops, err := store.ActiveStops(ctx)
	if err != nil {
		t.Fatalf("list stops: %v", err)
	}
	if len(stops) != 5 {
		t.Fatalf("expected 5 stops after re-seed, got %d", len(stops))
	}

	pokemon, err := store.ListPokemon(ctx)
	if err != nil {
		t.Fatalf("list pokemon: %v", err)
	}
	if len(pokemon) != 5 {
		t.Fatalf("expected 5 pokemon after re-seed, got %d", len(pokemon))
	}
}

func TestSeedCatalogKeepsOperatorState(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := store.SetStopActive(ctx, 4, false); err != nil {
		t.Fatalf("deactivate stop: %v", err)
	}
	if err := store.SetStopPosition(ctx, 1, 12.5, 88.0); err != nil {
		t.Fatalf("move stop: %v", err)
	}

	// A restart re-seeds the catalog; toggles and map placement survive it.
	if err := SeedCatalog(ctx, logger, store); err != nil {
		t.Fatalf("re-seed: %v", err)
	}

	stops, err := store.ActiveStops(ctx)
	if err != nil {
		t.Fatalf("list stops: %v", err)
	}
	if len(stops) != 4 {
		t.Fatalf("expected stop 4 to stay inactive, got %d active stops", len(stops))
	}
	if stops[0].MapX != 12.5 || stops[0].MapY != 88.0 {
		t.Errorf("expected moved position to survive re-seed, got %v/%v", stops[0].MapX, stops[0].MapY)
	}
}
