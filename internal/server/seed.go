package server

import (
	"context"
	"log/slog"
)

// The route catalog: five physical stops in San Fernando and the local
// creature awarded at each. Seeded with upserts so name/position edits ship
// with a deploy, while admin-managed fields (active, map coordinates) are
// preserved across restarts.

var stopSeed = []Stop{
	{ID: 1, Name: "Antiguo Museo de San Fernando", Slug: "museo", Position: 1, QRToken: "stop-1", Active: true, MapX: 20, MapY: 15},
	{ID: 2, Name: "Iglesia Mayor", Slug: "iglesia-mayor", Position: 2, QRToken: "stop-2", Active: true, MapX: 35, MapY: 30},
	{ID: 3, Name: "Ayuntamiento de San Fernando", Slug: "ayuntamiento", Position: 3, QRToken: "stop-3", Active: true, MapX: 50, MapY: 50},
	{ID: 4, Name: "Real Teatro de las Cortes", Slug: "teatro-cortes", Position: 4, QRToken: "stop-4", Active: true, MapX: 65, MapY: 65},
	{ID: 5, Name: "Tienda El Dragón Rojo", Slug: "dragon-rojo", Position: 5, QRToken: "stop-5", Active: true, MapX: 80, MapY: 82},
}

var pokemonSeed = []Pokemon{
	{ID: 1, Name: "Tortillita", ImagePath: "/pokemon-local/001-tortillita.jpg", FlavorText: "Nacida del mar gaditano, Tortillita cruje con cada paso y deja un aroma irresistible a su alrededor.", StopID: 1},
	{ID: 2, Name: "Bienmesabe", ImagePath: "/pokemon-local/002-bienmesabe.jpg", FlavorText: "Dulce y misterioso, Bienmesabe seduce con su textura suave y su poder reconfortante.", StopID: 2},
	{ID: 3, Name: "Camarón", ImagePath: "/pokemon-local/003-camaron.jpg", FlavorText: "Ágil como las corrientes de la Bahía, Camarón salta entre las olas con energía inagotable.", StopID: 3},
	{ID: 4, Name: "Cañaíla", ImagePath: "/pokemon-local/004-canaila.jpg", FlavorText: "Astuta y callejera, Cañaíla conoce cada rincón de San Fernando y siempre encuentra un atajo.", StopID: 4},
	{ID: 5, Name: "Salmarín", ImagePath: "/pokemon-local/005-salmarin.jpg", FlavorText: "Guardián de las salinas, Salmarín brilla bajo el sol con cristales de sal en su piel.", StopID: 5},
}

// SeedCatalog upserts the stop and pokemon reference data. Idempotent.
func SeedCatalog(ctx context.Context, logger *slog.Logger, store Store) error {
	for _, st := range stopSeed {
		if err := store.UpsertStop(ctx, st); err != nil {
			return err
		}
	}
	for _, p := range pokemonSeed {
		if err := store.UpsertPokemon(ctx, p); err != nil {
			return err
		}
	}
	logger.Info("catalog seeded", "stops", len(stopSeed), "pokemon", len(pokemonSeed))
	return nil
}
