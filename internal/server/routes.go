package server

import (
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playcadiz/pokeruta/internal/config"
	"github.com/playcadiz/pokeruta/internal/ratelimit"
)

func addRoutes(r chi.Router, cfg *config.Config, logger *slog.Logger, db *sql.DB, store Store, limiter *ratelimit.Limiter) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Pokeruta API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// Prometheus counters are event-private, same trust level as the panel.
	r.With(adminAuthMiddleware(cfg.AdminPassword)).Handle("/metrics", promhttp.Handler())

	// Participant routes.
	r.Route("/api", func(r chi.Router) {
		r.Get("/stops", handleListStops(store))
		r.With(rateLimitMiddleware(limiter, 10, time.Minute)).
			Post("/register", handleRegister(store, broker))
		r.With(rateLimitMiddleware(limiter, 15, time.Minute)).
			Post("/capture", handleCapture(store, broker))
		r.Post("/finish", handleFinish(store, broker))
		r.Get("/profile", handleProfile(store))

		// Admin routes. Login and logout sit outside the gate.
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", handleAdminLogin(cfg.AdminPassword))
			r.Post("/logout", handleAdminLogout())

			r.Group(func(r chi.Router) {
				r.Use(adminAuthMiddleware(cfg.AdminPassword))

				r.Get("/metrics", handleAdminMetrics(store))
				r.Get("/participants", handleAdminListParticipants(store))
				r.Post("/grant-capture", handleAdminGrantCapture(store))
				r.Post("/revoke-capture", handleAdminRevokeCapture(store))
				r.Post("/delete-participant", handleAdminDeleteParticipant(store))
				r.Post("/stop/toggle", handleAdminToggleStop(store))
				r.Post("/stop/update-position", handleAdminUpdateStopPosition(store))
				r.Post("/verify-finish", handleAdminVerifyFinish(store, broker))
				r.Get("/export/participants.csv", handleExportParticipants(store))
				r.Get("/export/completions.csv", handleExportCompletions(store))
				r.Get("/events", handleAdminEvents(broker))
			})
		})
	})

	if cfg.SPADir != "" {
		if info, err := os.Stat(cfg.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", cfg.SPADir)
			r.NotFound(handleSPA(cfg.SPADir, cfg.AdminPassword))
		}
	}
}
