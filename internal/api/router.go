package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Carpool/internal/broker"
	"github.com/MikeSquared-Agency/Carpool/internal/config"
	"github.com/MikeSquared-Agency/Carpool/internal/store"
)

func NewRouter(s store.Store, b *broker.Broker, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.Server.RateLimitPerMin))

	match := NewMatchHandler(b)
	riders := NewRidersHandler(s, b, cfg.Matching)
	stats := NewStatsHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RiderIDMiddleware)

		r.Post("/match/nearby", match.Nearby)
		r.Post("/match/recent", match.Recent)

		r.Post("/riders", riders.Create)
		r.Get("/riders/{id}", riders.Get)
		r.Put("/riders/{id}", riders.Update)
		r.Put("/riders/{id}/directory/{candidate_id}", riders.PutEntry)
		r.Delete("/riders/{id}/directory/{candidate_id}", riders.DeleteEntry)
		r.Get("/riders/{id}/nearby", riders.Nearby)
		r.Get("/riders/{id}/nearby/summary", riders.NearbySummary)
		r.Get("/riders/{id}/recent", riders.Recent)

		r.Get("/stats", stats.Get)
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
