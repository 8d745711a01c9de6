// Package api serves the read-only HTTP view of campaigns and positions.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"solana-launchpad/internal/observability"
)

// NewRouter builds the HTTP routes.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", handler.ready)
	r.Handle("/metrics", observability.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/assets", handler.listAssets)
		r.Get("/report", handler.report)
		r.Get("/campaigns", handler.listCampaigns)
		r.Route("/campaigns/{campaign_id}", func(r chi.Router) {
			r.Get("/", handler.getCampaign)
			r.Get("/phase", handler.getPhase)
			r.Get("/positions", handler.listPositions)
			r.Get("/positions/{address}", handler.getPosition)
			r.Get("/whitelist", handler.listWhitelist)
			r.Get("/whitelist/{address}", handler.checkWhitelist)
		})
	})
	return r
}
