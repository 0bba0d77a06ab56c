package httpapi

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/derekprior/leaguenight/internal/season"
)

func addRoutes(r chi.Router, logger *slog.Logger, svc *season.Service, hub *Hub, checks map[string]Check) {
	r.Get("/healthz", handleHealth(logger, checks))

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", handleListTeams(logger, svc))
		r.Post("/", handleAddTeam(logger, svc))
		r.Put("/{teamID}", handleRenameTeam(logger, svc))
	})

	r.Route("/weeks/{week}", func(r chi.Router) {
		r.Get("/matches", handleWeekMatches(logger, svc))
		r.Get("/state", handleWeekState(logger, svc))
		r.Post("/periods/{period}", handleGeneratePeriod(logger, svc))
	})

	r.Route("/matches/{matchID}", func(r chi.Router) {
		r.Put("/score", handleSubmitScore(logger, svc))
		r.Post("/complete", handleComplete(logger, svc))
	})

	r.Get("/standings", handleStandings(logger, svc))
	r.Get("/ws/weeks/{week}", handleWeekSocket(logger, svc, hub))
}
