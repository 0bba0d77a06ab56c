package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/season"
)

// AuthorHeader names the team making a score edit.
const AuthorHeader = "X-Team-ID"

func intParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil
}

func handleListTeams(logger *slog.Logger, svc *season.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := svc.Teams(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if teams == nil {
			teams = []league.Team{}
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

func handleAddTeam(logger *slog.Logger, svc *season.Service) http.HandlerFunc {
	type request struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		team, err := svc.AddTeam(r.Context(), strings.TrimSpace(req.ID), req.Name)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, team)
	}
}

func handleRenameTeam(logger *slog.Logger, svc *season.Service) http.HandlerFunc {
	type request struct {
		Name string `json:"name"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		team, err := svc.RenameTeam(r.Context(), chi.URLParam(r, "teamID"), req.Name)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, team)
	}
}

func handleWeekMatches(logger *slog.Logger, svc *season.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		week, ok := intParam(r, "week")
		if !ok || week < 1 {
			writeError(w, http.StatusBadRequest, "week must be a positive number")
			return
		}
		matches, err := svc.Matches(r.Context(), week)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if matches == nil {
			matches = []league.Match{}
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func handleWeekState(logger *slog.Logger, svc *season.Service) http.HandlerFunc {
	type response struct {
		Week  int          `json:"week"`
		State league.State `json:"state"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		week, ok := intParam(r, "week")
		if !ok || week < 1 {
			writeError(w, http.StatusBadRequest, "week must be a positive number")
			return
		}
		state, err := svc.WeekState(r.Context(), week)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, response{Week: week, State: state})
	}
}

// handleGeneratePeriod schedules period 1 or 2 of a week. A period-1 request
// may name its teams; an empty body uses every stored team.
func handleGeneratePeriod(logger *slog.Logger, svc *season.Service) http.HandlerFunc {
	type request struct {
		Teams []league.Team `json:"teams"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		week, ok := intParam(r, "week")
		if !ok {
			writeError(w, http.StatusBadRequest, "week must be a number")
			return
		}
		period, _ := intParam(r, "period")

		var matches []league.Match
		var err error
		switch period {
		case 1:
			var req request
			if r.ContentLength != 0 {
				if err := readJSON(r, &req); err != nil {
					writeError(w, http.StatusBadRequest, "invalid request body")
					return
				}
			}
			var roster league.Roster
			if req.Teams != nil {
				roster = league.Roster(req.Teams)
			}
			matches, err = svc.GenerateFirstPeriod(r.Context(), week, roster)
		case 2:
			matches, err = svc.GenerateSecondPeriod(r.Context(), week)
		default:
			writeError(w, http.StatusNotFound, "period must be 1 or 2")
			return
		}
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, matches)
	}
}

// handleSubmitScore accepts a score edit. The write happens after the
// debounce window, so success is 202.
func handleSubmitScore(logger *slog.Logger, svc *season.Service) http.HandlerFunc {
	type request struct {
		ScoreA *int `json:"score_a"`
		ScoreB *int `json:"score_b"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ScoreA == nil || req.ScoreB == nil {
			writeError(w, http.StatusBadRequest, "score_a and score_b are required")
			return
		}
		id := chi.URLParam(r, "matchID")
		author := r.Header.Get(AuthorHeader)
		if err := svc.SubmitScore(r.Context(), id, *req.ScoreA, *req.ScoreB, author); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"match_id": id,
			"score_a":  *req.ScoreA,
			"score_b":  *req.ScoreB,
		})
	}
}

func handleComplete(logger *slog.Logger, svc *season.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.MarkComplete(r.Context(), chi.URLParam(r, "matchID"), r.Header.Get(AuthorHeader))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// handleStandings ranks teams. Both query parameters are optional: no week
// ranks the season, no period counts both.
func handleStandings(logger *slog.Logger, svc *season.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var week, period int
		for _, p := range []struct {
			name string
			dst  *int
		}{{"week", &week}, {"period", &period}} {
			v := q.Get(p.name)
			if v == "" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, p.name+" must be a number")
				return
			}
			*p.dst = n
		}

		rows, err := svc.Standings(r.Context(), week, period)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}
