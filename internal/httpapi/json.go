package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/season"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a domain error to its HTTP status. Storage
// failures are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		notFound   *league.NotFoundError
		generated  *league.AlreadyGeneratedError
		incomplete *league.IncompletePeriodError
		tooFew     *league.InsufficientTeamsError
		tooMany    *league.RosterSizeError
		persist    *league.PersistenceError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, league.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, league.ErrInvalid), errors.Is(err, league.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &generated), errors.As(err, &incomplete), errors.Is(err, league.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &tooFew), errors.As(err, &tooMany):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, season.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &persist):
		logger.Error("storage failure", slog.String("op", persist.Op), slog.Any("error", persist.Err))
		writeError(w, http.StatusInternalServerError, "storage failure")
	default:
		logger.Error("unhandled error", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
