package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/derekprior/leaguenight/internal/keylock"
	"github.com/derekprior/leaguenight/internal/league"
)

// Aggregator applies committed match scores to the stored team records.
// Each team's read-modify-write runs under that team's lock against the
// freshest stored record.
type Aggregator struct {
	repo   league.Repository
	logger *slog.Logger
	locks  keylock.Mutex
}

func NewAggregator(repo league.Repository, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{repo: repo, logger: logger}
}

// Lock holds the stats lock of one team until the returned func is called.
// Roster edits take it so they do not overwrite a concurrent stats update.
func (a *Aggregator) Lock(teamID string) func() {
	return a.locks.Lock(teamID)
}

// Record folds m into both playing teams and returns the updated records.
func (a *Aggregator) Record(ctx context.Context, m league.Match) ([]league.Team, error) {
	ids := []string{m.TeamA, m.TeamB}
	sort.Strings(ids)

	var out []league.Team
	for _, id := range ids {
		t, err := a.recordTeam(ctx, id, m)
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (a *Aggregator) recordTeam(ctx context.Context, id string, m league.Match) (league.Team, error) {
	unlock := a.locks.Lock(id)
	defer unlock()

	t, err := a.repo.ReadTeam(ctx, id)
	if err != nil {
		return league.Team{}, league.Persist(fmt.Sprintf("reading team %s", id), err)
	}
	t = t.Clone()
	if !Apply(&t, m) {
		return t, nil
	}
	if err := a.repo.UpdateTeamStats(ctx, t.ID, t.Weeks, t.TotalPoints); err != nil {
		return league.Team{}, league.Persist(fmt.Sprintf("updating stats for team %s", id), err)
	}
	a.logger.Debug("team stats updated",
		slog.String("team", t.Name),
		slog.String("match", m.ID),
		slog.Int("week", m.Week),
		slog.Int("total_points", t.TotalPoints))
	return t, nil
}
