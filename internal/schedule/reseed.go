package schedule

import (
	"github.com/derekprior/leaguenight/internal/league"
)

// Reseed ranks the week's teams by period-1 points, ties broken by name,
// and returns the premier pool (top three) and the secondary pool (the
// rest), each in rank order.
func Reseed(week int, teams []league.Team, labels [2]string) ([2]league.Pool, []league.Standing, error) {
	var pools [2]league.Pool

	valid := league.Roster(teams).Valid()
	if len(valid) < league.SessionTeams {
		return pools, nil, &league.InsufficientTeamsError{Have: len(valid), Need: league.SessionTeams}
	}
	if len(valid) > league.SessionTeams {
		return pools, nil, &league.RosterSizeError{Have: len(valid), Max: league.SessionTeams}
	}

	standings := league.Rank(valid, week, 1)
	for p := range pools {
		pools[p].Label = labels[p]
		for _, s := range standings[p*league.PoolSize : (p+1)*league.PoolSize] {
			pools[p].Teams = append(pools[p].Teams, s.TeamID)
		}
	}
	return pools, standings, nil
}
