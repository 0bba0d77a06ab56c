package schedule

import (
	"github.com/derekprior/leaguenight/internal/league"
)

// Partition splits a six-team roster into two pools of three. The whole
// roster is shuffled, then each half is shuffled again on its own.
func Partition(roster league.Roster, labels [2]string, rng Shuffler) ([2]league.Pool, error) {
	var pools [2]league.Pool

	teams := roster.Valid()
	if len(teams) < league.SessionTeams {
		return pools, &league.InsufficientTeamsError{Have: len(teams), Need: league.SessionTeams}
	}
	if len(teams) > league.SessionTeams {
		return pools, &league.RosterSizeError{Have: len(teams), Max: league.SessionTeams}
	}

	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	for p := range pools {
		half := append([]string(nil), ids[p*league.PoolSize:(p+1)*league.PoolSize]...)
		rng.Shuffle(len(half), func(i, j int) { half[i], half[j] = half[j], half[i] })
		pools[p] = league.Pool{Label: labels[p], Teams: half}
	}
	return pools, nil
}
