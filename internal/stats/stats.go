// Package stats folds match scores into per-team weekly statistics.
//
// Every aggregate is recomputed from the full contribution list, so
// applying the same match twice, or two matches in either order, always
// yields the same totals.
package stats

import (
	"sort"

	"github.com/derekprior/leaguenight/internal/league"
)

// ContributionFor returns what m adds to teamID's record. ok is false when
// the team does not play in the match.
func ContributionFor(m league.Match, teamID string) (c league.Contribution, ok bool) {
	var own, other int
	switch teamID {
	case m.TeamA:
		own, other = m.ScoreA, m.ScoreB
	case m.TeamB:
		own, other = m.ScoreB, m.ScoreA
	default:
		return c, false
	}

	c = league.Contribution{Period: m.Period, PointsFor: own, PointsAgainst: other}
	if own > 0 && other > 0 {
		switch {
		case own > other:
			c.Outcome = league.OutcomeWin
		case own < other:
			c.Outcome = league.OutcomeLoss
		}
	}
	return c, true
}

// Apply replaces the team's contribution for (match, period) and recomputes
// the week and season aggregates. It reports whether the team plays in m.
func Apply(t *league.Team, m league.Match) bool {
	c, ok := ContributionFor(m, t.ID)
	if !ok {
		return false
	}

	w := t.Week(m.Week)
	if w == nil {
		t.Weeks = append(t.Weeks, league.WeeklyStat{Week: m.Week})
		sort.Slice(t.Weeks, func(i, j int) bool { return t.Weeks[i].Week < t.Weeks[j].Week })
		w = t.Week(m.Week)
	}
	if w.Contributions == nil {
		w.Contributions = make(map[string][]league.Contribution)
	}

	list := w.Contributions[m.ID][:0:0]
	for _, prev := range w.Contributions[m.ID] {
		if prev.Period != c.Period {
			list = append(list, prev)
		}
	}
	w.Contributions[m.ID] = append(list, c)

	Recompute(w)
	t.TotalPoints = SeasonTotal(t.Weeks)
	return true
}

// Recompute derives a week's aggregates from its contributions.
func Recompute(w *league.WeeklyStat) {
	w.FirstPeriodPoints, w.SecondPeriodPoints, w.TotalPoints = 0, 0, 0
	w.Wins, w.Losses = 0, 0
	for _, cs := range w.Contributions {
		for _, c := range cs {
			switch c.Period {
			case 1:
				w.FirstPeriodPoints += c.PointsFor
			case 2:
				w.SecondPeriodPoints += c.PointsFor
			}
			w.TotalPoints += c.PointsFor
			switch c.Outcome {
			case league.OutcomeWin:
				w.Wins++
			case league.OutcomeLoss:
				w.Losses++
			}
		}
	}
}

// SeasonTotal sums the weekly totals.
func SeasonTotal(weeks []league.WeeklyStat) int {
	total := 0
	for _, w := range weeks {
		total += w.TotalPoints
	}
	return total
}
