package league

import "sort"

// Standing is one row of a ranking.
type Standing struct {
	Rank   int    `json:"rank"`
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// Rank orders teams by points, descending, breaking ties by name. Week 0
// ranks the whole season; period 0 counts both periods.
func Rank(teams []Team, week, period int) []Standing {
	out := make([]Standing, 0, len(teams))
	for _, t := range teams {
		s := Standing{TeamID: t.ID, Name: t.Name}
		for _, w := range t.Weeks {
			if week != 0 && w.Week != week {
				continue
			}
			s.Points += w.PeriodPoints(period)
			wins, losses := w.Record(period)
			s.Wins += wins
			s.Losses += losses
		}
		if week == 0 && period == 0 {
			s.Points = t.TotalPoints
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].TeamID < out[j].TeamID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
