package league

// Outcome is the decision a match produced for one side.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Contribution is what one match, in one period, added to a team's week.
type Contribution struct {
	Period        int     `json:"period" bson:"period"`
	PointsFor     int     `json:"points_for" bson:"points_for"`
	PointsAgainst int     `json:"points_against" bson:"points_against"`
	Outcome       Outcome `json:"outcome,omitempty" bson:"outcome,omitempty"`
}

// WeeklyStat holds a team's aggregates for one week. Every aggregate is
// derived from Contributions, keyed by match id.
type WeeklyStat struct {
	Week               int                       `json:"week" bson:"week"`
	FirstPeriodPoints  int                       `json:"first_period_points" bson:"first_period_points"`
	SecondPeriodPoints int                       `json:"second_period_points" bson:"second_period_points"`
	TotalPoints        int                       `json:"total_points" bson:"total_points"`
	Wins               int                       `json:"wins" bson:"wins"`
	Losses             int                       `json:"losses" bson:"losses"`
	Contributions      map[string][]Contribution `json:"contributions,omitempty" bson:"contributions,omitempty"`
}

// PeriodPoints returns the points for period 1 or 2, and the week total for 0.
func (w WeeklyStat) PeriodPoints(period int) int {
	switch period {
	case 1:
		return w.FirstPeriodPoints
	case 2:
		return w.SecondPeriodPoints
	default:
		return w.TotalPoints
	}
}

// Record returns wins and losses for one period, or for the whole week when
// period is 0.
func (w WeeklyStat) Record(period int) (wins, losses int) {
	if period == 0 {
		return w.Wins, w.Losses
	}
	for _, cs := range w.Contributions {
		for _, c := range cs {
			if c.Period != period {
				continue
			}
			switch c.Outcome {
			case OutcomeWin:
				wins++
			case OutcomeLoss:
				losses++
			}
		}
	}
	return wins, losses
}

func (w WeeklyStat) Clone() WeeklyStat {
	out := w
	if w.Contributions != nil {
		out.Contributions = make(map[string][]Contribution, len(w.Contributions))
		for id, cs := range w.Contributions {
			out.Contributions[id] = append([]Contribution(nil), cs...)
		}
	}
	return out
}
