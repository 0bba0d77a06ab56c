package league

import (
	"fmt"
	"sort"
	"time"
)

// Match is one game between two teams with a third team refereeing.
type Match struct {
	ID        string    `json:"id" bson:"_id"`
	Week      int       `json:"week" bson:"week"`
	Period    int       `json:"period" bson:"period"`
	Number    int       `json:"number" bson:"number"`
	Pool      string    `json:"pool" bson:"pool"`
	TeamA     string    `json:"team_a" bson:"team_a"`
	TeamB     string    `json:"team_b" bson:"team_b"`
	Referee   string    `json:"referee" bson:"referee"`
	ScoreA    int       `json:"score_a" bson:"score_a"`
	ScoreB    int       `json:"score_b" bson:"score_b"`
	Completed bool      `json:"completed" bson:"completed"`
	Slot      string    `json:"slot" bson:"slot"`
	Start     time.Time `json:"start" bson:"start"`
	End       time.Time `json:"end" bson:"end"`
}

// Validate checks the structural invariants stores enforce before a write.
func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("match has no id")
	}
	if m.Week < 1 {
		return fmt.Errorf("match %s: week %d must be at least 1", m.ID, m.Week)
	}
	if m.Period != 1 && m.Period != 2 {
		return fmt.Errorf("match %s: period %d must be 1 or 2", m.ID, m.Period)
	}
	if m.TeamA == "" || m.TeamB == "" || m.Referee == "" {
		return fmt.Errorf("match %s: teams and referee are required", m.ID)
	}
	if m.TeamA == m.TeamB || m.TeamA == m.Referee || m.TeamB == m.Referee {
		return fmt.Errorf("match %s: teams and referee must be distinct", m.ID)
	}
	if m.ScoreA < 0 || m.ScoreB < 0 {
		return fmt.Errorf("match %s: %w", m.ID, ErrInvalidScore)
	}
	return nil
}

// Scored reports whether both sides have a non-zero score.
func (m Match) Scored() bool {
	return m.ScoreA > 0 && m.ScoreB > 0
}

// Involves reports whether the team plays or referees the match.
func (m Match) Involves(teamID string) bool {
	return m.TeamA == teamID || m.TeamB == teamID || m.Referee == teamID
}

// MatchPatch carries the fields of a partial match update. Nil fields are
// left unchanged.
type MatchPatch struct {
	ScoreA    *int  `json:"score_a,omitempty"`
	ScoreB    *int  `json:"score_b,omitempty"`
	Completed *bool `json:"completed,omitempty"`
}

// ScorePatch sets both scores.
func ScorePatch(a, b int) MatchPatch {
	return MatchPatch{ScoreA: &a, ScoreB: &b}
}

// CompletePatch marks the match completed.
func CompletePatch() MatchPatch {
	done := true
	return MatchPatch{Completed: &done}
}

// Apply writes the non-nil fields onto m.
func (p MatchPatch) Apply(m *Match) {
	if p.ScoreA != nil {
		m.ScoreA = *p.ScoreA
	}
	if p.ScoreB != nil {
		m.ScoreB = *p.ScoreB
	}
	if p.Completed != nil {
		m.Completed = *p.Completed
	}
}

// Empty reports whether the patch changes nothing.
func (p MatchPatch) Empty() bool {
	return p.ScoreA == nil && p.ScoreB == nil && p.Completed == nil
}

// PeriodMatches returns the matches of one period, preserving order.
func PeriodMatches(matches []Match, period int) []Match {
	var out []Match
	for _, m := range matches {
		if m.Period == period {
			out = append(out, m)
		}
	}
	return out
}

// MaxNumber returns the highest match number in the list, or 0.
func MaxNumber(matches []Match) int {
	n := 0
	for _, m := range matches {
		n = max(n, m.Number)
	}
	return n
}

// SortMatches orders matches by week, then number.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Week != matches[j].Week {
			return matches[i].Week < matches[j].Week
		}
		return matches[i].Number < matches[j].Number
	})
}
