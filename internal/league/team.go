package league

import (
	"sort"
	"strings"
)

// SessionTeams is the number of teams a weekly session hosts: two pools of
// PoolSize, each playing PoolSize matches per period.
const (
	PoolSize         = 3
	SessionTeams     = 2 * PoolSize
	MatchesPerPeriod = 2 * PoolSize
)

// Team is a competing team and its running statistics.
type Team struct {
	ID          string       `json:"id" bson:"_id"`
	Name        string       `json:"name" bson:"name"`
	Pool        string       `json:"pool,omitempty" bson:"pool,omitempty"`
	TotalPoints int          `json:"total_points" bson:"total_points"`
	Weeks       []WeeklyStat `json:"weeks,omitempty" bson:"weeks,omitempty"`
}

// Valid reports whether the team carries a usable id and name.
func (t Team) Valid() bool {
	return strings.TrimSpace(t.ID) != "" && strings.TrimSpace(t.Name) != ""
}

// Week returns the stat entry for week, or nil if the team has not
// contributed that week.
func (t *Team) Week(week int) *WeeklyStat {
	for i := range t.Weeks {
		if t.Weeks[i].Week == week {
			return &t.Weeks[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate stats without aliasing
// a stored record.
func (t Team) Clone() Team {
	out := t
	if t.Weeks != nil {
		out.Weeks = make([]WeeklyStat, len(t.Weeks))
		for i, w := range t.Weeks {
			out.Weeks[i] = w.Clone()
		}
	}
	return out
}

// Roster is an ordered set of teams.
type Roster []Team

// Valid returns the teams with a usable id and name. Later duplicates of an
// id are dropped.
func (r Roster) Valid() Roster {
	seen := make(map[string]bool, len(r))
	var out Roster
	for _, t := range r {
		if !t.Valid() || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// ByID indexes the roster by team id.
func (r Roster) ByID() map[string]Team {
	m := make(map[string]Team, len(r))
	for _, t := range r {
		m[t.ID] = t
	}
	return m
}

// Names maps team id to display name.
func (r Roster) Names() map[string]string {
	m := make(map[string]string, len(r))
	for _, t := range r {
		m[t.ID] = t.Name
	}
	return m
}

// SortByName orders the roster by name, then id.
func (r Roster) SortByName() {
	sort.SliceStable(r, func(i, j int) bool {
		if r[i].Name != r[j].Name {
			return r[i].Name < r[j].Name
		}
		return r[i].ID < r[j].ID
	})
}

// Pool is a labelled group of PoolSize team ids. For period 2 the order is
// rank order.
type Pool struct {
	Label string   `json:"label"`
	Teams []string `json:"teams"`
}
