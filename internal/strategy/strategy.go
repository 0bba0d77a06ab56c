package strategy

import (
	"fmt"
)

// Pairing is one match of a pool round-robin: two teams play while the
// third referees.
type Pairing struct {
	TeamA   string
	TeamB   string
	Referee string
	Label   string // position within the pool, like "Match 1"
}

// Strategy turns the ordered teams of one pool into its three pairings.
type Strategy interface {
	Pairings(teams []string) ([]Pairing, error)
}

// Rotation plays every team twice and lets each referee once:
// A-B with C refereeing, B-C with A, C-A with B.
type Rotation struct{}

func (Rotation) Pairings(teams []string) ([]Pairing, error) {
	if err := checkPool(teams); err != nil {
		return nil, err
	}
	a, b, c := teams[0], teams[1], teams[2]
	return label([]Pairing{
		{TeamA: a, TeamB: b, Referee: c},
		{TeamA: b, TeamB: c, Referee: a},
		{TeamA: c, TeamB: a, Referee: b},
	}), nil
}

// Ranked expects teams in rank order and opens with the widest gap:
// r1-r3 with r2 refereeing, r3-r2 with r1, then r1-r2 with r3.
type Ranked struct{}

func (Ranked) Pairings(teams []string) ([]Pairing, error) {
	if err := checkPool(teams); err != nil {
		return nil, err
	}
	r1, r2, r3 := teams[0], teams[1], teams[2]
	return label([]Pairing{
		{TeamA: r1, TeamB: r3, Referee: r2},
		{TeamA: r3, TeamB: r2, Referee: r1},
		{TeamA: r1, TeamB: r2, Referee: r3},
	}), nil
}

func checkPool(teams []string) error {
	if len(teams) != 3 {
		return fmt.Errorf("a pool needs 3 teams, got %d", len(teams))
	}
	if teams[0] == teams[1] || teams[0] == teams[2] || teams[1] == teams[2] {
		return fmt.Errorf("pool teams must be distinct: %v", teams)
	}
	return nil
}

func label(ps []Pairing) []Pairing {
	for i := range ps {
		ps[i].Label = fmt.Sprintf("Match %d", i+1)
	}
	return ps
}
