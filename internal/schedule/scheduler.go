package schedule

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/derekprior/leaguenight/internal/config"
	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/strategy"
)

// placement is a pairing bound to a pool and a slot before numbering.
type placement struct {
	pool    int
	slot    Slot
	pairing strategy.Pairing
}

// FirstPeriod builds the six period-1 matches of a week. Within each pool
// the teams' rotation positions and the matches' slots are shuffled
// independently. Matches are numbered 1..6 in slot order, then pool order.
func FirstPeriod(cfg *config.Config, week int, pools [2]league.Pool, rng Shuffler) ([]league.Match, error) {
	if week < 1 {
		return nil, fmt.Errorf("week %d must be at least 1", week)
	}
	slots, err := GenerateSlots(cfg, 1)
	if err != nil {
		return nil, err
	}

	var placed []placement
	for p, pool := range pools {
		order := append([]string(nil), pool.Teams...)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		pairings, err := strategy.Rotation{}.Pairings(order)
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", pool.Label, err)
		}
		if len(slots) < len(pairings) {
			return nil, fmt.Errorf("period 1 has %d slots for %d matches", len(slots), len(pairings))
		}

		slotOrder := make([]int, len(pairings))
		for i := range slotOrder {
			slotOrder[i] = i
		}
		rng.Shuffle(len(slotOrder), func(i, j int) { slotOrder[i], slotOrder[j] = slotOrder[j], slotOrder[i] })

		for i, pr := range pairings {
			placed = append(placed, placement{pool: p, slot: slots[slotOrder[i]], pairing: pr})
		}
	}

	return number(cfg, week, 1, pools, placed, 0), nil
}

// SecondPeriod builds the period-2 matches from rank-ordered pools. Pairing
// n of each pool lands in slot n; numbering continues after `after`.
func SecondPeriod(cfg *config.Config, week int, pools [2]league.Pool, after int) ([]league.Match, error) {
	if week < 1 {
		return nil, fmt.Errorf("week %d must be at least 1", week)
	}
	slots, err := GenerateSlots(cfg, 2)
	if err != nil {
		return nil, err
	}

	var placed []placement
	for p, pool := range pools {
		pairings, err := strategy.Ranked{}.Pairings(pool.Teams)
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", pool.Label, err)
		}
		if len(slots) < len(pairings) {
			return nil, fmt.Errorf("period 2 has %d slots for %d matches", len(slots), len(pairings))
		}
		for i, pr := range pairings {
			placed = append(placed, placement{pool: p, slot: slots[i], pairing: pr})
		}
	}

	return number(cfg, week, 2, pools, placed, after), nil
}

func number(cfg *config.Config, week, period int, pools [2]league.Pool, placed []placement, after int) []league.Match {
	sort.SliceStable(placed, func(i, j int) bool {
		if placed[i].slot.Index != placed[j].slot.Index {
			return placed[i].slot.Index < placed[j].slot.Index
		}
		return placed[i].pool < placed[j].pool
	})

	matches := make([]league.Match, len(placed))
	for i, pl := range placed {
		matches[i] = league.Match{
			ID:      uuid.NewString(),
			Week:    week,
			Period:  period,
			Number:  after + i + 1,
			Pool:    pools[pl.pool].Label,
			TeamA:   pl.pairing.TeamA,
			TeamB:   pl.pairing.TeamB,
			Referee: pl.pairing.Referee,
			Slot:    pl.slot.Label,
			Start:   pl.slot.Start(cfg, week),
			End:     pl.slot.End(cfg, week),
		}
	}
	return matches
}
