// Package storetest holds the behaviour every league.Repository adapter must
// share. Adapter tests call Run with a constructor for an empty store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/derekprior/leaguenight/internal/league"
)

// Run exercises a repository. open must return an empty store.
func Run(t *testing.T, open func(t *testing.T) league.Repository) {
	t.Run("teams", func(t *testing.T) { testTeams(t, open(t)) })
	t.Run("team stats", func(t *testing.T) { testTeamStats(t, open(t)) })
	t.Run("matches", func(t *testing.T) { testMatches(t, open(t)) })
	t.Run("match batch conflicts", func(t *testing.T) { testBatchConflict(t, open(t)) })
	t.Run("match updates", func(t *testing.T) { testMatchUpdates(t, open(t)) })
	t.Run("partial match patches", func(t *testing.T) { testPartialPatches(t, open(t)) })
}

// Match returns a valid fresh match for tests.
func Match(id string, week, period, number int) league.Match {
	start := time.Date(2026, 9, 8, 18, 0, 0, 0, time.UTC).AddDate(0, 0, (week-1)*7)
	return league.Match{
		ID:      id,
		Week:    week,
		Period:  period,
		Number:  number,
		Pool:    "North",
		TeamA:   "t1",
		TeamB:   "t2",
		Referee: "t3",
		Slot:    "18:00",
		Start:   start,
		End:     start.Add(25 * time.Minute),
	}
}

func testTeams(t *testing.T, repo league.Repository) {
	ctx := context.Background()

	for _, team := range []league.Team{
		{ID: "t2", Name: "Blockers"},
		{ID: "t1", Name: "Aces"},
	} {
		if err := repo.WriteTeam(ctx, team); err != nil {
			t.Fatalf("WriteTeam(%s): %v", team.Name, err)
		}
	}

	teams, err := repo.ReadTeams(ctx)
	if err != nil {
		t.Fatalf("ReadTeams: %v", err)
	}
	if len(teams) != 2 || teams[0].Name != "Aces" || teams[1].Name != "Blockers" {
		t.Fatalf("ReadTeams = %+v, want Aces then Blockers", teams)
	}

	if err := repo.WriteTeam(ctx, league.Team{ID: "t1", Name: "Aces Renamed"}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := repo.ReadTeam(ctx, "t1")
	if err != nil {
		t.Fatalf("ReadTeam: %v", err)
	}
	if got.Name != "Aces Renamed" {
		t.Errorf("name = %q, want %q", got.Name, "Aces Renamed")
	}

	if err := repo.UpdateTeamPool(ctx, "t1", "North"); err != nil {
		t.Fatalf("UpdateTeamPool: %v", err)
	}
	got, _ = repo.ReadTeam(ctx, "t1")
	if got.Pool != "North" {
		t.Errorf("pool = %q, want North", got.Pool)
	}

	_, err = repo.ReadTeam(ctx, "missing")
	var nf *league.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("ReadTeam(missing) = %v, want NotFoundError", err)
	}
	if err := repo.UpdateTeamPool(ctx, "missing", "x"); !errors.As(err, &nf) {
		t.Errorf("UpdateTeamPool(missing) = %v, want NotFoundError", err)
	}
}

func testTeamStats(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	if err := repo.WriteTeam(ctx, league.Team{ID: "t1", Name: "Aces"}); err != nil {
		t.Fatal(err)
	}

	weeks := []league.WeeklyStat{{
		Week:              1,
		FirstPeriodPoints: 25,
		TotalPoints:       25,
		Wins:              1,
		Contributions: map[string][]league.Contribution{
			"m1": {{Period: 1, PointsFor: 25, PointsAgainst: 20, Outcome: league.OutcomeWin}},
		},
	}}
	if err := repo.UpdateTeamStats(ctx, "t1", weeks, 25); err != nil {
		t.Fatalf("UpdateTeamStats: %v", err)
	}

	got, err := repo.ReadTeam(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalPoints != 25 {
		t.Errorf("total = %d, want 25", got.TotalPoints)
	}
	if len(got.Weeks) != 1 || got.Weeks[0].Wins != 1 {
		t.Fatalf("weeks = %+v", got.Weeks)
	}
	c := got.Weeks[0].Contributions["m1"]
	if len(c) != 1 || c[0].PointsAgainst != 20 || c[0].Outcome != league.OutcomeWin {
		t.Errorf("contributions = %+v", c)
	}

	weeks[0].Contributions["m1"][0].PointsFor = 0
	got, _ = repo.ReadTeam(ctx, "t1")
	if got.Weeks[0].Contributions["m1"][0].PointsFor != 25 {
		t.Error("store aliases the caller's stats")
	}

	var nf *league.NotFoundError
	if err := repo.UpdateTeamStats(ctx, "missing", nil, 0); !errors.As(err, &nf) {
		t.Errorf("UpdateTeamStats(missing) = %v, want NotFoundError", err)
	}
}

func testMatches(t *testing.T, repo league.Repository) {
	ctx := context.Background()

	id, err := repo.WriteMatch(ctx, Match("m1", 1, 1, 1))
	if err != nil {
		t.Fatalf("WriteMatch: %v", err)
	}
	if id != "m1" {
		t.Errorf("id = %q, want m1", id)
	}

	batch := []league.Match{Match("m3", 1, 1, 3), Match("m2", 1, 1, 2), Match("w2", 2, 1, 1)}
	if err := repo.WriteMatches(ctx, batch); err != nil {
		t.Fatalf("WriteMatches: %v", err)
	}

	week1, err := repo.ReadMatches(ctx, 1)
	if err != nil {
		t.Fatalf("ReadMatches: %v", err)
	}
	if len(week1) != 3 {
		t.Fatalf("week 1 matches = %d, want 3", len(week1))
	}
	for i, m := range week1 {
		if m.Number != i+1 {
			t.Errorf("match %d number = %d, want ordered by number", i, m.Number)
		}
	}

	all, err := repo.ReadMatches(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 || all[3].Week != 2 {
		t.Errorf("all matches = %d, last week %d; want 4 ending with week 2", len(all), all[len(all)-1].Week)
	}

	got, err := repo.ReadMatch(ctx, "m2")
	if err != nil {
		t.Fatalf("ReadMatch: %v", err)
	}
	want := Match("m2", 1, 1, 2)
	if got.TeamA != want.TeamA || got.Referee != want.Referee || got.Slot != want.Slot || !got.Start.Equal(want.Start) || !got.End.Equal(want.End) {
		t.Errorf("ReadMatch = %+v, want %+v", got, want)
	}

	var nf *league.NotFoundError
	if _, err := repo.ReadMatch(ctx, "missing"); !errors.As(err, &nf) {
		t.Errorf("ReadMatch(missing) = %v, want NotFoundError", err)
	}

	bad := Match("bad", 1, 2, 1)
	bad.Referee = bad.TeamA
	if _, err := repo.WriteMatch(ctx, bad); err == nil {
		t.Error("expected error writing a match whose referee plays")
	}
}

func testBatchConflict(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	if err := repo.WriteMatches(ctx, []league.Match{Match("a7", 1, 2, 7)}); err != nil {
		t.Fatal(err)
	}

	err := repo.WriteMatches(ctx, []league.Match{Match("b8", 1, 2, 8), Match("b7", 1, 2, 7)})
	var ag *league.AlreadyGeneratedError
	if !errors.As(err, &ag) {
		t.Fatalf("WriteMatches = %v, want AlreadyGeneratedError", err)
	}
	if ag.Week != 1 || ag.Period != 2 {
		t.Errorf("error = %+v, want week 1 period 2", ag)
	}

	ms, _ := repo.ReadMatches(ctx, 1)
	if len(ms) != 1 {
		t.Errorf("matches after failed batch = %d, want 1", len(ms))
	}
}

func testMatchUpdates(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	if _, err := repo.WriteMatch(ctx, Match("m1", 1, 1, 1)); err != nil {
		t.Fatal(err)
	}

	if err := repo.UpdateMatch(ctx, "m1", league.ScorePatch(25, 20)); err != nil {
		t.Fatalf("UpdateMatch scores: %v", err)
	}
	got, _ := repo.ReadMatch(ctx, "m1")
	if got.ScoreA != 25 || got.ScoreB != 20 || got.Completed {
		t.Errorf("after score patch = %d-%d completed=%v", got.ScoreA, got.ScoreB, got.Completed)
	}

	if err := repo.UpdateMatch(ctx, "m1", league.CompletePatch()); err != nil {
		t.Fatalf("UpdateMatch completed: %v", err)
	}
	got, _ = repo.ReadMatch(ctx, "m1")
	if !got.Completed || got.ScoreA != 25 {
		t.Errorf("after complete patch = %+v", got)
	}

	var nf *league.NotFoundError
	if err := repo.UpdateMatch(ctx, "missing", league.CompletePatch()); !errors.As(err, &nf) {
		t.Errorf("UpdateMatch(missing) = %v, want NotFoundError", err)
	}
}

func testPartialPatches(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	if _, err := repo.WriteMatch(ctx, Match("m1", 1, 1, 1)); err != nil {
		t.Fatal(err)
	}

	t.Run("one score leaves the other", func(t *testing.T) {
		if err := repo.UpdateMatch(ctx, "m1", league.ScorePatch(25, 20)); err != nil {
			t.Fatal(err)
		}
		b := 23
		if err := repo.UpdateMatch(ctx, "m1", league.MatchPatch{ScoreB: &b}); err != nil {
			t.Fatal(err)
		}
		got, _ := repo.ReadMatch(ctx, "m1")
		if got.ScoreA != 25 || got.ScoreB != 23 {
			t.Errorf("scores = %d-%d, want 25-23", got.ScoreA, got.ScoreB)
		}
	})

	t.Run("invalid patch is rejected", func(t *testing.T) {
		neg := -1
		if err := repo.UpdateMatch(ctx, "m1", league.MatchPatch{ScoreA: &neg}); err == nil {
			t.Error("expected error for negative score")
		}
		got, _ := repo.ReadMatch(ctx, "m1")
		if got.ScoreA != 25 {
			t.Errorf("score a = %d, want 25", got.ScoreA)
		}
	})

	t.Run("concurrent score and completion both land", func(t *testing.T) {
		if _, err := repo.WriteMatch(ctx, Match("m2", 1, 1, 2)); err != nil {
			t.Fatal(err)
		}
		var wg sync.WaitGroup
		for i := 1; i <= 8; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				if err := repo.UpdateMatch(ctx, "m2", league.ScorePatch(n, n)); err != nil {
					t.Errorf("score patch %d: %v", n, err)
				}
			}(i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.UpdateMatch(ctx, "m2", league.CompletePatch()); err != nil {
				t.Errorf("complete patch: %v", err)
			}
		}()
		wg.Wait()

		got, _ := repo.ReadMatch(ctx, "m2")
		if !got.Completed {
			t.Error("completion was overwritten by a score patch")
		}
		if got.ScoreA == 0 || got.ScoreA != got.ScoreB {
			t.Errorf("scores = %d-%d, want one submitted pair", got.ScoreA, got.ScoreB)
		}
	})
}
