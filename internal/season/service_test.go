package season

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/derekprior/leaguenight/internal/config"
	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/store/memory"
)

// identity leaves every slice in its original order.
type identity struct{}

func (identity) Shuffle(int, func(i, j int)) {}

var teamNames = []string{"Aces", "Blockers", "Cobras", "Diggers", "Eagles", "Falcons"}

func testConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(`
season:
  epoch: "2026-09-08"
pools:
  period1: ["North", "South"]
  premier: Premier
  secondary: Secondary
` + extra))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	return cfg
}

type fixture struct {
	svc  *Service
	repo *countingRepo
	ids  map[string]string // name -> id
	pub  *recorder
}

func newFixture(t *testing.T, cfgExtra string, opts ...Option) *fixture {
	t.Helper()
	repo := &countingRepo{Repository: memory.New()}
	ids := map[string]string{}
	for i, name := range teamNames {
		id := fmt.Sprintf("t%d", i+1)
		if err := repo.WriteTeam(context.Background(), league.Team{ID: id, Name: name}); err != nil {
			t.Fatal(err)
		}
		ids[name] = id
	}
	pub := &recorder{}
	base := []Option{
		WithRand(identity{}),
		WithAuthorizer(league.AllowAll{}),
		WithDebounce(0),
		WithPublisher(pub),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	svc := New(repo, testConfig(t, cfgExtra), append(base, opts...)...)
	t.Cleanup(svc.Close)
	return &fixture{svc: svc, repo: repo, ids: ids, pub: pub}
}

// byNumber indexes a week's matches by number.
func (f *fixture) byNumber(t *testing.T, week int) map[int]league.Match {
	t.Helper()
	ms, err := f.svc.Matches(context.Background(), week)
	if err != nil {
		t.Fatal(err)
	}
	out := map[int]league.Match{}
	for _, m := range ms {
		out[m.Number] = m
	}
	return out
}

// scorePeriodOne plays the first period so that, with identity shuffles,
// Aces and Diggers finish on 50, Falcons 45, Blockers and Cobras 42 and
// Eagles 25.
//
//	#1 Aces v Blockers      #2 Diggers v Eagles
//	#3 Blockers v Cobras    #4 Eagles v Falcons
//	#5 Cobras v Aces        #6 Falcons v Diggers
func (f *fixture) scorePeriodOne(t *testing.T, week int) {
	t.Helper()
	scores := map[int][2]int{
		1: {25, 20},
		2: {25, 10},
		3: {22, 24},
		4: {15, 25},
		5: {18, 25},
		6: {20, 25},
	}
	f.submitAll(t, week, scores)
}

func (f *fixture) submitAll(t *testing.T, week int, scores map[int][2]int) {
	t.Helper()
	ms := f.byNumber(t, week)
	for n := 1; n <= 12; n++ {
		sc, ok := scores[n]
		if !ok {
			continue
		}
		if err := f.svc.SubmitScore(context.Background(), ms[n].ID, sc[0], sc[1], "admin"); err != nil {
			t.Fatalf("SubmitScore(#%d): %v", n, err)
		}
	}
	f.svc.Flush()
}

func TestGenerateFirstPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	matches, err := f.svc.GenerateFirstPeriod(ctx, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 6 {
		t.Fatalf("matches = %d, want 6", len(matches))
	}

	t.Run("each team plays twice and referees once", func(t *testing.T) {
		plays := map[string]int{}
		refs := map[string]int{}
		for _, m := range matches {
			plays[m.TeamA]++
			plays[m.TeamB]++
			refs[m.Referee]++
		}
		for name, id := range f.ids {
			if plays[id] != 2 || refs[id] != 1 {
				t.Errorf("%s plays %d and referees %d, want 2 and 1", name, plays[id], refs[id])
			}
		}
	})

	t.Run("teams carry their pool", func(t *testing.T) {
		aces, _ := f.repo.ReadTeam(ctx, f.ids["Aces"])
		eagles, _ := f.repo.ReadTeam(ctx, f.ids["Eagles"])
		if aces.Pool != "North" || eagles.Pool != "South" {
			t.Errorf("pools = %q/%q, want North/South", aces.Pool, eagles.Pool)
		}
	})

	t.Run("state is open", func(t *testing.T) {
		state, err := f.svc.WeekState(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if state != league.P1Open {
			t.Errorf("state = %s, want %s", state, league.P1Open)
		}
	})

	t.Run("second call is rejected", func(t *testing.T) {
		_, err := f.svc.GenerateFirstPeriod(ctx, 1, nil)
		var ag *league.AlreadyGeneratedError
		if !errors.As(err, &ag) || ag.Period != 1 {
			t.Fatalf("error = %v, want AlreadyGeneratedError for period 1", err)
		}
		ms, _ := f.svc.Matches(ctx, 1)
		if len(ms) != 6 {
			t.Errorf("matches = %d after rejected call, want 6", len(ms))
		}
	})

	t.Run("event published", func(t *testing.T) {
		ev := f.pub.find(EventPeriodGenerated)
		if ev == nil || ev.Period != 1 || len(ev.Matches) != 6 {
			t.Errorf("period event = %+v", ev)
		}
	})

	t.Run("week zero", func(t *testing.T) {
		if _, err := f.svc.GenerateFirstPeriod(ctx, 0, nil); err == nil {
			t.Error("expected error for week 0")
		}
	})
}

func TestGenerateFirstPeriodRoster(t *testing.T) {
	ctx := context.Background()

	t.Run("too few valid teams", func(t *testing.T) {
		f := newFixture(t, "")
		roster := league.Roster{{ID: "t1", Name: "Aces"}, {ID: "t2", Name: "Blockers"}, {ID: "", Name: "Ghost"}}
		_, err := f.svc.GenerateFirstPeriod(ctx, 1, roster)
		var ite *league.InsufficientTeamsError
		if !errors.As(err, &ite) {
			t.Fatalf("error = %v, want InsufficientTeamsError", err)
		}
		if ite.Have != 2 {
			t.Errorf("have = %d, want 2", ite.Have)
		}
		ms, _ := f.svc.Matches(ctx, 1)
		if len(ms) != 0 {
			t.Errorf("matches written = %d, want 0", len(ms))
		}
	})

	t.Run("unknown team", func(t *testing.T) {
		f := newFixture(t, "")
		roster := league.Roster{{ID: "nope", Name: "Nope"}}
		_, err := f.svc.GenerateFirstPeriod(ctx, 1, roster)
		var nf *league.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("error = %v, want NotFoundError", err)
		}
	})

	t.Run("seventh team", func(t *testing.T) {
		f := newFixture(t, "")
		if _, err := f.svc.AddTeam(ctx, "", "Gophers"); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.GenerateFirstPeriod(ctx, 1, nil)
		var rse *league.RosterSizeError
		if !errors.As(err, &rse) {
			t.Fatalf("error = %v, want RosterSizeError", err)
		}
	})
}

func TestGenerateSecondPeriodPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	t.Run("nothing scheduled", func(t *testing.T) {
		_, err := f.svc.GenerateSecondPeriod(ctx, 1)
		var ipe *league.IncompletePeriodError
		if !errors.As(err, &ipe) {
			t.Fatalf("error = %v, want IncompletePeriodError", err)
		}
	})

	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	f.submitAll(t, 1, map[int][2]int{1: {25, 20}, 2: {25, 10}})

	t.Run("period 1 open", func(t *testing.T) {
		_, err := f.svc.GenerateSecondPeriod(ctx, 1)
		var ipe *league.IncompletePeriodError
		if !errors.As(err, &ipe) {
			t.Fatalf("error = %v, want IncompletePeriodError", err)
		}
		// Scored matches stay open until the whole period is scored.
		if ipe.Pending != 6 {
			t.Errorf("pending = %d, want 6", ipe.Pending)
		}
		ms, _ := f.svc.Matches(ctx, 1)
		if len(ms) != 6 {
			t.Errorf("matches = %d, want 6", len(ms))
		}
	})
}

func TestLeagueNight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	f.scorePeriodOne(t, 1)

	t.Run("period 1 completes when every match is scored", func(t *testing.T) {
		state, _ := f.svc.WeekState(ctx, 1)
		if state != league.P1Complete {
			t.Fatalf("state = %s, want %s", state, league.P1Complete)
		}
		for n, m := range f.byNumber(t, 1) {
			if !m.Completed {
				t.Errorf("match #%d not completed", n)
			}
		}
	})

	t.Run("aces stats", func(t *testing.T) {
		aces, _ := f.repo.ReadTeam(ctx, f.ids["Aces"])
		w := aces.Week(1)
		if w == nil || w.FirstPeriodPoints != 50 || w.Wins != 2 || w.Losses != 0 {
			t.Fatalf("aces week 1 = %+v", w)
		}
		if aces.TotalPoints != 50 {
			t.Errorf("season total = %d, want 50", aces.TotalPoints)
		}
	})

	p2, err := f.svc.GenerateSecondPeriod(ctx, 1)
	if err != nil {
		t.Fatalf("GenerateSecondPeriod: %v", err)
	}

	t.Run("second period reseeded", func(t *testing.T) {
		if len(p2) != 6 {
			t.Fatalf("period 2 matches = %d, want 6", len(p2))
		}
		first := p2[0]
		if first.Number != 7 || first.Pool != "Premier" {
			t.Errorf("first match = #%d in %s, want #7 in Premier", first.Number, first.Pool)
		}
		if first.TeamA != f.ids["Aces"] || first.TeamB != f.ids["Falcons"] || first.Referee != f.ids["Diggers"] {
			t.Errorf("match 7 = %s v %s ref %s, want Aces v Falcons ref Diggers", first.TeamA, first.TeamB, first.Referee)
		}
		second := p2[1]
		if second.Pool != "Secondary" || second.TeamA != f.ids["Blockers"] || second.TeamB != f.ids["Eagles"] || second.Referee != f.ids["Cobras"] {
			t.Errorf("match 8 = %+v, want Blockers v Eagles ref Cobras", second)
		}
		for i, m := range p2 {
			if m.Number != 7+i || m.Period != 2 {
				t.Errorf("match %d = #%d period %d", i, m.Number, m.Period)
			}
		}
		aces, _ := f.repo.ReadTeam(ctx, f.ids["Aces"])
		if aces.Pool != "Premier" {
			t.Errorf("aces pool = %q, want Premier", aces.Pool)
		}
	})

	t.Run("second period generated once", func(t *testing.T) {
		_, err := f.svc.GenerateSecondPeriod(ctx, 1)
		var ag *league.AlreadyGeneratedError
		if !errors.As(err, &ag) || ag.Period != 2 {
			t.Fatalf("error = %v, want AlreadyGeneratedError for period 2", err)
		}
		ms, _ := f.svc.Matches(ctx, 1)
		if len(ms) != 12 {
			t.Errorf("matches = %d, want 12", len(ms))
		}
	})

	t.Run("state moves through period 2", func(t *testing.T) {
		state, _ := f.svc.WeekState(ctx, 1)
		if state != league.P2Generated {
			t.Fatalf("state = %s, want %s", state, league.P2Generated)
		}

		f.submitAll(t, 1, map[int][2]int{7: {25, 23}})
		state, _ = f.svc.WeekState(ctx, 1)
		if state != league.P2Open {
			t.Fatalf("state = %s, want %s", state, league.P2Open)
		}

		f.submitAll(t, 1, map[int][2]int{8: {25, 1}, 9: {25, 2}, 10: {25, 3}, 11: {25, 4}, 12: {25, 5}})
		state, _ = f.svc.WeekState(ctx, 1)
		if state != league.P2Complete {
			t.Fatalf("state = %s, want %s", state, league.P2Complete)
		}
	})

	t.Run("standings", func(t *testing.T) {
		week, err := f.svc.Standings(ctx, 1, 0)
		if err != nil {
			t.Fatal(err)
		}
		// Aces add 25 in each of matches 7 and 11.
		if week[0].Name != "Aces" || week[0].Points != 100 {
			t.Errorf("leader = %+v, want Aces with 100", week[0])
		}
		p1, _ := f.svc.Standings(ctx, 1, 1)
		if p1[0].Name != "Aces" || p1[1].Name != "Diggers" || p1[5].Name != "Eagles" {
			t.Errorf("period 1 order = %v", names(p1))
		}
		if _, err := f.svc.Standings(ctx, 1, 3); err == nil {
			t.Error("expected error for period 3")
		}
	})
}

func TestAutoAdvance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "scoring:\n  auto_advance: true\n")

	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	f.scorePeriodOne(t, 1)

	state, _ := f.svc.WeekState(ctx, 1)
	if state != league.P2Generated {
		t.Fatalf("state = %s, want %s", state, league.P2Generated)
	}
	ms, _ := f.svc.Matches(ctx, 1)
	if len(ms) != 12 {
		t.Errorf("matches = %d, want 12", len(ms))
	}
}

func TestSubmitScoreDebounced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "", WithDebounce(time.Hour))
	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	m := f.byNumber(t, 1)[1]
	f.repo.reset()

	for _, sc := range [][2]int{{3, 1}, {10, 8}, {25, 20}} {
		if err := f.svc.SubmitScore(ctx, m.ID, sc[0], sc[1], "admin"); err != nil {
			t.Fatal(err)
		}
	}

	stored, _ := f.repo.ReadMatch(ctx, m.ID)
	if stored.ScoreA != 0 {
		t.Errorf("score written before the window closed: %d", stored.ScoreA)
	}

	f.svc.Flush()
	if got := f.repo.scoreWrites(); got != 1 {
		t.Errorf("score writes = %d, want 1", got)
	}
	stored, _ = f.repo.ReadMatch(ctx, m.ID)
	if stored.ScoreA != 25 || stored.ScoreB != 20 {
		t.Errorf("stored score = %d-%d, want 25-20", stored.ScoreA, stored.ScoreB)
	}
	aces, _ := f.repo.ReadTeam(ctx, f.ids["Aces"])
	if aces.TotalPoints != 25 {
		t.Errorf("aces total = %d, want 25", aces.TotalPoints)
	}
}

func TestSubmitScoreTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	f.submitAll(t, 1, map[int][2]int{1: {25, 20}})
	f.submitAll(t, 1, map[int][2]int{1: {25, 20}})

	aces, _ := f.repo.ReadTeam(ctx, f.ids["Aces"])
	blockers, _ := f.repo.ReadTeam(ctx, f.ids["Blockers"])
	if aces.TotalPoints != 25 || blockers.TotalPoints != 20 {
		t.Errorf("totals = %d/%d, want 25/20", aces.TotalPoints, blockers.TotalPoints)
	}
	if w := aces.Week(1); w.Wins != 1 {
		t.Errorf("aces wins = %d, want 1", w.Wins)
	}
	if w := blockers.Week(1); w.Losses != 1 {
		t.Errorf("blockers losses = %d, want 1", w.Losses)
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "", WithAuthorizer(league.RefereePolicy{Admins: []string{"boss"}}))
	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	m := f.byNumber(t, 1)[1]

	tests := []struct {
		name    string
		id      string
		a, b    int
		author  string
		wantErr error
	}{
		{"negative score", m.ID, -1, 3, m.Referee, league.ErrInvalidScore},
		{"player cannot score own match", m.ID, 25, 0, m.TeamA, league.ErrForbidden},
		{"anonymous", m.ID, 25, 0, "", league.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.SubmitScore(ctx, tt.id, tt.a, tt.b, tt.author)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SubmitScore = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unknown match", func(t *testing.T) {
		err := f.svc.SubmitScore(ctx, "missing", 1, 1, "boss")
		var nf *league.NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("SubmitScore = %v, want NotFoundError", err)
		}
	})

	t.Run("referee and admin may score", func(t *testing.T) {
		if err := f.svc.SubmitScore(ctx, m.ID, 25, 0, m.Referee); err != nil {
			t.Errorf("referee: %v", err)
		}
		if err := f.svc.SubmitScore(ctx, m.ID, 25, 3, "boss"); err != nil {
			t.Errorf("admin: %v", err)
		}
	})
}

func TestScoreWriteFailureReachesHook(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var hooked []error
	f := newFixture(t, "", WithErrorHook(func(matchID string, err error) {
		mu.Lock()
		hooked = append(hooked, err)
		mu.Unlock()
	}))
	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	m := f.byNumber(t, 1)[1]

	f.repo.failUpdates(errors.New("disk full"))
	if err := f.svc.SubmitScore(ctx, m.ID, 25, 20, "admin"); err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	f.svc.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(hooked) != 1 {
		t.Fatalf("hook calls = %d, want 1", len(hooked))
	}
	var pe *league.PersistenceError
	if !errors.As(hooked[0], &pe) {
		t.Errorf("hook error = %v, want PersistenceError", hooked[0])
	}
}

func TestMarkComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "", WithAuthorizer(league.RefereePolicy{}))
	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	m := f.byNumber(t, 1)[1]

	if _, err := f.svc.MarkComplete(ctx, m.ID, m.TeamA); !errors.Is(err, league.ErrForbidden) {
		t.Errorf("MarkComplete by player = %v, want ErrForbidden", err)
	}

	got, err := f.svc.MarkComplete(ctx, m.ID, m.Referee)
	if err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	if !got.Completed {
		t.Error("returned match not completed")
	}
	stored, _ := f.repo.ReadMatch(ctx, m.ID)
	if !stored.Completed || stored.ScoreA != 0 {
		t.Errorf("stored = %+v, want completed with no score", stored)
	}
	if ev := f.pub.find(EventMatchUpdated); ev == nil || ev.Match.ID != m.ID {
		t.Errorf("match event = %+v", ev)
	}
}

func TestCloseRejectsScores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	m := f.byNumber(t, 1)[1]
	f.svc.Close()
	if err := f.svc.SubmitScore(ctx, m.ID, 1, 1, "admin"); !errors.Is(err, ErrClosed) {
		t.Errorf("SubmitScore after Close = %v, want ErrClosed", err)
	}
}

func TestTeams(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	t.Run("duplicate name", func(t *testing.T) {
		if _, err := f.svc.AddTeam(ctx, "", "aces"); err == nil {
			t.Error("expected error for duplicate name")
		}
	})

	t.Run("rename keeps stats", func(t *testing.T) {
		id := f.ids["Aces"]
		if err := f.repo.UpdateTeamStats(ctx, id, []league.WeeklyStat{{Week: 1, TotalPoints: 9}}, 9); err != nil {
			t.Fatal(err)
		}
		got, err := f.svc.RenameTeam(ctx, id, "Aces High")
		if err != nil {
			t.Fatal(err)
		}
		if got.Name != "Aces High" || got.TotalPoints != 9 {
			t.Errorf("renamed = %+v", got)
		}
	})

	t.Run("import skips known names", func(t *testing.T) {
		added, err := f.svc.ImportTeams(ctx, []config.Team{{Name: "Blockers"}, {ID: "g", Name: "Gophers"}})
		if err != nil {
			t.Fatal(err)
		}
		if len(added) != 1 || added[0].ID != "g" {
			t.Errorf("added = %+v, want only Gophers", added)
		}
		teams, _ := f.svc.Teams(ctx)
		if len(teams) != 7 {
			t.Errorf("teams = %d, want 7", len(teams))
		}
	})
}

func TestReseedUsesMatchRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	if _, err := f.svc.GenerateFirstPeriod(ctx, 1, nil); err != nil {
		t.Fatal(err)
	}
	// Write period-1 results straight to the store, as if every score had
	// landed but none had been folded into team stats yet.
	scores := map[int][2]int{1: {25, 20}, 2: {25, 10}, 3: {22, 24}, 4: {15, 25}, 5: {18, 25}, 6: {20, 25}}
	for n, m := range f.byNumber(t, 1) {
		sc := scores[n]
		if err := f.repo.Repository.UpdateMatch(ctx, m.ID, league.ScorePatch(sc[0], sc[1])); err != nil {
			t.Fatal(err)
		}
		if err := f.repo.Repository.UpdateMatch(ctx, m.ID, league.CompletePatch()); err != nil {
			t.Fatal(err)
		}
	}
	aces, _ := f.repo.ReadTeam(ctx, f.ids["Aces"])
	if aces.TotalPoints != 0 {
		t.Fatalf("aces stored total = %d, want 0 before aggregation", aces.TotalPoints)
	}

	p2, err := f.svc.GenerateSecondPeriod(ctx, 1)
	if err != nil {
		t.Fatalf("GenerateSecondPeriod: %v", err)
	}
	first := p2[0]
	if first.TeamA != f.ids["Aces"] || first.TeamB != f.ids["Falcons"] || first.Referee != f.ids["Diggers"] {
		t.Errorf("match 7 = %s v %s ref %s, want Aces v Falcons ref Diggers", first.TeamA, first.TeamB, first.Referee)
	}
	ev := f.pub.find(EventPeriodGenerated)
	if ev == nil || len(ev.Standings) == 0 {
		t.Fatal("no period 2 standings published")
	}
	if ev.Standings[0].Name != "Aces" || ev.Standings[0].Points != 50 {
		t.Errorf("published leader = %+v, want Aces with 50", ev.Standings[0])
	}
}

func TestPoolLabelFailureKeepsPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	svc := New(poolFailRepo{f.repo}, testConfig(t, ""),
		WithRand(identity{}),
		WithDebounce(0),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(svc.Close)

	matches, err := svc.GenerateFirstPeriod(ctx, 1, nil)
	if err != nil {
		t.Fatalf("GenerateFirstPeriod: %v", err)
	}
	if len(matches) != league.MatchesPerPeriod {
		t.Errorf("matches = %d, want %d", len(matches), league.MatchesPerPeriod)
	}
	state, _ := svc.WeekState(ctx, 1)
	if state != league.P1Open {
		t.Errorf("state = %s, want %s", state, league.P1Open)
	}
}

// poolFailRepo rejects every pool label update.
type poolFailRepo struct {
	league.Repository
}

func (poolFailRepo) UpdateTeamPool(context.Context, string, string) error {
	return errors.New("pool column unavailable")
}

func names(s []league.Standing) []string {
	out := make([]string, len(s))
	for i, row := range s {
		out[i] = row.Name
	}
	return out
}

// countingRepo counts score writes and can be told to fail match updates.
type countingRepo struct {
	league.Repository

	mu      sync.Mutex
	scores  int
	failErr error
}

func (r *countingRepo) UpdateMatch(ctx context.Context, id string, p league.MatchPatch) error {
	r.mu.Lock()
	if r.failErr != nil {
		err := r.failErr
		r.mu.Unlock()
		return err
	}
	if p.ScoreA != nil {
		r.scores++
	}
	r.mu.Unlock()
	return r.Repository.UpdateMatch(ctx, id, p)
}

func (r *countingRepo) reset() {
	r.mu.Lock()
	r.scores = 0
	r.mu.Unlock()
}

func (r *countingRepo) scoreWrites() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores
}

func (r *countingRepo) failUpdates(err error) {
	r.mu.Lock()
	r.failErr = err
	r.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) find(t EventType) *Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			e := r.events[i]
			return &e
		}
	}
	return nil
}
