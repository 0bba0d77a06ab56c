package validator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/derekprior/leaguenight/internal/config"
	"github.com/derekprior/leaguenight/internal/excel"
	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/schedule"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte("season:\n  epoch: \"2026-09-08\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testTeams() []league.Team {
	var teams []league.Team
	for i, name := range []string{"Aces", "Blockers", "Cobras", "Diggers", "Eagles", "Falcons"} {
		teams = append(teams, league.Team{ID: fmt.Sprintf("t%d", i+1), Name: name})
	}
	return teams
}

// generatedWeek schedules a full week and scores period 1.
func generatedWeek(t *testing.T, cfg *config.Config) []league.Match {
	t.Helper()
	pools, err := schedule.Partition(testTeams(), cfg.PoolLabels(), schedule.NewRand(3))
	if err != nil {
		t.Fatal(err)
	}
	p1, err := schedule.FirstPeriod(cfg, 1, pools, schedule.NewRand(3))
	if err != nil {
		t.Fatal(err)
	}
	for i := range p1 {
		p1[i].ScoreA, p1[i].ScoreB, p1[i].Completed = 25, 20+i%3, true
	}
	labels := cfg.ReseedLabels()
	pools[0].Label, pools[1].Label = labels[0], labels[1]
	p2, err := schedule.SecondPeriod(cfg, 1, pools, league.MaxNumber(p1))
	if err != nil {
		t.Fatal(err)
	}
	return append(p1, p2...)
}

func writeWorkbook(t *testing.T, cfg *config.Config, matches []league.Match) string {
	t.Helper()
	f, err := excel.Generate(cfg, testTeams(), matches)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	path := t.TempDir() + "/league.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	return path
}

func TestValidateGeneratedSchedule(t *testing.T) {
	cfg := testConfig(t)
	path := writeWorkbook(t, cfg, generatedWeek(t, cfg))

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	for _, v := range violations {
		t.Errorf("%s: %s row %d: %s", v.Type, v.Sheet, v.Row, v.Message)
	}
}

func TestValidateTamperedWorkbook(t *testing.T) {
	cfg := testConfig(t)
	matches := generatedWeek(t, cfg)
	matches[0].Referee = matches[0].TeamA
	matches[1].Completed = false
	path := writeWorkbook(t, cfg, matches)

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	t.Run("reports the duplicated team", func(t *testing.T) {
		if !hasViolation(violations, "error", "uses a team twice") {
			t.Errorf("violations = %v", violations)
		}
	})
	t.Run("warns about unfinished period 1", func(t *testing.T) {
		if !hasViolation(violations, "warning", "period 2 is scheduled") {
			t.Errorf("violations = %v", violations)
		}
	})
}

func TestValidateNoWeekSheets(t *testing.T) {
	cfg := testConfig(t)
	path := writeWorkbook(t, cfg, nil)
	if _, err := Validate(cfg, path); err == nil {
		t.Error("expected error for a workbook without week sheets")
	}
}

func hasViolation(vs []Violation, typ, text string) bool {
	for _, v := range vs {
		if v.Type == typ && strings.Contains(v.Message, text) {
			return true
		}
	}
	return false
}

func pm(number, period int, pool, time, a, b, ref string) parsedMatch {
	return parsedMatch{Sheet: "Week 1", Row: number + 1, Week: 1, Number: number, Period: period, Pool: pool, Time: time, TeamA: a, TeamB: b, Referee: ref}
}

func TestCheckNumbering(t *testing.T) {
	t.Run("period 2 continues period 1", func(t *testing.T) {
		ms := []parsedMatch{
			pm(1, 1, "Pool A", "18:00", "A", "B", "C"),
			pm(2, 1, "Pool B", "18:00", "D", "E", "F"),
			pm(3, 2, "Premier", "19:00", "A", "C", "B"),
		}
		if v := checkNumbering(ms); len(v) != 0 {
			t.Errorf("expected 0 violations, got %v", v)
		}
	})

	t.Run("gap in numbering", func(t *testing.T) {
		ms := []parsedMatch{
			pm(1, 1, "Pool A", "18:00", "A", "B", "C"),
			pm(3, 1, "Pool B", "18:00", "D", "E", "F"),
		}
		v := checkNumbering(ms)
		if len(v) != 1 || v[0].Type != "error" {
			t.Errorf("violations = %v, want one error", v)
		}
	})

	t.Run("period 2 restarts at 1", func(t *testing.T) {
		ms := []parsedMatch{
			pm(1, 1, "Pool A", "18:00", "A", "B", "C"),
			pm(1, 2, "Premier", "19:00", "A", "C", "B"),
		}
		if v := checkNumbering(ms); len(v) != 1 {
			t.Errorf("violations = %v, want one", v)
		}
	})
}

func TestCheckSlotClashes(t *testing.T) {
	ms := []parsedMatch{
		pm(1, 1, "Pool A", "18:00", "A", "B", "C"),
		pm(2, 1, "Pool B", "18:00", "A", "E", "F"),
		pm(3, 1, "Pool A", "18:25", "A", "C", "B"),
	}
	v := checkSlotClashes(ms)
	if len(v) != 1 || !strings.Contains(v[0].Message, "A is in matches 1 and 2") {
		t.Errorf("violations = %v", v)
	}
}

func TestCheckDuties(t *testing.T) {
	t.Run("rotation is balanced", func(t *testing.T) {
		ms := []parsedMatch{
			pm(1, 1, "Pool A", "18:00", "A", "B", "C"),
			pm(2, 1, "Pool A", "18:25", "B", "C", "A"),
			pm(3, 1, "Pool A", "18:50", "C", "A", "B"),
		}
		if v := checkDuties(1, ms); len(v) != 0 {
			t.Errorf("expected 0 violations, got %v", v)
		}
	})

	t.Run("team referees twice", func(t *testing.T) {
		ms := []parsedMatch{
			pm(1, 1, "Pool A", "18:00", "A", "B", "C"),
			pm(2, 1, "Pool A", "18:25", "B", "A", "C"),
			pm(3, 1, "Pool A", "18:50", "C", "A", "B"),
		}
		if v := checkDuties(1, ms); len(v) == 0 {
			t.Error("expected violations for an unbalanced pool")
		}
	})
}

func TestCheckPeriodShape(t *testing.T) {
	cfg := testConfig(t)
	ms := []parsedMatch{
		pm(1, 1, "Pool A", "18:00", "A", "B", "C"),
		pm(2, 1, "Premier", "18:00", "D", "E", "F"),
	}
	v := checkPeriodShape(cfg, 1, ms)
	if !hasViolation(v, "error", "has 2 matches") {
		t.Errorf("missing count violation: %v", v)
	}
	if !hasViolation(v, "error", `pool "Premier"`) {
		t.Errorf("missing pool label violation: %v", v)
	}
}

func TestCheckScores(t *testing.T) {
	done := pm(1, 1, "Pool A", "18:00", "A", "B", "C")
	done.Completed = true
	done.ScoreA = 25
	negative := pm(2, 1, "Pool A", "18:25", "B", "C", "A")
	negative.ScoreA = -1

	v := checkScores([]parsedMatch{done, negative})
	if len(v) != 2 {
		t.Fatalf("violations = %v, want 2", v)
	}
	if v[0].Type != "warning" || v[1].Type != "error" {
		t.Errorf("types = %s, %s; want warning, error", v[0].Type, v[1].Type)
	}
}
