package validator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/derekprior/leaguenight/internal/config"
	"github.com/derekprior/leaguenight/internal/excel"
	"github.com/derekprior/leaguenight/internal/league"
	"github.com/xuri/excelize/v2"
)

// Violation represents a schedule problem found in a workbook.
type Violation struct {
	Sheet   string
	Row     int
	Type    string // "error" or "warning"
	Message string
}

// Validate reads an exported league workbook and checks every week sheet
// against the session rules.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	var violations []Violation
	found := false
	for _, sheet := range f.GetSheetList() {
		week, ok := excel.ParseWeekSheet(sheet)
		if !ok {
			continue
		}
		found = true
		matches, parseViolations, err := readMatches(f, sheet, week)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", sheet, err)
		}
		violations = append(violations, parseViolations...)
		violations = append(violations, checkWeek(cfg, matches)...)
	}
	if !found {
		return nil, fmt.Errorf("no week sheets in %s", path)
	}
	return violations, nil
}

func checkWeek(cfg *config.Config, matches []parsedMatch) []Violation {
	var violations []Violation
	violations = append(violations, checkDistinctTeams(matches)...)
	violations = append(violations, checkScores(matches)...)
	violations = append(violations, checkNumbering(matches)...)
	violations = append(violations, checkSlotClashes(matches)...)
	for _, period := range []int{1, 2} {
		pm := inPeriod(matches, period)
		if len(pm) == 0 {
			continue
		}
		violations = append(violations, checkPeriodShape(cfg, period, pm)...)
		violations = append(violations, checkDuties(period, pm)...)
	}
	violations = append(violations, checkProgress(matches)...)
	return violations
}

type parsedMatch struct {
	Sheet     string
	Row       int
	Week      int
	Number    int
	Period    int
	Pool      string
	Time      string
	TeamA     string
	TeamB     string
	Referee   string
	ScoreA    int
	ScoreB    int
	Completed bool
}

func readMatches(f *excelize.File, sheet string, week int) ([]parsedMatch, []Violation, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet is empty")
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, h := range excel.MatchHeaders {
		if _, ok := col[h]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", h)
		}
	}
	cell := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var matches []parsedMatch
	var violations []Violation
	for i, row := range rows[1:] {
		rowNum := i + 2
		if cell(row, "#") == "" {
			continue
		}
		m := parsedMatch{
			Sheet:     sheet,
			Row:       rowNum,
			Week:      week,
			Pool:      cell(row, "Pool"),
			Time:      cell(row, "Time"),
			TeamA:     cell(row, "Team A"),
			TeamB:     cell(row, "Team B"),
			Referee:   cell(row, "Referee"),
			Completed: strings.EqualFold(cell(row, "Completed"), "yes"),
		}
		var bad []string
		for _, field := range []struct {
			name string
			dst  *int
		}{
			{"#", &m.Number},
			{"Period", &m.Period},
			{"Score A", &m.ScoreA},
			{"Score B", &m.ScoreB},
		} {
			v := cell(row, field.name)
			if v == "" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				bad = append(bad, fmt.Sprintf("%s %q", field.name, v))
				continue
			}
			*field.dst = n
		}
		if len(bad) > 0 {
			violations = append(violations, Violation{
				Sheet:   sheet,
				Row:     rowNum,
				Type:    "error",
				Message: fmt.Sprintf("not a number: %s", strings.Join(bad, ", ")),
			})
			continue
		}
		matches = append(matches, m)
	}
	return matches, violations, nil
}

func inPeriod(matches []parsedMatch, period int) []parsedMatch {
	var out []parsedMatch
	for _, m := range matches {
		if m.Period == period {
			out = append(out, m)
		}
	}
	return out
}

func violation(m parsedMatch, typ, format string, args ...any) Violation {
	return Violation{Sheet: m.Sheet, Row: m.Row, Type: typ, Message: fmt.Sprintf(format, args...)}
}

func checkDistinctTeams(matches []parsedMatch) []Violation {
	var violations []Violation
	for _, m := range matches {
		if m.TeamA == "" || m.TeamB == "" || m.Referee == "" {
			violations = append(violations, violation(m, "error", "match %d is missing a team or referee", m.Number))
			continue
		}
		if m.TeamA == m.TeamB || m.TeamA == m.Referee || m.TeamB == m.Referee {
			violations = append(violations, violation(m, "error",
				"match %d: %s v %s refereed by %s uses a team twice", m.Number, m.TeamA, m.TeamB, m.Referee))
		}
	}
	return violations
}

func checkScores(matches []parsedMatch) []Violation {
	var violations []Violation
	for _, m := range matches {
		if m.ScoreA < 0 || m.ScoreB < 0 {
			violations = append(violations, violation(m, "error", "match %d has a negative score", m.Number))
		}
		if m.Completed && (m.ScoreA <= 0 || m.ScoreB <= 0) {
			violations = append(violations, violation(m, "warning", "match %d is completed without a full score", m.Number))
		}
	}
	return violations
}

// checkNumbering requires period 1 to be numbered 1..n and period 2 to
// continue from n+1.
func checkNumbering(matches []parsedMatch) []Violation {
	var violations []Violation
	next := 1
	for _, period := range []int{1, 2} {
		pm := inPeriod(matches, period)
		sort.SliceStable(pm, func(i, j int) bool { return pm[i].Number < pm[j].Number })
		for _, m := range pm {
			if m.Number != next {
				violations = append(violations, violation(m, "error",
					"period %d match numbered %d, want %d", period, m.Number, next))
			}
			next++
		}
	}
	for _, m := range matches {
		if m.Period != 1 && m.Period != 2 {
			violations = append(violations, violation(m, "error", "match %d has period %d", m.Number, m.Period))
		}
	}
	return violations
}

// checkSlotClashes reports a team booked for two matches in the same slot.
func checkSlotClashes(matches []parsedMatch) []Violation {
	type booking struct {
		period int
		time   string
		team   string
	}
	seen := make(map[booking]int)
	var violations []Violation
	for _, m := range matches {
		for _, team := range []string{m.TeamA, m.TeamB, m.Referee} {
			if team == "" {
				continue
			}
			k := booking{m.Period, m.Time, team}
			if first, ok := seen[k]; ok {
				violations = append(violations, violation(m, "error",
					"%s is in matches %d and %d at %s", team, first, m.Number, m.Time))
				continue
			}
			seen[k] = m.Number
		}
	}
	return violations
}

func checkPeriodShape(cfg *config.Config, period int, matches []parsedMatch) []Violation {
	var violations []Violation
	first := matches[0]
	if len(matches) != league.MatchesPerPeriod {
		violations = append(violations, violation(first, "error",
			"period %d has %d matches, want %d", period, len(matches), league.MatchesPerPeriod))
	}

	labels := cfg.PoolLabels()
	if period == 2 {
		labels = cfg.ReseedLabels()
	}
	pools := make(map[string][]parsedMatch)
	for _, m := range matches {
		if m.Pool != labels[0] && m.Pool != labels[1] {
			violations = append(violations, violation(m, "error",
				"match %d is in pool %q, want %q or %q", m.Number, m.Pool, labels[0], labels[1]))
			continue
		}
		pools[m.Pool] = append(pools[m.Pool], m)
	}

	for _, label := range labels {
		pm := pools[label]
		if len(pm) == 0 {
			continue
		}
		if len(pm) != league.PoolSize {
			violations = append(violations, violation(pm[0], "error",
				"pool %s has %d matches in period %d, want %d", label, len(pm), period, league.PoolSize))
		}
		teams := make(map[string]bool)
		for _, m := range pm {
			teams[m.TeamA] = true
			teams[m.TeamB] = true
			teams[m.Referee] = true
		}
		if len(teams) != league.PoolSize {
			violations = append(violations, violation(pm[0], "error",
				"pool %s uses %d teams in period %d, want %d", label, len(teams), period, league.PoolSize))
		}
	}
	return violations
}

// checkDuties requires each team to play twice and referee once per period.
func checkDuties(period int, matches []parsedMatch) []Violation {
	plays := make(map[string]int)
	refs := make(map[string]int)
	for _, m := range matches {
		plays[m.TeamA]++
		plays[m.TeamB]++
		refs[m.Referee]++
	}

	teams := make(map[string]bool)
	for t := range plays {
		teams[t] = true
	}
	for t := range refs {
		teams[t] = true
	}
	names := make([]string, 0, len(teams))
	for t := range teams {
		names = append(names, t)
	}
	sort.Strings(names)

	var violations []Violation
	first := matches[0]
	for _, t := range names {
		if plays[t] != 2 || refs[t] != 1 {
			violations = append(violations, violation(first, "error",
				"%s plays %d and referees %d in period %d, want 2 and 1", t, plays[t], refs[t], period))
		}
	}
	return violations
}

// checkProgress warns when period 2 exists while period 1 is unfinished.
func checkProgress(matches []parsedMatch) []Violation {
	p2 := inPeriod(matches, 2)
	if len(p2) == 0 {
		return nil
	}
	var violations []Violation
	for _, m := range inPeriod(matches, 1) {
		if !m.Completed {
			violations = append(violations, violation(m, "warning",
				"period 2 is scheduled but match %d is not completed", m.Number))
		}
	}
	return violations
}
