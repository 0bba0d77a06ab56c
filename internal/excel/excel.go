package excel

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/derekprior/leaguenight/internal/config"
	"github.com/derekprior/leaguenight/internal/league"
	"github.com/xuri/excelize/v2"
)

// StandingsSheet is the name of the season standings sheet.
const StandingsSheet = "Standings"

// MatchHeaders are the columns of every week sheet, in order.
var MatchHeaders = []string{
	"#", "Date", "Time", "Period", "Pool", "Team A", "Team B", "Referee", "Score A", "Score B", "Completed",
}

// WeekSheet returns the sheet name used for week.
func WeekSheet(week int) string {
	return fmt.Sprintf("Week %d", week)
}

// ParseWeekSheet returns the week a sheet name refers to.
func ParseWeekSheet(name string) (int, bool) {
	var week int
	if _, err := fmt.Sscanf(name, "Week %d", &week); err != nil || week < 1 {
		return 0, false
	}
	return week, WeekSheet(week) == name
}

// Generate creates a workbook with one sheet per week of matches and a
// season standings sheet. Team ids are shown as names.
func Generate(cfg *config.Config, teams []league.Team, matches []league.Match) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")

	names := league.Roster(teams).Names()
	byWeek := make(map[int][]league.Match)
	for _, m := range matches {
		byWeek[m.Week] = append(byWeek[m.Week], m)
	}
	weeks := make([]int, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	st := newStyles(f)
	for _, w := range weeks {
		ms := byWeek[w]
		league.SortMatches(ms)
		if err := writeWeekSheet(f, st, cfg, w, ms, names); err != nil {
			return nil, fmt.Errorf("writing week %d: %w", w, err)
		}
	}
	if err := writeStandingsSheet(f, st, teams, weeks); err != nil {
		return nil, fmt.Errorf("writing standings: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header, cell, centered int
	done                   int
}

func newStyles(f *excelize.File) styles {
	var s styles
	s.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 14, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.cell, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 14, Family: "Arial"},
	})
	s.centered, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 14, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.done, _ = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C6EFCE"}},
		Font: &excelize.Font{Size: 14, Family: "Arial"},
	})
	return s
}

func writeHeader(f *excelize.File, st styles, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if st.header != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), st.header)
	}
}

func writeWeekSheet(f *excelize.File, st styles, cfg *config.Config, week int, matches []league.Match, names map[string]string) error {
	sheet := WeekSheet(week)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeader(f, st, sheet, MatchHeaders)

	loc := cfg.Location()
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	for i, m := range matches {
		row := i + 2
		start := m.Start.In(loc)
		completed := ""
		if m.Completed {
			completed = "Yes"
		}
		values := []any{
			m.Number,
			start.Format("01/02/2006"),
			start.Format("15:04"),
			m.Period,
			m.Pool,
			name(m.TeamA),
			name(m.TeamB),
			name(m.Referee),
			m.ScoreA,
			m.ScoreB,
			completed,
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
		if st.cell != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(values), row), st.cell)
			f.SetCellStyle(sheet, cellRef(9, row), cellRef(11, row), st.centered)
		}
	}

	widths := map[string]float64{"A": 6, "B": 14, "C": 9, "D": 9, "E": 14, "F": 20, "G": 20, "H": 20, "I": 10, "J": 10, "K": 12}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	// Completed matches get a green row.
	if len(matches) > 0 && st.done != 0 {
		lastRow := len(matches) + 1
		f.SetConditionalFormat(sheet, fmt.Sprintf("A2:K%d", lastRow), []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: `$K2="Yes"`,
				Format:   &st.done,
			},
		})
	}
	return nil
}

func writeStandingsSheet(f *excelize.File, st styles, teams []league.Team, weeks []int) error {
	sheet := StandingsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Rank", "Team", "Points", "Wins", "Losses"}
	for _, w := range weeks {
		headers = append(headers, "Wk "+strconv.Itoa(w))
	}
	writeHeader(f, st, sheet, headers)

	byID := league.Roster(teams).ByID()
	for i, s := range league.Rank(teams, 0, 0) {
		row := i + 2
		values := []any{s.Rank, s.Name, s.Points, s.Wins, s.Losses}
		team := byID[s.TeamID]
		for _, w := range weeks {
			points := 0
			if ws := team.Week(w); ws != nil {
				points = ws.TotalPoints
			}
			values = append(values, points)
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
		if st.cell != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(values), row), st.cell)
		}
	}

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	if len(headers) > 2 {
		f.SetColWidth(sheet, "C", colLetter(len(headers)), 10)
	}
	return nil
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
