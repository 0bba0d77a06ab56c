package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/derekprior/leaguenight/internal/config"
	"github.com/derekprior/leaguenight/internal/excel"
	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/season"
	"github.com/derekprior/leaguenight/internal/validator"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leaguenight",
		Short: "Weekly league night scheduler and scorekeeper",
	}

	var configFile string
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: league.yaml in current directory)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter league.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	// withApp opens the league for one command and closes it afterwards,
	// flushing any debounced score.
	withApp := func(fn func(ctx context.Context, a *app, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, configFile, season.WithAuthorizer(league.AllowAll{}))
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))
			return fn(ctx, a, cmd.OutOrStdout())
		}
	}

	teamCmd := &cobra.Command{
		Use:   "team",
		Short: "Manage the team roster",
	}

	var teamID string
	teamAddCmd := &cobra.Command{
		Use:          "add <name>",
		Short:        "Add a team",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app, out io.Writer) error {
				return runTeamAdd(ctx, a, out, teamID, args[0])
			})(cmd, args)
		},
	}
	teamAddCmd.Flags().StringVar(&teamID, "id", "", "Team id (default: generated)")

	teamListCmd := &cobra.Command{
		Use:          "list",
		Short:        "List teams with their season points",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         withApp(runTeamList),
	}

	teamSyncCmd := &cobra.Command{
		Use:          "sync",
		Short:        "Add the teams listed in the config file that are not stored yet",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         withApp(runTeamSync),
	}

	teamRenameCmd := &cobra.Command{
		Use:          "rename <id> <name>",
		Short:        "Rename a team, keeping its statistics",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app, out io.Writer) error {
				t, err := a.svc.RenameTeam(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Renamed %s to %s\n", t.ID, t.Name)
				return nil
			})(cmd, args)
		},
	}
	teamCmd.AddCommand(teamAddCmd, teamListCmd, teamSyncCmd, teamRenameCmd)

	weekCmd := &cobra.Command{
		Use:   "week",
		Short: "Schedule and inspect a week",
	}

	var rosterIDs []string
	generateFirstCmd := &cobra.Command{
		Use:          "generate-first <week>",
		Short:        "Split the roster into two pools and schedule period 1",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := parseWeek(args[0])
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app, out io.Writer) error {
				return runGenerateFirst(ctx, a, out, week, rosterIDs)
			})(cmd, args)
		},
	}
	generateFirstCmd.Flags().StringSliceVar(&rosterIDs, "teams", nil, "Team ids playing this week (default: every team)")

	generateSecondCmd := &cobra.Command{
		Use:          "generate-second <week>",
		Short:        "Reseed by period-1 points and schedule period 2",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := parseWeek(args[0])
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app, out io.Writer) error {
				return runGenerateSecond(ctx, a, out, week)
			})(cmd, args)
		},
	}

	stateCmd := &cobra.Command{
		Use:          "state <week>",
		Short:        "Show where a week stands",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := parseWeek(args[0])
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app, out io.Writer) error {
				state, err := a.svc.WeekState(ctx, week)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Week %d: %s\n", week, state)
				return nil
			})(cmd, args)
		},
	}

	showCmd := &cobra.Command{
		Use:          "show <week>",
		Short:        "List a week's matches",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := parseWeek(args[0])
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app, out io.Writer) error {
				return runWeekShow(ctx, a, out, week)
			})(cmd, args)
		},
	}
	weekCmd.AddCommand(generateFirstCmd, generateSecondCmd, stateCmd, showCmd)

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Record match results",
	}

	var author string
	submitCmd := &cobra.Command{
		Use:          "submit <match-id> <score-a> <score-b>",
		Short:        "Record a match score",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, errA := strconv.Atoi(args[1])
			b, errB := strconv.Atoi(args[2])
			if errA != nil || errB != nil {
				return fmt.Errorf("scores must be whole numbers, got %q and %q", args[1], args[2])
			}
			return withApp(func(ctx context.Context, ap *app, out io.Writer) error {
				return runScoreSubmit(ctx, ap, out, args[0], a, b, author)
			})(cmd, args)
		},
	}
	submitCmd.Flags().StringVar(&author, "as", "operator", "Team or admin id recorded as the author")

	completeCmd := &cobra.Command{
		Use:          "complete <match-id>",
		Short:        "Mark a match completed without changing its score",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app, out io.Writer) error {
				m, err := a.svc.MarkComplete(ctx, args[0], author)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Match #%d (week %d) completed\n", m.Number, m.Week)
				return nil
			})(cmd, args)
		},
	}
	completeCmd.Flags().StringVar(&author, "as", "operator", "Team or admin id recorded as the author")
	scoreCmd.AddCommand(submitCmd, completeCmd)

	var standingsWeek, standingsPeriod int
	standingsCmd := &cobra.Command{
		Use:          "standings",
		Short:        "Rank teams by points",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app, out io.Writer) error {
				return runStandings(ctx, a, out, standingsWeek, standingsPeriod)
			})(cmd, args)
		},
	}
	standingsCmd.Flags().IntVar(&standingsWeek, "week", 0, "Week to rank (default: whole season)")
	standingsCmd.Flags().IntVar(&standingsPeriod, "period", 0, "Period to rank, 1 or 2 (default: both)")

	var exportPath string
	exportCmd := &cobra.Command{
		Use:          "export",
		Short:        "Write every week and the standings to an Excel workbook",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app, out io.Writer) error {
				return runExport(ctx, a, out, exportPath)
			})(cmd, args)
		},
	}
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "league.xlsx", "Output Excel file path")

	validateCmd := &cobra.Command{
		Use:          "validate <league.xlsx>",
		Short:        "Check an exported workbook against the session rules",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(cmd.OutOrStdout(), configPath, args[0])
		},
	}

	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the HTTP API and live scoreboard",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configFile)
		},
	}

	rootCmd.AddCommand(initCmd, teamCmd, weekCmd, scoreCmd, standingsCmd, exportCmd, validateCmd, serveCmd)
	return rootCmd
}

func parseWeek(s string) (int, error) {
	week, err := strconv.Atoi(s)
	if err != nil || week < 1 {
		return 0, fmt.Errorf("week must be a positive number, got %q", s)
	}
	return week, nil
}

func runInit(out io.Writer, outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "✓ Created %s\n", outputPath)
	return nil
}

func runTeamAdd(ctx context.Context, a *app, out io.Writer, id, name string) error {
	t, err := a.svc.AddTeam(ctx, id, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Added %s (%s)\n", t.Name, t.ID)
	return nil
}

func runTeamList(ctx context.Context, a *app, out io.Writer) error {
	teams, err := a.svc.Teams(ctx)
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		fmt.Fprintln(out, "No teams yet. Add some with: leaguenight team add <name>")
		return nil
	}
	fmt.Fprintf(out, "  %-36s %-20s %-10s %6s\n", "ID", "Team", "Pool", "Points")
	for _, t := range teams {
		fmt.Fprintf(out, "  %-36s %-20s %-10s %6d\n", t.ID, t.Name, t.Pool, t.TotalPoints)
	}
	return nil
}

func runTeamSync(ctx context.Context, a *app, out io.Writer) error {
	added, err := a.svc.ImportTeams(ctx, a.cfg.Teams)
	for _, t := range added {
		fmt.Fprintf(out, "✓ Added %s (%s)\n", t.Name, t.ID)
	}
	if err != nil {
		return err
	}
	if len(added) == 0 {
		fmt.Fprintln(out, "✓ Roster already up to date")
	}
	return nil
}

func runGenerateFirst(ctx context.Context, a *app, out io.Writer, week int, ids []string) error {
	var roster league.Roster
	for _, id := range ids {
		id = strings.TrimSpace(id)
		roster = append(roster, league.Team{ID: id, Name: id})
	}
	matches, err := a.svc.GenerateFirstPeriod(ctx, week, roster)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Week %d period 1 scheduled (%d matches)\n\n", week, len(matches))
	return printMatches(ctx, a, out, matches)
}

func runGenerateSecond(ctx context.Context, a *app, out io.Writer, week int) error {
	matches, err := a.svc.GenerateSecondPeriod(ctx, week)
	if err != nil {
		var ipe *league.IncompletePeriodError
		if errors.As(err, &ipe) {
			fmt.Fprintf(out, "⚠ %d period-1 matches still open\n", ipe.Pending)
		}
		return err
	}
	fmt.Fprintf(out, "✓ Week %d period 2 scheduled (%d matches)\n\n", week, len(matches))
	return printMatches(ctx, a, out, matches)
}

func runWeekShow(ctx context.Context, a *app, out io.Writer, week int) error {
	matches, err := a.svc.Matches(ctx, week)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintf(out, "Week %d is not scheduled\n", week)
		return nil
	}
	fmt.Fprintf(out, "Week %d: %s\n\n", week, league.DeriveState(matches))
	return printMatches(ctx, a, out, matches)
}

func printMatches(ctx context.Context, a *app, out io.Writer, matches []league.Match) error {
	names, err := a.names(ctx)
	if err != nil {
		return err
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}
	loc := a.cfg.Location()
	fmt.Fprintf(out, "  %3s %-6s %-10s %-16s %-16s %-16s %7s  %s\n", "#", "Time", "Pool", "Team A", "Team B", "Referee", "Score", "ID")
	for _, m := range matches {
		score := "-"
		if m.ScoreA > 0 || m.ScoreB > 0 || m.Completed {
			score = fmt.Sprintf("%d-%d", m.ScoreA, m.ScoreB)
		}
		if m.Completed {
			score += "✓"
		}
		fmt.Fprintf(out, "  %3d %-6s %-10s %-16s %-16s %-16s %7s  %s\n",
			m.Number, m.Start.In(loc).Format("15:04"), m.Pool, name(m.TeamA), name(m.TeamB), name(m.Referee), score, m.ID)
	}
	return nil
}

func runScoreSubmit(ctx context.Context, a *app, out io.Writer, matchID string, scoreA, scoreB int, author string) error {
	if err := a.svc.SubmitScore(ctx, matchID, scoreA, scoreB, author); err != nil {
		return err
	}
	a.svc.Flush()

	matches, err := a.svc.Matches(ctx, 0)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.ID != matchID {
			continue
		}
		if m.ScoreA != scoreA || m.ScoreB != scoreB {
			return fmt.Errorf("score for match %s was not saved; see the log for details", matchID)
		}
		fmt.Fprintf(out, "✓ Match #%d (week %d): %d-%d\n", m.Number, m.Week, scoreA, scoreB)
		if m.Completed {
			fmt.Fprintf(out, "✓ Week %d period %d complete\n", m.Week, m.Period)
		}
	}
	return nil
}

func runStandings(ctx context.Context, a *app, out io.Writer, week, period int) error {
	rows, err := a.svc.Standings(ctx, week, period)
	if err != nil {
		return err
	}
	title := "Season"
	if week > 0 {
		title = fmt.Sprintf("Week %d", week)
	}
	if period > 0 {
		title += fmt.Sprintf(", period %d", period)
	}
	fmt.Fprintf(out, "%s standings:\n", title)
	fmt.Fprintf(out, "  %4s %-20s %6s %4s %4s\n", "Rank", "Team", "Points", "W", "L")
	for _, r := range rows {
		fmt.Fprintf(out, "  %4d %-20s %6d %4d %4d\n", r.Rank, r.Name, r.Points, r.Wins, r.Losses)
	}
	return nil
}

func runExport(ctx context.Context, a *app, out io.Writer, outputPath string) error {
	teams, err := a.svc.Teams(ctx)
	if err != nil {
		return err
	}
	matches, err := a.svc.Matches(ctx, 0)
	if err != nil {
		return err
	}
	f, err := excel.Generate(a.cfg, teams, matches)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Fprintf(out, "✓ %d matches and %d teams saved to %s\n", len(matches), len(teams), outputPath)
	return nil
}

func runValidate(out io.Writer, configPath, workbookPath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	violations, err := validator.Validate(cfg, workbookPath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errCount := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errCount++
			fmt.Fprintf(out, "✗ %s row %d: %s\n", v.Sheet, v.Row, v.Message)
		case "warning":
			warnings++
			fmt.Fprintf(out, "⚠ %s row %d: %s\n", v.Sheet, v.Row, v.Message)
		}
	}

	fmt.Fprintf(out, "\nValidation complete: %d errors, %d warnings\n", errCount, warnings)
	if errCount > 0 {
		return fmt.Errorf("%d schedule errors found", errCount)
	}
	return nil
}
