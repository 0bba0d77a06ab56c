// Package season runs a league night: it generates each week's periods,
// takes score submissions and keeps team statistics current.
package season

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/derekprior/leaguenight/internal/config"
	"github.com/derekprior/leaguenight/internal/debounce"
	"github.com/derekprior/leaguenight/internal/keylock"
	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/schedule"
	"github.com/derekprior/leaguenight/internal/stats"
)

var ErrClosed = errors.New("season service is closed")

type Service struct {
	repo      league.Repository
	cfg       *config.Config
	auth      league.Authorizer
	rng       schedule.Shuffler
	logger    *slog.Logger
	tracer    trace.Tracer
	publisher Publisher
	onError   func(matchID string, err error)
	window    time.Duration

	agg    *stats.Aggregator
	scores *debounce.Debouncer
	weeks  keylock.Mutex
}

type Option func(*Service)

// WithAuthorizer replaces the default referee policy.
func WithAuthorizer(a league.Authorizer) Option {
	return func(s *Service) { s.auth = a }
}

// WithRand sets the random source used for period-1 shuffles.
func WithRand(r schedule.Shuffler) Option {
	return func(s *Service) { s.rng = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithErrorHook is called when a debounced score write fails.
func WithErrorHook(fn func(matchID string, err error)) Option {
	return func(s *Service) { s.onError = fn }
}

// WithDebounce overrides the configured score debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) { s.window = d }
}

func New(repo league.Repository, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		cfg:       cfg,
		auth:      league.RefereePolicy{Admins: cfg.Admins},
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/derekprior/leaguenight/internal/season"),
		publisher: nopPublisher{},
		window:    cfg.Debounce(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = schedule.NewRand(seedFor(cfg))
	}
	s.agg = stats.NewAggregator(repo, s.logger)
	s.scores = debounce.New(s.window)
	return s
}

func seedFor(cfg *config.Config) int64 {
	if cfg.Seed != nil {
		return *cfg.Seed
	}
	seed, err := schedule.NewSeed()
	if err != nil {
		return time.Now().UnixNano()
	}
	return seed
}

// GenerateFirstPeriod partitions the roster into two pools and stores the
// week's six period-1 matches. A nil roster uses every stored team.
func (s *Service) GenerateFirstPeriod(ctx context.Context, week int, roster league.Roster) (_ []league.Match, err error) {
	ctx, span := s.start(ctx, "GenerateFirstPeriod", week)
	defer func() { end(span, err) }()

	if week < 1 {
		return nil, fmt.Errorf("%w: week %d must be at least 1", league.ErrInvalid, week)
	}
	unlock := s.weeks.Lock(weekKey(week))
	defer unlock()

	existing, err := s.repo.ReadMatches(ctx, week)
	if err != nil {
		return nil, league.Persist("reading week matches", err)
	}
	if len(league.PeriodMatches(existing, 1)) > 0 {
		return nil, &league.AlreadyGeneratedError{Week: week, Period: 1}
	}

	roster, err = s.resolveRoster(ctx, roster)
	if err != nil {
		return nil, err
	}
	pools, err := schedule.Partition(roster, s.cfg.PoolLabels(), s.rng)
	if err != nil {
		return nil, err
	}
	matches, err := schedule.FirstPeriod(s.cfg, week, pools, s.rng)
	if err != nil {
		return nil, err
	}

	if err := s.repo.WriteMatches(ctx, matches); err != nil {
		return nil, league.Persist("writing period 1 matches", err)
	}
	if err := s.assignPools(ctx, pools); err != nil {
		s.logger.Warn("pool labels not updated", slog.Int("week", week), slog.Any("error", err))
	}

	s.logger.Info("period generated",
		slog.Int("week", week),
		slog.Int("period", 1),
		slog.Int("matches", len(matches)))
	s.publisher.Publish(Event{Type: EventPeriodGenerated, Week: week, Period: 1, State: league.P1Open, Matches: matches})
	return matches, nil
}

// resolveRoster returns the stored records for the roster's valid teams, or
// every stored team when roster is nil.
func (s *Service) resolveRoster(ctx context.Context, roster league.Roster) (league.Roster, error) {
	if roster == nil {
		teams, err := s.repo.ReadTeams(ctx)
		if err != nil {
			return nil, league.Persist("reading teams", err)
		}
		return teams, nil
	}

	var out league.Roster
	for _, t := range roster.Valid() {
		stored, err := s.repo.ReadTeam(ctx, t.ID)
		if err != nil {
			return nil, league.Persist("reading team", err)
		}
		out = append(out, stored)
	}
	return out, nil
}

// GenerateSecondPeriod reseeds the week's teams by period-1 points and
// stores the period-2 matches. Period 1 must be completed and period 2 must
// not exist yet.
func (s *Service) GenerateSecondPeriod(ctx context.Context, week int) (_ []league.Match, err error) {
	ctx, span := s.start(ctx, "GenerateSecondPeriod", week)
	defer func() { end(span, err) }()

	if week < 1 {
		return nil, fmt.Errorf("%w: week %d must be at least 1", league.ErrInvalid, week)
	}
	unlock := s.weeks.Lock(weekKey(week))
	defer unlock()

	existing, err := s.repo.ReadMatches(ctx, week)
	if err != nil {
		return nil, league.Persist("reading week matches", err)
	}
	if len(league.PeriodMatches(existing, 2)) > 0 {
		return nil, &league.AlreadyGeneratedError{Week: week, Period: 2}
	}
	p1 := league.PeriodMatches(existing, 1)
	if len(p1) == 0 {
		return nil, &league.IncompletePeriodError{Week: week, Period: 1, Pending: league.MatchesPerPeriod}
	}
	if pending := league.Pending(p1); pending > 0 {
		return nil, &league.IncompletePeriodError{Week: week, Period: 1, Pending: pending}
	}

	var teams []league.Team
	for _, id := range participants(p1) {
		t, err := s.repo.ReadTeam(ctx, id)
		if league.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, league.Persist("reading team", err)
		}
		// Rank from the period-1 records; stored stats can trail a score
		// write that is still being folded in.
		t = t.Clone()
		for _, m := range p1 {
			stats.Apply(&t, m)
		}
		teams = append(teams, t)
	}

	pools, standings, err := schedule.Reseed(week, teams, s.cfg.ReseedLabels())
	if err != nil {
		return nil, err
	}
	matches, err := schedule.SecondPeriod(s.cfg, week, pools, league.MaxNumber(p1))
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.ReadMatches(ctx, week)
	if err != nil {
		return nil, league.Persist("re-reading week matches", err)
	}
	if len(league.PeriodMatches(latest, 2)) > 0 {
		return nil, &league.AlreadyGeneratedError{Week: week, Period: 2}
	}
	if err := s.repo.WriteMatches(ctx, matches); err != nil {
		return nil, league.Persist("writing period 2 matches", err)
	}
	if err := s.assignPools(ctx, pools); err != nil {
		s.logger.Warn("pool labels not updated", slog.Int("week", week), slog.Any("error", err))
	}

	s.logger.Info("period generated",
		slog.Int("week", week),
		slog.Int("period", 2),
		slog.Int("matches", len(matches)),
		slog.String("leader", standings[0].Name))
	s.publisher.Publish(Event{
		Type:      EventPeriodGenerated,
		Week:      week,
		Period:    2,
		State:     league.P2Generated,
		Matches:   matches,
		Standings: standings,
	})
	return matches, nil
}

// assignPools records each team's current pool label. The label is for
// display only, so callers log a failure instead of failing the period.
func (s *Service) assignPools(ctx context.Context, pools [2]league.Pool) error {
	for _, p := range pools {
		for _, id := range p.Teams {
			unlock := s.agg.Lock(id)
			err := s.repo.UpdateTeamPool(ctx, id, p.Label)
			unlock()
			if err != nil {
				return league.Persist("assigning pool", err)
			}
		}
	}
	return nil
}

// SubmitScore checks the edit now and schedules the write. Edits to the same
// match within the debounce window replace each other; only the last one is
// written.
func (s *Service) SubmitScore(ctx context.Context, matchID string, scoreA, scoreB int, author string) (err error) {
	ctx, span := s.start(ctx, "SubmitScore", 0)
	span.SetAttributes(attribute.String("match.id", matchID))
	defer func() { end(span, err) }()

	if scoreA < 0 || scoreB < 0 {
		return league.ErrInvalidScore
	}
	m, err := s.repo.ReadMatch(ctx, matchID)
	if err != nil {
		return league.Persist("reading match", err)
	}
	if err := s.auth.CanEditScore(ctx, author, m); err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	ok := s.scores.Schedule(matchID, func() {
		if err := s.commitScore(bg, matchID, scoreA, scoreB); err != nil {
			s.reportError(matchID, err)
		}
	})
	if !ok {
		return ErrClosed
	}
	s.logger.Debug("score queued",
		slog.String("match", matchID),
		slog.Int("score_a", scoreA),
		slog.Int("score_b", scoreB),
		slog.String("author", author))
	return nil
}

// commitScore writes a score, folds it into both teams' stats and runs the
// completion check, in that order.
func (s *Service) commitScore(ctx context.Context, matchID string, scoreA, scoreB int) (err error) {
	ctx, span := s.start(ctx, "CommitScore", 0)
	span.SetAttributes(attribute.String("match.id", matchID))
	defer func() { end(span, err) }()

	if err := s.repo.UpdateMatch(ctx, matchID, league.ScorePatch(scoreA, scoreB)); err != nil {
		return league.Persist("writing score", err)
	}
	m, err := s.repo.ReadMatch(ctx, matchID)
	if err != nil {
		return league.Persist("reading match", err)
	}
	if _, err := s.agg.Record(ctx, m); err != nil {
		return err
	}

	s.logger.Info("score recorded",
		slog.String("match", m.ID),
		slog.Int("week", m.Week),
		slog.Int("number", m.Number),
		slog.Int("score_a", m.ScoreA),
		slog.Int("score_b", m.ScoreB))
	s.publisher.Publish(Event{Type: EventMatchUpdated, Week: m.Week, Period: m.Period, Match: &m})

	return s.advance(ctx, m.Week)
}

// MarkComplete completes a match regardless of its scores.
func (s *Service) MarkComplete(ctx context.Context, matchID, author string) (_ league.Match, err error) {
	ctx, span := s.start(ctx, "MarkComplete", 0)
	span.SetAttributes(attribute.String("match.id", matchID))
	defer func() { end(span, err) }()

	m, err := s.repo.ReadMatch(ctx, matchID)
	if err != nil {
		return league.Match{}, league.Persist("reading match", err)
	}
	if err := s.auth.CanEditScore(ctx, author, m); err != nil {
		return league.Match{}, err
	}
	if !m.Completed {
		if err := s.repo.UpdateMatch(ctx, matchID, league.CompletePatch()); err != nil {
			return league.Match{}, league.Persist("completing match", err)
		}
		m.Completed = true
		s.logger.Info("match completed",
			slog.String("match", m.ID),
			slog.Int("week", m.Week),
			slog.String("author", author))
		s.publisher.Publish(Event{Type: EventMatchUpdated, Week: m.Week, Period: m.Period, Match: &m})
	}
	return m, s.advance(ctx, m.Week)
}

// advance marks every match of a fully scored period completed and, when
// auto-advance is on, generates period 2 once period 1 is complete.
func (s *Service) advance(ctx context.Context, week int) error {
	unlock := s.weeks.Lock(weekKey(week))
	matches, err := s.repo.ReadMatches(ctx, week)
	if err != nil {
		unlock()
		return league.Persist("reading week matches", err)
	}
	before := league.DeriveState(matches)

	for _, period := range []int{1, 2} {
		if !league.AllScored(league.PeriodMatches(matches, period)) {
			continue
		}
		for i := range matches {
			m := &matches[i]
			if m.Period != period || m.Completed {
				continue
			}
			if err := s.repo.UpdateMatch(ctx, m.ID, league.CompletePatch()); err != nil {
				unlock()
				return league.Persist("completing match", err)
			}
			m.Completed = true
		}
	}
	state := league.DeriveState(matches)
	unlock()

	if state != before {
		s.logger.Info("week advanced",
			slog.Int("week", week),
			slog.String("from", string(before)),
			slog.String("to", string(state)))
		s.publisher.Publish(Event{Type: EventStateChanged, Week: week, State: state})
	}

	if state == league.P1Complete && s.cfg.Scoring.AutoAdvance {
		_, err := s.GenerateSecondPeriod(ctx, week)
		var ag *league.AlreadyGeneratedError
		if errors.As(err, &ag) {
			return nil
		}
		return err
	}
	return nil
}

// Standings ranks teams by points. Week 0 ranks the season; period 0 counts
// both periods.
func (s *Service) Standings(ctx context.Context, week, period int) ([]league.Standing, error) {
	if week < 0 {
		return nil, fmt.Errorf("%w: week %d must not be negative", league.ErrInvalid, week)
	}
	if period < 0 || period > 2 {
		return nil, fmt.Errorf("%w: period %d must be 0, 1 or 2", league.ErrInvalid, period)
	}
	teams, err := s.repo.ReadTeams(ctx)
	if err != nil {
		return nil, league.Persist("reading teams", err)
	}
	return league.Rank(teams, week, period), nil
}

// WeekState derives the week's progress from its matches.
func (s *Service) WeekState(ctx context.Context, week int) (league.State, error) {
	matches, err := s.repo.ReadMatches(ctx, week)
	if err != nil {
		return "", league.Persist("reading week matches", err)
	}
	return league.DeriveState(matches), nil
}

// Matches returns a week's matches ordered by number. Week 0 returns every
// week.
func (s *Service) Matches(ctx context.Context, week int) ([]league.Match, error) {
	matches, err := s.repo.ReadMatches(ctx, week)
	if err != nil {
		return nil, league.Persist("reading matches", err)
	}
	return matches, nil
}

func (s *Service) Teams(ctx context.Context) ([]league.Team, error) {
	teams, err := s.repo.ReadTeams(ctx)
	if err != nil {
		return nil, league.Persist("reading teams", err)
	}
	return teams, nil
}

// AddTeam creates a team. An empty id gets a generated UUID.
func (s *Service) AddTeam(ctx context.Context, id, name string) (league.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return league.Team{}, fmt.Errorf("%w: team name is required", league.ErrInvalid)
	}
	teams, err := s.repo.ReadTeams(ctx)
	if err != nil {
		return league.Team{}, league.Persist("reading teams", err)
	}
	for _, t := range teams {
		if strings.EqualFold(t.Name, name) {
			return league.Team{}, fmt.Errorf("team %q: %w", t.Name, league.ErrDuplicate)
		}
		if id != "" && t.ID == id {
			return league.Team{}, fmt.Errorf("team id %q: %w", id, league.ErrDuplicate)
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	t := league.Team{ID: id, Name: name}
	if err := s.repo.WriteTeam(ctx, t); err != nil {
		return league.Team{}, league.Persist("writing team", err)
	}
	s.logger.Info("team added", slog.String("id", t.ID), slog.String("name", t.Name))
	return t, nil
}

// RenameTeam changes a team's display name and keeps its statistics.
func (s *Service) RenameTeam(ctx context.Context, id, name string) (league.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return league.Team{}, fmt.Errorf("%w: team name is required", league.ErrInvalid)
	}
	unlock := s.agg.Lock(id)
	defer unlock()

	t, err := s.repo.ReadTeam(ctx, id)
	if err != nil {
		return league.Team{}, league.Persist("reading team", err)
	}
	t.Name = name
	if err := s.repo.WriteTeam(ctx, t); err != nil {
		return league.Team{}, league.Persist("writing team", err)
	}
	return t, nil
}

// ImportTeams adds the configured teams that are not stored yet, matching
// by name. It returns the teams it added.
func (s *Service) ImportTeams(ctx context.Context, teams []config.Team) ([]league.Team, error) {
	stored, err := s.repo.ReadTeams(ctx)
	if err != nil {
		return nil, league.Persist("reading teams", err)
	}
	have := make(map[string]bool, len(stored))
	for _, t := range stored {
		have[strings.ToLower(t.Name)] = true
	}

	var added []league.Team
	for _, ct := range teams {
		if have[strings.ToLower(strings.TrimSpace(ct.Name))] {
			continue
		}
		t, err := s.AddTeam(ctx, ct.ID, ct.Name)
		if err != nil {
			return added, err
		}
		added = append(added, t)
	}
	return added, nil
}

// Flush writes every pending score now.
func (s *Service) Flush() {
	s.scores.Flush()
}

// Close flushes pending scores and rejects new submissions.
func (s *Service) Close() {
	s.scores.Stop()
}

func (s *Service) reportError(matchID string, err error) {
	s.logger.Error("score write failed", slog.String("match", matchID), slog.Any("error", err))
	if s.onError != nil {
		s.onError(matchID, err)
	}
}

func (s *Service) start(ctx context.Context, op string, week int) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "season."+op)
	if week > 0 {
		span.SetAttributes(attribute.Int("week", week))
	}
	return ctx, span
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func weekKey(week int) string {
	return "week:" + strconv.Itoa(week)
}

// participants returns the distinct team ids of the matches, players and
// referees, in first-seen order.
func participants(matches []league.Match) []string {
	seen := map[string]bool{}
	var ids []string
	for _, m := range matches {
		for _, id := range []string{m.TeamA, m.TeamB, m.Referee} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
