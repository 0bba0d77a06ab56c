// Package sqlite is a league.Repository backed by a SQLite file, using the
// pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/store/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const matchColumns = `id, week, period, number, pool, team_a, team_b, referee,
	score_a, score_b, completed, slot, start_at, end_at`

type Store struct {
	db *sql.DB
}

var _ league.Repository = (*Store)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens (creating if needed) the database at path and applies
// migrations. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	memory := path == ":memory:"
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}
	if err := migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ReadTeams(ctx context.Context) ([]league.Team, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, pool, total_points, weeks FROM teams ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var out []league.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ReadTeam(ctx context.Context, id string) (league.Team, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, pool, total_points, weeks FROM teams WHERE id = ?`, id)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return league.Team{}, &league.NotFoundError{Kind: "team", ID: id}
	}
	return t, err
}

// WriteTeam inserts the team or replaces every column of an existing one.
func (s *Store) WriteTeam(ctx context.Context, t league.Team) error {
	if !t.Valid() {
		return fmt.Errorf("team needs an id and a name")
	}
	weeks, err := encodeWeeks(t.Weeks)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO teams (id, name, pool, total_points, weeks) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    pool = excluded.pool,
    total_points = excluded.total_points,
    weeks = excluded.weeks`,
		t.ID, t.Name, t.Pool, t.TotalPoints, weeks)
	if err != nil {
		return fmt.Errorf("writing team %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) UpdateTeamStats(ctx context.Context, id string, weeks []league.WeeklyStat, total int) error {
	encoded, err := encodeWeeks(weeks)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE teams SET weeks = ?, total_points = ? WHERE id = ?`, encoded, total, id)
	if err != nil {
		return fmt.Errorf("updating team %s stats: %w", id, err)
	}
	return affected(res, "team", id)
}

func (s *Store) UpdateTeamPool(ctx context.Context, id, pool string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE teams SET pool = ? WHERE id = ?`, pool, id)
	if err != nil {
		return fmt.Errorf("updating team %s pool: %w", id, err)
	}
	return affected(res, "team", id)
}

func (s *Store) ReadMatches(ctx context.Context, week int) ([]league.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches`
	var args []any
	if week != 0 {
		query += ` WHERE week = ?`
		args = append(args, week)
	}
	query += ` ORDER BY week, number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var out []league.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ReadMatch(ctx context.Context, id string) (league.Match, error) {
	return readMatch(ctx, s.db, id)
}

func (s *Store) WriteMatch(ctx context.Context, m league.Match) (string, error) {
	if err := s.WriteMatches(ctx, []league.Match{m}); err != nil {
		return "", err
	}
	return m.ID, nil
}

// WriteMatches inserts the batch in one transaction. A taken
// (week, period, number) rolls back the batch with AlreadyGeneratedError.
func (s *Store) WriteMatches(ctx context.Context, ms []league.Match) error {
	for _, m := range ms {
		if err := m.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning match batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO matches (`+matchColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing match insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range ms {
		_, err := stmt.ExecContext(ctx,
			m.ID, m.Week, m.Period, m.Number, m.Pool, m.TeamA, m.TeamB, m.Referee,
			m.ScoreA, m.ScoreB, m.Completed, m.Slot, toMillis(m.Start), toMillis(m.End))
		if err == nil {
			continue
		}
		if isSlotConflict(err) {
			return &league.AlreadyGeneratedError{Week: m.Week, Period: m.Period}
		}
		return fmt.Errorf("inserting match %s: %w", m.ID, err)
	}
	return tx.Commit()
}

// UpdateMatch applies patch inside a transaction so the stored row is
// validated as a whole.
func (s *Store) UpdateMatch(ctx context.Context, id string, patch league.MatchPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning match update: %w", err)
	}
	defer tx.Rollback()

	m, err := readMatch(ctx, tx, id)
	if err != nil {
		return err
	}
	patch.Apply(&m)
	if err := m.Validate(); err != nil {
		return err
	}

	var sets []string
	var args []any
	if patch.ScoreA != nil {
		sets, args = append(sets, "score_a = ?"), append(args, *patch.ScoreA)
	}
	if patch.ScoreB != nil {
		sets, args = append(sets, "score_b = ?"), append(args, *patch.ScoreB)
	}
	if patch.Completed != nil {
		sets, args = append(sets, "completed = ?"), append(args, *patch.Completed)
	}
	if len(sets) == 0 {
		return nil
	}
	query := `UPDATE matches SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, append(args, id)...); err != nil {
		return fmt.Errorf("updating match %s: %w", id, err)
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func readMatch(ctx context.Context, q queryer, id string) (league.Match, error) {
	row := q.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return league.Match{}, &league.NotFoundError{Kind: "match", ID: id}
	}
	return m, err
}

func scanMatch(row scanner) (league.Match, error) {
	var m league.Match
	var start, end int64
	err := row.Scan(&m.ID, &m.Week, &m.Period, &m.Number, &m.Pool, &m.TeamA, &m.TeamB, &m.Referee,
		&m.ScoreA, &m.ScoreB, &m.Completed, &m.Slot, &start, &end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("scanning match: %w", err)
	}
	m.Start = fromMillis(start)
	m.End = fromMillis(end)
	return m, nil
}

func scanTeam(row scanner) (league.Team, error) {
	var t league.Team
	var weeks string
	if err := row.Scan(&t.ID, &t.Name, &t.Pool, &t.TotalPoints, &weeks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scanning team: %w", err)
	}
	if err := json.Unmarshal([]byte(weeks), &t.Weeks); err != nil {
		return t, fmt.Errorf("decoding team %s stats: %w", t.ID, err)
	}
	if len(t.Weeks) == 0 {
		t.Weeks = nil
	}
	return t, nil
}

func encodeWeeks(weeks []league.WeeklyStat) (string, error) {
	if weeks == nil {
		weeks = []league.WeeklyStat{}
	}
	b, err := json.Marshal(weeks)
	if err != nil {
		return "", fmt.Errorf("encoding team stats: %w", err)
	}
	return string(b), nil
}

func affected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &league.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func isSlotConflict(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, "matches.week")
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
