// Package memory is an in-process league.Repository used by tests and the
// "memory" store setting.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/derekprior/leaguenight/internal/league"
)

type Store struct {
	mu      sync.RWMutex
	teams   map[string]league.Team
	matches map[string]league.Match
}

var _ league.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		teams:   make(map[string]league.Team),
		matches: make(map[string]league.Match),
	}
}

func (s *Store) ReadTeams(_ context.Context) ([]league.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(league.Roster, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t.Clone())
	}
	out.SortByName()
	return out, nil
}

func (s *Store) ReadTeam(_ context.Context, id string) (league.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return league.Team{}, &league.NotFoundError{Kind: "team", ID: id}
	}
	return t.Clone(), nil
}

func (s *Store) WriteTeam(_ context.Context, t league.Team) error {
	if !t.Valid() {
		return fmt.Errorf("team needs an id and a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t.Clone()
	return nil
}

func (s *Store) UpdateTeamStats(_ context.Context, id string, weeks []league.WeeklyStat, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return &league.NotFoundError{Kind: "team", ID: id}
	}
	t.Weeks = weeks
	t.TotalPoints = total
	s.teams[id] = t.Clone()
	return nil
}

func (s *Store) UpdateTeamPool(_ context.Context, id, pool string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return &league.NotFoundError{Kind: "team", ID: id}
	}
	t.Pool = pool
	s.teams[id] = t
	return nil
}

func (s *Store) ReadMatches(_ context.Context, week int) ([]league.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []league.Match
	for _, m := range s.matches {
		if week == 0 || m.Week == week {
			out = append(out, m)
		}
	}
	league.SortMatches(out)
	return out, nil
}

func (s *Store) ReadMatch(_ context.Context, id string) (league.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return league.Match{}, &league.NotFoundError{Kind: "match", ID: id}
	}
	return m, nil
}

func (s *Store) WriteMatch(ctx context.Context, m league.Match) (string, error) {
	if err := s.WriteMatches(ctx, []league.Match{m}); err != nil {
		return "", err
	}
	return m.ID, nil
}

// WriteMatches inserts all matches or none. A (week, period, number) that is
// already taken fails the whole batch with AlreadyGeneratedError.
func (s *Store) WriteMatches(_ context.Context, ms []league.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type slotKey struct{ week, period, number int }
	taken := make(map[slotKey]bool, len(s.matches))
	for _, m := range s.matches {
		taken[slotKey{m.Week, m.Period, m.Number}] = true
	}

	batch := make(map[string]bool, len(ms))
	for _, m := range ms {
		if err := m.Validate(); err != nil {
			return err
		}
		if _, ok := s.matches[m.ID]; ok || batch[m.ID] {
			return fmt.Errorf("match %s already exists", m.ID)
		}
		k := slotKey{m.Week, m.Period, m.Number}
		if taken[k] {
			return &league.AlreadyGeneratedError{Week: m.Week, Period: m.Period}
		}
		taken[k] = true
		batch[m.ID] = true
	}

	for _, m := range ms {
		s.matches[m.ID] = m
	}
	return nil
}

func (s *Store) UpdateMatch(_ context.Context, id string, patch league.MatchPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return &league.NotFoundError{Kind: "match", ID: id}
	}
	patch.Apply(&m)
	if err := m.Validate(); err != nil {
		return err
	}
	s.matches[id] = m
	return nil
}
