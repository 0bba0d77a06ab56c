package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/derekprior/leaguenight/internal/league"
	"github.com/derekprior/leaguenight/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) league.Repository {
		s, err := Open(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestStoreOnFile(t *testing.T) {
	storetest.Run(t, func(t *testing.T) league.Repository {
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "league.db"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "league.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.WriteTeam(ctx, league.Team{ID: "t1", Name: "Aces"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteMatch(ctx, storetest.Match("m1", 1, 1, 1)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	team, err := s.ReadTeam(ctx, "t1")
	if err != nil || team.Name != "Aces" {
		t.Errorf("ReadTeam = %+v, %v", team, err)
	}
	ms, err := s.ReadMatches(ctx, 1)
	if err != nil || len(ms) != 1 {
		t.Errorf("ReadMatches = %d, %v; want 1", len(ms), err)
	}
}

func TestMigrateSkipsApplied(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	fsys := fstest.MapFS{
		"0002_note.sql": {Data: []byte("-- +goose Up\nCREATE TABLE notes (id TEXT);\n\n-- +goose Down\nDROP TABLE notes;\n")},
	}
	for i := 0; i < 2; i++ {
		if err := migrate(ctx, s.db, fsys); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}

	var n, latest int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(version_id) FROM goose_db_version WHERE version_id > 0 AND is_applied`,
	).Scan(&n, &latest); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("applied migrations = %d, want 2", n)
	}
	if latest != 2 {
		t.Errorf("latest version = %d, want 2", latest)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO notes (id) VALUES ('x')`); err != nil {
		t.Errorf("notes table missing: %v", err)
	}
}
