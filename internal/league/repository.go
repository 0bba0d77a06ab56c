package league

import "context"

// Repository is the persistence contract the scheduling core depends on.
// Writes are atomic per record; nothing is transactional across records
// except WriteMatches where the backend supports it.
type Repository interface {
	ReadTeams(ctx context.Context) ([]Team, error)
	ReadTeam(ctx context.Context, id string) (Team, error)
	WriteTeam(ctx context.Context, team Team) error
	UpdateTeamStats(ctx context.Context, id string, weeks []WeeklyStat, total int) error
	UpdateTeamPool(ctx context.Context, id, pool string) error

	// ReadMatches returns the matches of week ordered by number. Week 0
	// returns every week.
	ReadMatches(ctx context.Context, week int) ([]Match, error)
	ReadMatch(ctx context.Context, id string) (Match, error)
	WriteMatch(ctx context.Context, m Match) (string, error)
	WriteMatches(ctx context.Context, ms []Match) error
	UpdateMatch(ctx context.Context, id string, patch MatchPatch) error
}

// Authorizer decides whether a team may change a match's score.
type Authorizer interface {
	CanEditScore(ctx context.Context, authorTeamID string, m Match) error
}

// RefereePolicy lets the match's referee team, or any admin id, edit scores.
type RefereePolicy struct {
	Admins []string
}

func (p RefereePolicy) CanEditScore(_ context.Context, author string, m Match) error {
	if author == "" {
		return ErrForbidden
	}
	if author == m.Referee {
		return nil
	}
	for _, a := range p.Admins {
		if a == author {
			return nil
		}
	}
	return ErrForbidden
}

// AllowAll permits every edit. Used by operator tooling.
type AllowAll struct{}

func (AllowAll) CanEditScore(context.Context, string, Match) error { return nil }
