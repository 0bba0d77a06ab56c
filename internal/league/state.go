package league

// State is the derived progress of a week. It is never stored.
type State string

const (
	NotScheduled State = "NOT_SCHEDULED"
	P1Open       State = "P1_OPEN"
	P1Complete   State = "P1_COMPLETE"
	P2Generated  State = "P2_GENERATED"
	P2Open       State = "P2_OPEN"
	P2Complete   State = "P2_COMPLETE"
)

// DeriveState computes the state of a week from its matches.
func DeriveState(matches []Match) State {
	p1 := PeriodMatches(matches, 1)
	p2 := PeriodMatches(matches, 2)

	if len(p2) > 0 {
		switch {
		case allCompleted(p2):
			return P2Complete
		case anyScore(p2):
			return P2Open
		default:
			return P2Generated
		}
	}
	if len(p1) == 0 {
		return NotScheduled
	}
	if allCompleted(p1) {
		return P1Complete
	}
	return P1Open
}

// Pending counts the matches that are not completed.
func Pending(matches []Match) int {
	n := 0
	for _, m := range matches {
		if !m.Completed {
			n++
		}
	}
	return n
}

// AllScored reports whether every match has both scores set. An empty list
// is never scored.
func AllScored(matches []Match) bool {
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if !m.Scored() {
			return false
		}
	}
	return true
}

func allCompleted(matches []Match) bool {
	return len(matches) > 0 && Pending(matches) == 0
}

func anyScore(matches []Match) bool {
	for _, m := range matches {
		if m.ScoreA > 0 || m.ScoreB > 0 || m.Completed {
			return true
		}
	}
	return false
}
