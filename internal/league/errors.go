package league

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden    = errors.New("not allowed to edit this match")
	ErrInvalidScore = errors.New("scores must be zero or greater")
	ErrInvalid      = errors.New("invalid argument")
	ErrDuplicate    = errors.New("already exists")
)

// InsufficientTeamsError is returned when fewer valid teams are available
// than a session needs.
type InsufficientTeamsError struct {
	Have int
	Need int
}

func (e *InsufficientTeamsError) Error() string {
	return fmt.Sprintf("need %d valid teams, have %d", e.Need, e.Have)
}

// RosterSizeError is returned when a roster holds more teams than one
// session can seat.
type RosterSizeError struct {
	Have int
	Max  int
}

func (e *RosterSizeError) Error() string {
	return fmt.Sprintf("a session seats %d teams, roster has %d", e.Max, e.Have)
}

// AlreadyGeneratedError is returned when a period already has matches.
type AlreadyGeneratedError struct {
	Week   int
	Period int
}

func (e *AlreadyGeneratedError) Error() string {
	return fmt.Sprintf("week %d period %d is already scheduled", e.Week, e.Period)
}

// IncompletePeriodError is returned when a period still has matches that
// are not completed.
type IncompletePeriodError struct {
	Week    int
	Period  int
	Pending int
}

func (e *IncompletePeriodError) Error() string {
	return fmt.Sprintf("week %d period %d has %d matches not completed", e.Week, e.Period, e.Pending)
}

// NotFoundError is returned by a Repository when a record does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// PersistenceError wraps a failure reported by the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persist wraps a repository error for op. Errors that already carry domain
// meaning (not found, already generated) pass through unchanged.
func Persist(op string, err error) error {
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	var ag *AlreadyGeneratedError
	var pe *PersistenceError
	if errors.As(err, &nf) || errors.As(err, &ag) || errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
