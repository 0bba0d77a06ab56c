package schedule

import (
	"fmt"
	"time"

	"github.com/derekprior/leaguenight/internal/config"
)

// Slot is one of the three fixed start times of a period.
type Slot struct {
	Period int
	Index  int
	Label  string // "18:00", "18:25", etc.
	Hour   int
	Minute int
}

// GenerateSlots builds the configured slots for period 1 or 2, in start
// order.
func GenerateSlots(cfg *config.Config, period int) ([]Slot, error) {
	var times []string
	switch period {
	case 1:
		times = cfg.TimeSlots.Period1
	case 2:
		times = cfg.TimeSlots.Period2
	default:
		return nil, fmt.Errorf("period %d must be 1 or 2", period)
	}

	slots := make([]Slot, 0, len(times))
	for i, t := range times {
		h, m, err := config.ParseClock(t)
		if err != nil {
			return nil, err
		}
		slots = append(slots, Slot{Period: period, Index: i, Label: t, Hour: h, Minute: m})
	}
	return slots, nil
}

// Start returns when the slot begins in the given week: the season epoch
// plus (week-1) weeks, at the slot's wall-clock time in the season zone.
func (s Slot) Start(cfg *config.Config, week int) time.Time {
	day := SessionDate(cfg, week)
	return time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, cfg.Location())
}

// End returns when a match started in this slot finishes.
func (s Slot) End(cfg *config.Config, week int) time.Time {
	return s.Start(cfg, week).Add(cfg.MatchDuration())
}

// SessionDate returns the calendar day of a week's session.
func SessionDate(cfg *config.Config, week int) time.Time {
	return cfg.Epoch().AddDate(0, 0, (week-1)*7)
}
