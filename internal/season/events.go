package season

import "github.com/derekprior/leaguenight/internal/league"

type EventType string

const (
	EventPeriodGenerated EventType = "period_generated"
	EventMatchUpdated    EventType = "match_updated"
	EventStateChanged    EventType = "state_changed"
	EventSnapshot        EventType = "snapshot"
)

// Event describes a change to a week that live viewers care about.
type Event struct {
	Type      EventType         `json:"type"`
	Week      int               `json:"week"`
	Period    int               `json:"period,omitempty"`
	State     league.State      `json:"state,omitempty"`
	Match     *league.Match     `json:"match,omitempty"`
	Matches   []league.Match    `json:"matches,omitempty"`
	Standings []league.Standing `json:"standings,omitempty"`
}

// Publisher receives events after they are persisted. Publish must not
// block.
type Publisher interface {
	Publish(Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
