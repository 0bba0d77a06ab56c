package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.Time.Format("2006-01-02"), nil
}

type Season struct {
	Name     string `yaml:"name"`
	Epoch    Date   `yaml:"epoch"`
	Timezone string `yaml:"timezone"`
}

type Team struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name"`
}

// Pools names the two period-1 pools and the period-2 premier and
// secondary pools.
type Pools struct {
	Period1   []string `yaml:"period1"`
	Premier   string   `yaml:"premier"`
	Secondary string   `yaml:"secondary"`
}

type TimeSlots struct {
	Period1 []string `yaml:"period1"`
	Period2 []string `yaml:"period2"`
}

type Scoring struct {
	DebounceMS  *int `yaml:"debounce_ms"`
	AutoAdvance bool `yaml:"auto_advance"`
}

type Config struct {
	Season       Season    `yaml:"season"`
	Teams        []Team    `yaml:"teams"`
	Pools        Pools     `yaml:"pools"`
	TimeSlots    TimeSlots `yaml:"time_slots"`
	MatchMinutes int       `yaml:"match_minutes"`
	Scoring      Scoring   `yaml:"scoring"`
	Admins       []string  `yaml:"admins"`
	Seed         *int64    `yaml:"seed"`

	location *time.Location
}

const (
	DefaultMatchMinutes = 25
	DefaultDebounce     = 3 * time.Second
)

// Default returns the configuration used when a field is left out of the
// season file.
func Default() *Config {
	cfg := &Config{
		Season: Season{Name: "League Night", Timezone: "UTC"},
		Pools: Pools{
			Period1:   []string{"Pool A", "Pool B"},
			Premier:   "Premier",
			Secondary: "Secondary",
		},
		TimeSlots: TimeSlots{
			Period1: []string{"18:00", "18:25", "18:50"},
			Period2: []string{"19:00", "19:25", "19:50"},
		},
		MatchMinutes: DefaultMatchMinutes,
	}
	cfg.location = time.UTC
	return cfg
}

// Location returns the season's time zone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Epoch returns midnight of the season's first session day in the season's
// time zone.
func (c *Config) Epoch() time.Time {
	e := c.Season.Epoch.Time
	return time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, c.Location())
}

// MatchDuration returns how long one match occupies a slot.
func (c *Config) MatchDuration() time.Duration {
	return time.Duration(c.MatchMinutes) * time.Minute
}

// Debounce returns the score write debounce window.
func (c *Config) Debounce() time.Duration {
	if c.Scoring.DebounceMS == nil {
		return DefaultDebounce
	}
	return time.Duration(*c.Scoring.DebounceMS) * time.Millisecond
}

// PoolLabels returns the two period-1 pool labels.
func (c *Config) PoolLabels() [2]string {
	return [2]string{c.Pools.Period1[0], c.Pools.Period1[1]}
}

// ReseedLabels returns the premier and secondary labels used for period 2.
func (c *Config) ReseedLabels() [2]string {
	return [2]string{c.Pools.Premier, c.Pools.Secondary}
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// ParseClock parses an "HH:MM" slot time.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid slot time %q: want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

func (c *Config) validate() error {
	if c.Season.Epoch.Time.IsZero() {
		return fmt.Errorf("season epoch is required")
	}

	loc, err := time.LoadLocation(c.Season.Timezone)
	if err != nil {
		return fmt.Errorf("season timezone %q: %w", c.Season.Timezone, err)
	}
	c.location = loc

	if len(c.Pools.Period1) != 2 {
		return fmt.Errorf("pools.period1 needs 2 labels, got %d", len(c.Pools.Period1))
	}
	for _, l := range []string{c.Pools.Period1[0], c.Pools.Period1[1], c.Pools.Premier, c.Pools.Secondary} {
		if l == "" {
			return fmt.Errorf("pool labels must not be empty")
		}
	}
	if c.Pools.Period1[0] == c.Pools.Period1[1] || c.Pools.Premier == c.Pools.Secondary {
		return fmt.Errorf("pool labels within a period must differ")
	}

	var lastP1 int
	for _, period := range []struct {
		name  string
		slots []string
	}{{"period1", c.TimeSlots.Period1}, {"period2", c.TimeSlots.Period2}} {
		if len(period.slots) != 3 {
			return fmt.Errorf("time_slots.%s needs 3 slots, got %d", period.name, len(period.slots))
		}
		prev := -1
		for _, s := range period.slots {
			h, m, err := ParseClock(s)
			if err != nil {
				return fmt.Errorf("time_slots.%s: %w", period.name, err)
			}
			mins := h*60 + m
			if mins <= prev {
				return fmt.Errorf("time_slots.%s must be in increasing order", period.name)
			}
			prev = mins
		}
		if period.name == "period1" {
			lastP1 = prev
		} else if h, m, _ := ParseClock(period.slots[0]); h*60+m <= lastP1 {
			return fmt.Errorf("period2 slots must start after the last period1 slot")
		}
	}

	if c.MatchMinutes <= 0 {
		return fmt.Errorf("match_minutes must be positive, got %d", c.MatchMinutes)
	}
	if c.Scoring.DebounceMS != nil && *c.Scoring.DebounceMS < 0 {
		return fmt.Errorf("scoring.debounce_ms must not be negative")
	}

	// Check for duplicate team names
	seen := make(map[string]bool)
	for _, t := range c.Teams {
		if t.Name == "" {
			return fmt.Errorf("team with id %q has no name", t.ID)
		}
		if seen[t.Name] {
			return fmt.Errorf("team %q is listed twice", t.Name)
		}
		seen[t.Name] = true
	}

	return nil
}
