package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/derekprior/matchday/internal/league"
	"github.com/derekprior/matchday/internal/schedule"
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

// Clock is a time of day written as "HH:MM".
type Clock struct {
	Hour   int
	Minute int
}

func (c *Clock) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("15:04", value.Value)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", value.Value, err)
	}
	c.Hour, c.Minute = t.Hour(), t.Minute()
	return nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Weekday parses day names like "friday" or "Fri".
type Weekday struct {
	time.Weekday
	Set bool
}

func (w *Weekday) UnmarshalYAML(value *yaml.Node) error {
	name := strings.ToLower(strings.TrimSpace(value.Value))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			w.Weekday, w.Set = d, true
			return nil
		}
	}
	return fmt.Errorf("invalid weekday %q", value.Value)
}

type League struct {
	Name            string `yaml:"name"`
	TeamCount       int    `yaml:"team_count"`
	DoubleRound     bool   `yaml:"double_round"`
	Strategy        string `yaml:"strategy"`
	Matchdays       int    `yaml:"matchdays"`
	Capacity        int    `yaml:"capacity"`
	AvoidVenueClash bool   `yaml:"avoid_venue_clash"`
	Attempts        int    `yaml:"attempts"`
	Seed            int64  `yaml:"seed"`
}

type Season struct {
	StartDate Date   `yaml:"start_date"`
	Timezone  string `yaml:"timezone"`
}

type KickoffDay struct {
	Offset   int   `yaml:"offset"`
	Start    Clock `yaml:"start"`
	Count    int   `yaml:"count"`
	Interval int   `yaml:"interval"` // minutes between kickoffs
}

type Kickoffs struct {
	StartWeekday Weekday      `yaml:"start_weekday"`
	Days         []KickoffDay `yaml:"days"`
}

type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Config struct {
	League   League        `yaml:"league"`
	Season   Season        `yaml:"season"`
	Kickoffs Kickoffs      `yaml:"kickoffs"`
	Teams    []league.Team `yaml:"teams"`
	Database Database      `yaml:"database"`
}

// Roster returns the configured teams in file order.
func (c *Config) Roster() []league.Team {
	teams := make([]league.Team, len(c.Teams))
	copy(teams, c.Teams)
	return teams
}

// MatchdayCount is league.matchdays, or one matchday per round
// (n-1 per half) when unset.
func (c *Config) MatchdayCount() int {
	if c.League.Matchdays > 0 {
		return c.League.Matchdays
	}
	n := len(c.Teams) - 1
	if c.League.DoubleRound {
		n *= 2
	}
	return n
}

// MatchdayCapacity is league.capacity, or half the roster when unset.
func (c *Config) MatchdayCapacity() int {
	if c.League.Capacity > 0 {
		return c.League.Capacity
	}
	return len(c.Teams) / 2
}

// AssignOptions builds the matchday assignor options. A zero seed is
// derived from the season start date so reruns of one config agree.
func (c *Config) AssignOptions() schedule.AssignOptions {
	seed := c.League.Seed
	if seed == 0 {
		seed = c.Season.StartDate.Time.Unix()
	}
	return schedule.AssignOptions{
		Matchdays:       c.MatchdayCount(),
		Capacity:        c.MatchdayCapacity(),
		AvoidVenueClash: c.League.AvoidVenueClash,
		Seed:            seed,
		Attempts:        c.League.Attempts,
	}
}

// Template returns the kickoff layout, falling back to the default
// Friday-to-Sunday template when none is configured.
func (c *Config) Template() schedule.SlotTemplate {
	if len(c.Kickoffs.Days) == 0 {
		tmpl := schedule.DefaultTemplate()
		if c.Kickoffs.StartWeekday.Set {
			tmpl.StartWeekday = c.Kickoffs.StartWeekday.Weekday
		}
		return tmpl
	}

	tmpl := schedule.SlotTemplate{StartWeekday: time.Friday}
	if c.Kickoffs.StartWeekday.Set {
		tmpl.StartWeekday = c.Kickoffs.StartWeekday.Weekday
	}
	for _, d := range c.Kickoffs.Days {
		tmpl.Days = append(tmpl.Days, schedule.DaySlots{
			Offset:   d.Offset,
			Hour:     d.Start.Hour,
			Minute:   d.Start.Minute,
			Count:    d.Count,
			Interval: time.Duration(d.Interval) * time.Minute,
		})
	}
	return tmpl
}

// Location returns the season time zone, UTC when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Season.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Season.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Season.Timezone, err)
	}
	return loc, nil
}

// StartTime is midnight of the season start date in the season time zone.
func (c *Config) StartTime() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	d := c.Season.StartDate.Time
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), nil
}

// ApplyEnv overrides database settings from MATCHDAY_DB_DRIVER and
// MATCHDAY_DB_DSN when they are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("MATCHDAY_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := getenv("MATCHDAY_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) validate() error {
	if c.Season.StartDate.Time.IsZero() {
		return fmt.Errorf("season start_date is required")
	}

	if err := league.ValidateRoster(c.Teams, c.League.TeamCount); err != nil {
		return err
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.League.Attempts < 0 {
		return fmt.Errorf("attempts must not be negative")
	}

	for i, d := range c.Kickoffs.Days {
		if d.Interval < 0 {
			return fmt.Errorf("kickoff day %d: interval must not be negative", i+1)
		}
	}

	tmpl := c.Template()
	if err := tmpl.Validate(); err != nil {
		return err
	}

	capacity := c.MatchdayCapacity()
	if tmpl.Capacity() < capacity {
		return fmt.Errorf("%w: matchdays hold up to %d fixtures but kickoffs only has %d slots",
			league.ErrSlotTemplateMismatch, capacity, tmpl.Capacity())
	}

	n := len(c.Teams)
	games := n * (n - 1) / 2
	if c.League.DoubleRound {
		games *= 2
	}
	if places := c.MatchdayCount() * capacity; places < games {
		return fmt.Errorf("%w: %d matchdays of %d hold %d fixtures, the season needs %d",
			league.ErrInfeasibleSchedule, c.MatchdayCount(), capacity, places, games)
	}

	return nil
}
