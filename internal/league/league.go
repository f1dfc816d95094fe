package league

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrInvalidRosterSize    = errors.New("invalid roster size")
	ErrInfeasibleSchedule   = errors.New("infeasible schedule")
	ErrSlotTemplateMismatch = errors.New("slot template mismatch")
	ErrUnknownFixture       = errors.New("unknown fixture")
	ErrDuplicateResult      = errors.New("result already recorded for fixture")
	ErrInvalidStatus        = errors.New("invalid fixture status")
	ErrUnknownPlayer        = errors.New("unknown player")
	ErrDuplicatePlayer      = errors.New("player already on team")
	ErrInvalidPlayer        = errors.New("invalid player")
	ErrInvalidEvent         = errors.New("invalid match event")
)

// Team is a league member. The roster is fixed for a scheduling run.
type Team struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Venue string `yaml:"venue"`
}

// Pairing is an unscheduled home/away assignment played at Venue.
type Pairing struct {
	Home  string
	Away  string
	Venue string
}

func (p Pairing) String() string {
	return fmt.Sprintf("%s vs %s", p.Home, p.Away)
}

// Involves reports whether team plays in the pairing.
func (p Pairing) Involves(team string) bool {
	return p.Home == team || p.Away == team
}

// Matchday holds the pairings played in one calendar window.
// Number is 1-based.
type Matchday struct {
	Number   int
	Pairings []Pairing
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusPostponed Status = "postponed"
)

// ParseStatus accepts the lifecycle names used in results files and storage.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusPostponed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Fixture is a pairing with a kickoff. ID is zero until a sink assigns one.
type Fixture struct {
	ID       int64
	Matchday int
	Pairing
	Kickoff   time.Time
	Status    Status
	HomeGoals int
	AwayGoals int
}

type Outcome int

const (
	Draw Outcome = iota
	HomeWin
	AwayWin
)

// MatchResult is a finalized (or postponed) score for one fixture.
type MatchResult struct {
	FixtureID int64  `yaml:"fixture_id"`
	HomeGoals int    `yaml:"home_goals"`
	AwayGoals int    `yaml:"away_goals"`
	Status    Status `yaml:"status"`
}

func (r MatchResult) Outcome() Outcome {
	switch {
	case r.HomeGoals > r.AwayGoals:
		return HomeWin
	case r.AwayGoals > r.HomeGoals:
		return AwayWin
	default:
		return Draw
	}
}

// Validate checks the fields a result source is responsible for.
func (r MatchResult) Validate() error {
	if r.Status != StatusCompleted && r.Status != StatusPostponed {
		return fmt.Errorf("%w: %q (want completed or postponed)", ErrInvalidStatus, r.Status)
	}
	if r.HomeGoals < 0 || r.AwayGoals < 0 {
		return fmt.Errorf("fixture %d: goals cannot be negative", r.FixtureID)
	}
	return nil
}

const (
	PointsWin  = 3
	PointsDraw = 1
)

// TeamStanding is a team's cumulative season record.
type TeamStanding struct {
	TeamID       string
	Played       int
	Wins         int
	Draws        int
	Losses       int
	GoalsFor     int
	GoalsAgainst int
	GoalDiff     int
	Points       int
	UpdatedAt    time.Time
}

// Record adds one match to the standing and recomputes the derived columns.
func (s *TeamStanding) Record(goalsFor, goalsAgainst int) {
	s.Played++
	s.GoalsFor += goalsFor
	s.GoalsAgainst += goalsAgainst
	switch {
	case goalsFor > goalsAgainst:
		s.Wins++
	case goalsFor < goalsAgainst:
		s.Losses++
	default:
		s.Draws++
	}
	s.GoalDiff = s.GoalsFor - s.GoalsAgainst
	s.Points = PointsWin*s.Wins + PointsDraw*s.Draws
}

// SortStandings ranks by points, goal difference, goals scored, then team id.
func SortStandings(rows []TeamStanding) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDiff != b.GoalDiff {
			return a.GoalDiff > b.GoalDiff
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.TeamID < b.TeamID
	})
}

// ValidateRoster checks team ids and venues, and that the roster has an even
// size of at least two. If want is positive the size must match it exactly.
func ValidateRoster(teams []Team, want int) error {
	n := len(teams)
	if want > 0 && n != want {
		return fmt.Errorf("%w: got %d teams, league requires exactly %d", ErrInvalidRosterSize, n, want)
	}
	if n < 2 || n%2 != 0 {
		return fmt.Errorf("%w: got %d teams, need an even number of at least 2", ErrInvalidRosterSize, n)
	}
	seen := make(map[string]bool, n)
	for _, t := range teams {
		if t.ID == "" {
			return fmt.Errorf("team %q has no id", t.Name)
		}
		if seen[t.ID] {
			return fmt.Errorf("team id %q appears more than once", t.ID)
		}
		seen[t.ID] = true
		if t.Venue == "" {
			return fmt.Errorf("team %q has no venue", t.ID)
		}
	}
	return nil
}
