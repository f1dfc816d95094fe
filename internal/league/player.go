package league

import "fmt"

type Position string

const (
	Goalkeeper Position = "GK"
	Defender   Position = "DF"
	Midfielder Position = "MF"
	Forward    Position = "FW"
)

func ParsePosition(s string) (Position, error) {
	switch p := Position(s); p {
	case Goalkeeper, Defender, Midfielder, Forward:
		return p, nil
	}
	return "", fmt.Errorf("%w: position %q (want GK, DF, MF or FW)", ErrInvalidPlayer, s)
}

type Role string

const (
	RolePlayer      Role = "player"
	RoleCaptain     Role = "captain"
	RoleViceCaptain Role = "vice_captain"
)

// Player is a squad member. ID is zero until a sink assigns one.
type Player struct {
	ID       int64    `yaml:"-"`
	TeamID   string   `yaml:"team_id"`
	Name     string   `yaml:"name"`
	Position Position `yaml:"position"`
	Number   int      `yaml:"jersey_number"`
	Role     Role     `yaml:"role"`
}

// Validate checks the required fields and fills in the default role.
func (p *Player) Validate() error {
	if p.TeamID == "" || p.Name == "" {
		return fmt.Errorf("%w: team and name are required", ErrInvalidPlayer)
	}
	if p.Number <= 0 {
		return fmt.Errorf("%w: %s needs a jersey number", ErrInvalidPlayer, p.Name)
	}
	if _, err := ParsePosition(string(p.Position)); err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}
	if p.Role == "" {
		p.Role = RolePlayer
	}
	switch p.Role {
	case RolePlayer, RoleCaptain, RoleViceCaptain:
	default:
		return fmt.Errorf("%w: %s has role %q", ErrInvalidPlayer, p.Name, p.Role)
	}
	return nil
}

type EventType string

const (
	EventGoal         EventType = "goal"
	EventAssist       EventType = "assist"
	EventYellowCard   EventType = "yellow_card"
	EventRedCard      EventType = "red_card"
	EventSubstitution EventType = "substitution"
)

func ParseEventType(s string) (EventType, error) {
	switch e := EventType(s); e {
	case EventGoal, EventAssist, EventYellowCard, EventRedCard, EventSubstitution:
		return e, nil
	}
	return "", fmt.Errorf("%w: event type %q", ErrInvalidEvent, s)
}

// MaxEventMinute allows for stoppage time and extra time.
const MaxEventMinute = 130

// MatchEvent is something a player did in a fixture. TeamID may be left
// empty and taken from the player. AssistedBy applies to goals and
// SubstitutedFor to substitutions; zero means unset.
type MatchEvent struct {
	ID             int64     `yaml:"-"`
	FixtureID      int64     `yaml:"fixture_id"`
	PlayerID       int64     `yaml:"player_id"`
	TeamID         string    `yaml:"team_id"`
	Type           EventType `yaml:"event_type"`
	Minute         int       `yaml:"minute"`
	AssistedBy     int64     `yaml:"assisted_by"`
	SubstitutedFor int64     `yaml:"substituted_for"`
}

func (e MatchEvent) Validate() error {
	if e.FixtureID <= 0 || e.PlayerID <= 0 {
		return fmt.Errorf("%w: fixture and player are required", ErrInvalidEvent)
	}
	if _, err := ParseEventType(string(e.Type)); err != nil {
		return err
	}
	if e.Minute < 0 || e.Minute > MaxEventMinute {
		return fmt.Errorf("%w: minute %d outside 0..%d", ErrInvalidEvent, e.Minute, MaxEventMinute)
	}
	if e.Type == EventSubstitution && e.SubstitutedFor == 0 {
		return fmt.Errorf("%w: substitution needs substituted_for", ErrInvalidEvent)
	}
	if e.AssistedBy != 0 && e.Type != EventGoal {
		return fmt.Errorf("%w: assisted_by only applies to goals", ErrInvalidEvent)
	}
	if e.AssistedBy == e.PlayerID || e.SubstitutedFor == e.PlayerID {
		return fmt.Errorf("%w: player %d cannot assist or replace themselves", ErrInvalidEvent, e.PlayerID)
	}
	return nil
}

// PlayerTally is one leaderboard line.
type PlayerTally struct {
	PlayerID int64
	Name     string
	TeamID   string
	Count    int
}
