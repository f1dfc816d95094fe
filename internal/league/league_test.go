package league

import (
	"errors"
	"testing"
)

func TestRecord(t *testing.T) {
	t.Run("win", func(t *testing.T) {
		var s TeamStanding
		s.Record(2, 1)
		if s.Played != 1 || s.Wins != 1 || s.Draws != 0 || s.Losses != 0 {
			t.Errorf("P/W/D/L = %d/%d/%d/%d, want 1/1/0/0", s.Played, s.Wins, s.Draws, s.Losses)
		}
		if s.Points != 3 {
			t.Errorf("points = %d, want 3", s.Points)
		}
		if s.GoalsFor != 2 || s.GoalsAgainst != 1 || s.GoalDiff != 1 {
			t.Errorf("GF/GA/GD = %d/%d/%d, want 2/1/1", s.GoalsFor, s.GoalsAgainst, s.GoalDiff)
		}
	})

	t.Run("loss", func(t *testing.T) {
		var s TeamStanding
		s.Record(1, 2)
		if s.Losses != 1 || s.Points != 0 || s.GoalDiff != -1 {
			t.Errorf("losses/points/GD = %d/%d/%d, want 1/0/-1", s.Losses, s.Points, s.GoalDiff)
		}
	})

	t.Run("draw then win accumulates", func(t *testing.T) {
		var s TeamStanding
		s.Record(0, 0)
		s.Record(3, 0)
		if s.Played != 2 || s.Draws != 1 || s.Wins != 1 {
			t.Errorf("P/W/D = %d/%d/%d, want 2/1/1", s.Played, s.Wins, s.Draws)
		}
		if s.Points != 4 {
			t.Errorf("points = %d, want 4", s.Points)
		}
		if s.GoalDiff != 3 {
			t.Errorf("GD = %d, want 3", s.GoalDiff)
		}
	})
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		home, away int
		want       Outcome
	}{
		{2, 1, HomeWin},
		{0, 3, AwayWin},
		{1, 1, Draw},
		{0, 0, Draw},
	}
	for _, tt := range tests {
		r := MatchResult{HomeGoals: tt.home, AwayGoals: tt.away, Status: StatusCompleted}
		if got := r.Outcome(); got != tt.want {
			t.Errorf("%d-%d outcome = %v, want %v", tt.home, tt.away, got, tt.want)
		}
	}
}

func TestMatchResultValidate(t *testing.T) {
	if err := (MatchResult{FixtureID: 1, Status: StatusCompleted}).Validate(); err != nil {
		t.Errorf("completed result: unexpected error %v", err)
	}
	if err := (MatchResult{FixtureID: 1, Status: StatusScheduled}).Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("scheduled result: error = %v, want ErrInvalidStatus", err)
	}
	if err := (MatchResult{FixtureID: 1, HomeGoals: -1, Status: StatusCompleted}).Validate(); err == nil {
		t.Error("negative goals: expected error")
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"scheduled", "completed", "postponed"} {
		got, err := ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q", s, got)
		}
	}
	if _, err := ParseStatus("abandoned"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ParseStatus(abandoned) error = %v, want ErrInvalidStatus", err)
	}
}

func TestSortStandings(t *testing.T) {
	rows := []TeamStanding{
		{TeamID: "C", Points: 6, GoalDiff: 2, GoalsFor: 5},
		{TeamID: "A", Points: 6, GoalDiff: 2, GoalsFor: 5},
		{TeamID: "B", Points: 6, GoalDiff: 4, GoalsFor: 4},
		{TeamID: "D", Points: 9, GoalDiff: -1, GoalsFor: 2},
		{TeamID: "E", Points: 6, GoalDiff: 2, GoalsFor: 7},
	}
	SortStandings(rows)

	want := []string{"D", "B", "E", "A", "C"}
	for i, id := range want {
		if rows[i].TeamID != id {
			t.Errorf("position %d = %s, want %s", i+1, rows[i].TeamID, id)
		}
	}
}

func TestValidateRoster(t *testing.T) {
	teams := []Team{
		{ID: "A", Venue: "Ground A"},
		{ID: "B", Venue: "Ground B"},
		{ID: "C", Venue: "Ground C"},
		{ID: "D", Venue: "Ground D"},
	}

	t.Run("valid", func(t *testing.T) {
		if err := ValidateRoster(teams, 4); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := ValidateRoster(teams, 0); err != nil {
			t.Errorf("unexpected error without size: %v", err)
		}
	})

	t.Run("odd size", func(t *testing.T) {
		if err := ValidateRoster(teams[:3], 0); !errors.Is(err, ErrInvalidRosterSize) {
			t.Errorf("error = %v, want ErrInvalidRosterSize", err)
		}
	})

	t.Run("wrong configured size", func(t *testing.T) {
		if err := ValidateRoster(teams, 6); !errors.Is(err, ErrInvalidRosterSize) {
			t.Errorf("error = %v, want ErrInvalidRosterSize", err)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		dup := append([]Team{}, teams...)
		dup[3].ID = "A"
		if err := ValidateRoster(dup, 4); err == nil {
			t.Error("expected error for duplicate id")
		}
	})

	t.Run("missing venue", func(t *testing.T) {
		bad := append([]Team{}, teams...)
		bad[1].Venue = ""
		if err := ValidateRoster(bad, 4); err == nil {
			t.Error("expected error for missing venue")
		}
	})
}
