package excel

import (
	"testing"
	"time"

	"github.com/derekprior/matchday/internal/config"
	"github.com/derekprior/matchday/internal/league"
	"github.com/xuri/excelize/v2"
)

func kickoff(m, d, hour int) time.Time {
	return time.Date(2026, time.Month(m), d, hour, 0, 0, 0, time.UTC)
}

func testData() (*config.Config, []league.Fixture) {
	cfg := &config.Config{
		League: config.League{Name: "Test League"},
		Season: config.Season{StartDate: config.Date{Time: kickoff(8, 1, 0)}},
		Teams: []league.Team{
			{ID: "ars", Name: "Arsenal", Venue: "Emirates"},
			{ID: "che", Name: "Chelsea", Venue: "Stamford Bridge"},
			{ID: "liv", Name: "Liverpool", Venue: "Anfield"},
			{ID: "tot", Name: "Tottenham", Venue: "Tottenham Hotspur Stadium"},
		},
	}

	fixtures := []league.Fixture{
		{ID: 3, Matchday: 2, Pairing: league.Pairing{Home: "che", Away: "liv", Venue: "Stamford Bridge"}, Kickoff: kickoff(8, 14, 19), Status: league.StatusPostponed},
		{ID: 1, Matchday: 1, Pairing: league.Pairing{Home: "ars", Away: "che", Venue: "Emirates"}, Kickoff: kickoff(8, 7, 19), Status: league.StatusCompleted, HomeGoals: 2, AwayGoals: 1},
		{ID: 2, Matchday: 1, Pairing: league.Pairing{Home: "liv", Away: "tot", Venue: "Anfield"}, Kickoff: kickoff(8, 8, 12), Status: league.StatusScheduled},
		{ID: 4, Matchday: 2, Pairing: league.Pairing{Home: "tot", Away: "ars", Venue: "Tottenham Hotspur Stadium"}, Kickoff: kickoff(8, 15, 12), Status: league.StatusScheduled},
	}
	return cfg, fixtures
}

func TestGenerateWorkbook(t *testing.T) {
	cfg, fixtures := testData()

	f, err := Generate(cfg, fixtures)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	t.Run("has Master Schedule sheet", func(t *testing.T) {
		idx, err := f.GetSheetIndex(MasterSheet)
		if err != nil {
			t.Fatalf("GetSheetIndex error: %v", err)
		}
		if idx < 0 {
			t.Error("Master Schedule sheet not found")
		}
	})

	t.Run("master sheet has headers", func(t *testing.T) {
		rows, _ := f.GetRows(MasterSheet)
		if len(rows) == 0 {
			t.Fatal("master sheet is empty")
		}
		for i, want := range MasterHeaders {
			if rows[0][i] != want {
				t.Errorf("header %d = %q, want %q", i+1, rows[0][i], want)
			}
		}
	})

	t.Run("master sheet rows in matchday order", func(t *testing.T) {
		rows, _ := f.GetRows(MasterSheet)
		if len(rows) != 5 {
			t.Fatalf("rows = %d, want 5", len(rows))
		}
		want := [][]string{
			{"1", "2026-08-07", "Fri", "19:00", "Arsenal", "Chelsea", "Emirates", "completed", "2-1"},
			{"1", "2026-08-08", "Sat", "12:00", "Liverpool", "Tottenham", "Anfield", "scheduled"},
			{"2", "2026-08-14", "Fri", "19:00", "Chelsea", "Liverpool", "Stamford Bridge", "postponed"},
		}
		for i, w := range want {
			row := rows[i+1]
			for j := range w {
				if j >= len(row) || row[j] != w[j] {
					t.Errorf("row %d = %v, want %v", i+2, row, w)
					break
				}
			}
		}
	})

	t.Run("has per-team sheets", func(t *testing.T) {
		for _, team := range []string{"Arsenal", "Chelsea", "Liverpool", "Tottenham"} {
			idx, err := f.GetSheetIndex(team)
			if err != nil {
				t.Fatalf("GetSheetIndex error: %v", err)
			}
			if idx < 0 {
				t.Errorf("sheet for %s not found", team)
			}
		}
	})

	t.Run("team sheet has correct games", func(t *testing.T) {
		rows, _ := f.GetRows("Arsenal")
		if len(rows) != 3 {
			t.Fatalf("Arsenal sheet has %d rows, want 3", len(rows))
		}
		if rows[1][4] != "Chelsea" || rows[1][5] != "Home" || rows[1][7] != "W 2-1" {
			t.Errorf("first Arsenal row = %v", rows[1])
		}
		if rows[2][4] != "Tottenham" || rows[2][5] != "Away" {
			t.Errorf("second Arsenal row = %v", rows[2])
		}
	})

	t.Run("postponed result label", func(t *testing.T) {
		rows, _ := f.GetRows("Liverpool")
		found := false
		for _, row := range rows[1:] {
			if len(row) >= 8 && row[7] == "Postponed" {
				found = true
			}
		}
		if !found {
			t.Error("postponed fixture not labelled on Liverpool sheet")
		}
	})

	t.Run("default Sheet1 removed", func(t *testing.T) {
		idx, _ := f.GetSheetIndex("Sheet1")
		if idx >= 0 {
			t.Error("Sheet1 should be removed")
		}
	})
}

func TestGenerateStandings(t *testing.T) {
	cfg, _ := testData()
	table := []league.TeamStanding{
		{TeamID: "che", Played: 1, Losses: 1, GoalsFor: 1, GoalsAgainst: 2, GoalDiff: -1},
		{TeamID: "ars", Played: 1, Wins: 1, GoalsFor: 2, GoalsAgainst: 1, GoalDiff: 1, Points: 3},
	}

	f, err := GenerateStandings(cfg, table)
	if err != nil {
		t.Fatalf("GenerateStandings() error: %v", err)
	}

	rows, _ := f.GetRows(StandingsSheet)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][0] != "1" || rows[1][1] != "Arsenal" || rows[1][9] != "3" {
		t.Errorf("first row = %v, want Arsenal top on 3 points", rows[1])
	}
	if rows[2][1] != "Chelsea" || rows[2][8] != "-1" {
		t.Errorf("second row = %v, want Chelsea on -1", rows[2])
	}
}

func TestSheetName(t *testing.T) {
	used := make(map[string]bool)
	tests := []struct {
		in   string
		want string
	}{
		{"Arsenal", "Arsenal"},
		{"Arsenal", "Arsenal (2)"},
		{"Brighton & Hove Albion / Women's Team", "Brighton & Hove Albion - Women"},
		{"Master Schedule", "Master Schedule (2)"},
	}
	for _, tt := range tests {
		if got := sheetName(tt.in, used); got != tt.want {
			t.Errorf("sheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteAndRead(t *testing.T) {
	cfg, fixtures := testData()

	f, err := Generate(cfg, fixtures)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	path := t.TempDir() + "/test.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	// Verify we can read it back
	f2, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f2.Close()

	val, _ := f2.GetCellValue(MasterSheet, "A1")
	if val != "Matchday" {
		t.Errorf("re-read A1 = %q, want Matchday", val)
	}
}
