package validator

import (
	"strings"
	"testing"

	"github.com/derekprior/matchday/internal/config"
	"github.com/derekprior/matchday/internal/excel"
	"github.com/derekprior/matchday/internal/league"
	"github.com/derekprior/matchday/internal/schedule"
	"github.com/derekprior/matchday/internal/strategy"
	"github.com/xuri/excelize/v2"
)

const testYAML = `
league:
  name: Test League
  team_count: 4
  double_round: true
  strategy: circle
season:
  start_date: 2026-08-01
teams:
  - {id: ars, name: Arsenal, venue: Emirates}
  - {id: che, name: Chelsea, venue: Stamford Bridge}
  - {id: liv, name: Liverpool, venue: Anfield}
  - {id: tot, name: Tottenham, venue: Tottenham Hotspur Stadium}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(testYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes() error: %v", err)
	}
	return cfg
}

// writeSchedule builds a perfect schedule from circle rounds, one round
// per matchday, and saves it as a workbook.
func writeSchedule(t *testing.T, cfg *config.Config) string {
	t.Helper()
	strat, err := strategy.Get(cfg.League.Strategy)
	if err != nil {
		t.Fatalf("strategy.Get() error: %v", err)
	}
	pairings, err := strat.GeneratePairings(cfg.Roster(), cfg.League.DoubleRound)
	if err != nil {
		t.Fatalf("GeneratePairings() error: %v", err)
	}

	capacity := cfg.MatchdayCapacity()
	var matchdays []league.Matchday
	for i := 0; i < len(pairings); i += capacity {
		matchdays = append(matchdays, league.Matchday{Number: len(matchdays) + 1, Pairings: pairings[i : i+capacity]})
	}

	start, err := cfg.StartTime()
	if err != nil {
		t.Fatalf("StartTime() error: %v", err)
	}
	fixtures, err := schedule.AssignKickoffs(matchdays, start, cfg.Template())
	if err != nil {
		t.Fatalf("AssignKickoffs() error: %v", err)
	}

	f, err := excel.Generate(cfg, fixtures)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	path := t.TempDir() + "/fixtures.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	return path
}

// edit opens the workbook at path, applies fn to it and saves it back.
func edit(t *testing.T, path string, fn func(f *excelize.File)) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f.Close()
	fn(f)
	if err := f.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
}

func cellValue(t *testing.T, f *excelize.File, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(excel.MasterSheet, ref)
	if err != nil {
		t.Fatalf("GetCellValue(%s) error: %v", ref, err)
	}
	return v
}

func hasViolation(violations []Violation, typ, substr string) bool {
	for _, v := range violations {
		if v.Type == typ && strings.Contains(v.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateGeneratedSchedule(t *testing.T) {
	cfg := testConfig(t)
	path := writeSchedule(t, cfg)

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	for _, v := range violations {
		t.Errorf("unexpected %s at row %d: %s", v.Type, v.Row, v.Message)
	}
}

func TestValidateDetectsProblems(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(t *testing.T, f *excelize.File)
		typ    string
		substr string
	}{
		{
			name: "team twice on a matchday",
			edit: func(t *testing.T, f *excelize.File) {
				f.SetCellValue(excel.MasterSheet, "E3", cellValue(t, f, "E2"))
			},
			typ:    "error",
			substr: "times on matchday 1",
		},
		{
			name: "two fixtures at one kickoff",
			edit: func(t *testing.T, f *excelize.File) {
				f.SetCellValue(excel.MasterSheet, "B3", cellValue(t, f, "B2"))
				f.SetCellValue(excel.MasterSheet, "D3", cellValue(t, f, "D2"))
			},
			typ:    "error",
			substr: "has two fixtures at",
		},
		{
			name: "fixture outside its weekend",
			edit: func(t *testing.T, f *excelize.File) {
				f.SetCellValue(excel.MasterSheet, "B2", "2026-08-12")
			},
			typ:    "error",
			substr: "is outside matchday 1",
		},
		{
			name: "matchday past the season",
			edit: func(t *testing.T, f *excelize.File) {
				f.SetCellValue(excel.MasterSheet, "A2", 9)
			},
			typ:    "error",
			substr: "matchday 9 outside 1..6",
		},
		{
			name: "missing fixture",
			edit: func(t *testing.T, f *excelize.File) {
				if err := f.RemoveRow(excel.MasterSheet, 13); err != nil {
					t.Fatalf("RemoveRow error: %v", err)
				}
			},
			typ:    "error",
			substr: "is missing",
		},
		{
			name: "unknown team",
			edit: func(t *testing.T, f *excelize.File) {
				f.SetCellValue(excel.MasterSheet, "F2", "Fulham")
			},
			typ:    "error",
			substr: "unknown team",
		},
		{
			name: "bad kickoff time",
			edit: func(t *testing.T, f *excelize.File) {
				f.SetCellValue(excel.MasterSheet, "D2", "7pm")
			},
			typ:    "error",
			substr: "invalid kickoff",
		},
		{
			name: "wrong venue",
			edit: func(t *testing.T, f *excelize.File) {
				f.SetCellValue(excel.MasterSheet, "G2", "Wembley")
			},
			typ:    "warning",
			substr: "played at Wembley",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			path := writeSchedule(t, cfg)
			edit(t, path, func(f *excelize.File) { tt.edit(t, f) })

			violations, err := Validate(cfg, path)
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if !hasViolation(violations, tt.typ, tt.substr) {
				t.Errorf("no %s containing %q in %+v", tt.typ, tt.substr, violations)
			}
		})
	}
}

func TestCheckVenueClash(t *testing.T) {
	cfg := testConfig(t)
	cfg.League.AvoidVenueClash = true
	fixtures := []parsedFixture{
		{Row: 2, Matchday: 1, Home: "ars", Away: "che", Venue: "Emirates"},
		{Row: 3, Matchday: 1, Home: "liv", Away: "tot", Venue: "Emirates"},
	}

	violations := checkVenues(cfg, fixtures)
	if !hasViolation(violations, "warning", "hosts more than one fixture on matchday 1") {
		t.Errorf("venue clash not reported: %+v", violations)
	}

	cfg.League.AvoidVenueClash = false
	for _, v := range checkVenues(cfg, fixtures) {
		if strings.Contains(v.Message, "hosts more than one") {
			t.Errorf("clash reported with avoid_venue_clash off: %s", v.Message)
		}
	}
}

func TestCheckHomeAwayBalance(t *testing.T) {
	cfg := testConfig(t)
	fixtures := []parsedFixture{
		{Home: "ars", Away: "che"},
		{Home: "ars", Away: "liv"},
		{Home: "ars", Away: "tot"},
	}

	violations := checkHomeAwayBalance(cfg, fixtures)
	if !hasViolation(violations, "warning", "ars has 3 home and 0 away") {
		t.Errorf("imbalance not reported: %+v", violations)
	}
	if len(violations) != 1 {
		t.Errorf("violations = %d, want 1", len(violations))
	}
}

func TestValidateMissingFile(t *testing.T) {
	cfg := testConfig(t)
	if _, err := Validate(cfg, t.TempDir()+"/missing.xlsx"); err == nil {
		t.Error("expected error for missing file")
	}
}
