package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/derekprior/matchday/internal/config"
	"github.com/derekprior/matchday/internal/league"
	"github.com/xuri/excelize/v2"
)

const (
	MasterSheet    = "Master Schedule"
	StandingsSheet = "Standings"

	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

// MasterHeaders are the Master Schedule columns, in order.
var MasterHeaders = []string{"Matchday", "Date", "Day", "Time", "Home", "Away", "Venue", "Status", "Score"}

// Generate creates an Excel workbook with the master schedule and per-team sheets.
// Kickoffs are written in the location each fixture's time carries.
func Generate(cfg *config.Config, fixtures []league.Fixture) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	sorted := make([]league.Fixture, len(fixtures))
	copy(sorted, fixtures)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Matchday != sorted[j].Matchday {
			return sorted[i].Matchday < sorted[j].Matchday
		}
		return sorted[i].Kickoff.Before(sorted[j].Kickoff)
	})

	if err := writeMasterSheet(f, cfg, sorted); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}

	if err := writeTeamSheets(f, cfg, sorted); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// GenerateStandings creates a workbook with the ranked league table.
func GenerateStandings(cfg *config.Config, table []league.TeamStanding) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")

	rows := make([]league.TeamStanding, len(table))
	copy(rows, table)
	league.SortStandings(rows)

	if _, err := f.NewSheet(StandingsSheet); err != nil {
		return nil, fmt.Errorf("writing standings sheet: %w", err)
	}
	headers := []string{"Pos", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts"}
	writeHeaders(f, StandingsSheet, headers)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	names := teamNames(cfg)
	for i, s := range rows {
		row := i + 2
		values := []any{i + 1, displayName(names, s.TeamID), s.Played, s.Wins, s.Draws, s.Losses,
			s.GoalsFor, s.GoalsAgainst, s.GoalDiff, s.Points}
		for col, v := range values {
			f.SetCellValue(StandingsSheet, cellRef(col+1, row), v)
		}
		if cellStyle != 0 {
			f.SetCellStyle(StandingsSheet, cellRef(1, row), cellRef(len(headers), row), cellStyle)
		}
	}

	f.SetColWidth(StandingsSheet, "A", "A", 8)
	f.SetColWidth(StandingsSheet, "B", "B", 30)
	f.SetColWidth(StandingsSheet, "C", colLetter(len(headers)), 8)

	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeMasterSheet(f *excelize.File, cfg *config.Config, fixtures []league.Fixture) error {
	sheet := MasterSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, MasterHeaders)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})

	teamCellStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	names := teamNames(cfg)
	for i, fx := range fixtures {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), fx.Matchday)
		f.SetCellValue(sheet, cellRef(2, row), fx.Kickoff.Format(DateFormat))
		f.SetCellValue(sheet, cellRef(3, row), fx.Kickoff.Format("Mon"))
		f.SetCellValue(sheet, cellRef(4, row), fx.Kickoff.Format(TimeFormat))
		f.SetCellValue(sheet, cellRef(5, row), displayName(names, fx.Home))
		f.SetCellValue(sheet, cellRef(6, row), displayName(names, fx.Away))
		f.SetCellValue(sheet, cellRef(7, row), fx.Venue)
		f.SetCellValue(sheet, cellRef(8, row), string(fx.Status))
		if fx.Status == league.StatusCompleted {
			f.SetCellValue(sheet, cellRef(9, row), fmt.Sprintf("%d-%d", fx.HomeGoals, fx.AwayGoals))
		}

		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(4, row), cellStyle)
			f.SetCellStyle(sheet, cellRef(5, row), cellRef(len(MasterHeaders), row), teamCellStyle)
		}
	}

	// Set column widths (sized for Arial 16)
	widths := map[string]float64{"A": 12, "B": 16, "C": 8, "D": 10, "E": 30, "F": 30, "G": 34, "H": 14, "I": 10}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	// Conditional formatting: postponed fixtures get light red
	if len(fixtures) == 0 {
		return nil
	}
	lastRow := len(fixtures) + 1
	redFill, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	statusCol := colLetter(8)
	return f.SetConditionalFormat(sheet, fmt.Sprintf("A2:%s%d", colLetter(len(MasterHeaders)), lastRow),
		[]excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: fmt.Sprintf(`$%s2="%s"`, statusCol, league.StatusPostponed),
				Format:   &redFill,
			},
		})
}

func writeTeamSheets(f *excelize.File, cfg *config.Config, fixtures []league.Fixture) error {
	names := teamNames(cfg)
	used := make(map[string]bool)

	for _, team := range cfg.Roster() {
		sheet := sheetName(displayName(names, team.ID), used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("adding sheet for %s: %w", team.ID, err)
		}

		headers := []string{"Matchday", "Date", "Day", "Time", "Opponent", "Home/Away", "Venue", "Result"}
		writeHeaders(f, sheet, headers)

		cellStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Size: 16, Family: "Arial"},
		})

		row := 2
		for _, fx := range fixtures {
			if !fx.Involves(team.ID) {
				continue
			}
			opponent, homeAway := fx.Away, "Home"
			goalsFor, goalsAgainst := fx.HomeGoals, fx.AwayGoals
			if fx.Away == team.ID {
				opponent, homeAway = fx.Home, "Away"
				goalsFor, goalsAgainst = fx.AwayGoals, fx.HomeGoals
			}

			f.SetCellValue(sheet, cellRef(1, row), fx.Matchday)
			f.SetCellValue(sheet, cellRef(2, row), fx.Kickoff.Format(DateFormat))
			f.SetCellValue(sheet, cellRef(3, row), fx.Kickoff.Format("Mon"))
			f.SetCellValue(sheet, cellRef(4, row), fx.Kickoff.Format(TimeFormat))
			f.SetCellValue(sheet, cellRef(5, row), displayName(names, opponent))
			f.SetCellValue(sheet, cellRef(6, row), homeAway)
			f.SetCellValue(sheet, cellRef(7, row), fx.Venue)
			f.SetCellValue(sheet, cellRef(8, row), resultLabel(fx.Status, goalsFor, goalsAgainst))
			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), cellStyle)
			}
			row++
		}

		// Set column widths (sized for Arial 16)
		widths := map[string]float64{"A": 12, "B": 16, "C": 8, "D": 10, "E": 30, "F": 14, "G": 34, "H": 14}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}

	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if headerStyle != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), headerStyle)
	}
}

func resultLabel(status league.Status, goalsFor, goalsAgainst int) string {
	switch status {
	case league.StatusCompleted:
		outcome := "D"
		if goalsFor > goalsAgainst {
			outcome = "W"
		} else if goalsFor < goalsAgainst {
			outcome = "L"
		}
		return outcome + " " + strconv.Itoa(goalsFor) + "-" + strconv.Itoa(goalsAgainst)
	case league.StatusPostponed:
		return "Postponed"
	}
	return ""
}

func teamNames(cfg *config.Config) map[string]string {
	names := make(map[string]string, len(cfg.Teams))
	for _, t := range cfg.Teams {
		names[t.ID] = t.Name
	}
	return names
}

// displayName is the team's configured name, or its id when unnamed.
func displayName(names map[string]string, id string) string {
	if n := names[id]; n != "" {
		return n
	}
	return id
}

// sheetName makes a unique sheet title within Excel's 31-character limit.
func sheetName(name string, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, name)
	base := []rune(name)
	if len(base) > 31 {
		base = base[:31]
	}
	// Excel rejects titles that start or end with an apostrophe
	base = []rune(strings.Trim(string(base), "' "))
	candidate := string(base)
	for n := 2; used[candidate] || candidate == MasterSheet; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		candidate = string(trimmed) + suffix
	}
	used[candidate] = true
	return candidate
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
