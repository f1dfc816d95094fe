package validator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/derekprior/matchday/internal/config"
	"github.com/derekprior/matchday/internal/excel"
	"github.com/derekprior/matchday/internal/schedule"
	"github.com/xuri/excelize/v2"
)

// minRematchDays is how close two meetings of the same teams can be
// before a warning is raised.
const minRematchDays = 14

// Violation represents a constraint violation found during validation.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
	Days    int // for rematch violations: days between games (0 = not applicable)
}

// Validate reads a fixtures workbook and checks it against the config.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	fixtures, violations, err := readFixtures(cfg, f)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}

	// Check hard constraints
	violations = append(violations, checkTeamOncePerMatchday(fixtures)...)
	violations = append(violations, checkDistinctKickoffs(fixtures)...)
	violations = append(violations, checkMatchdayCapacity(cfg, fixtures)...)
	violations = append(violations, checkMatchdayWindows(cfg, fixtures)...)

	// Check soft constraints
	violations = append(violations, checkVenues(cfg, fixtures)...)
	violations = append(violations, checkHomeAwayBalance(cfg, fixtures)...)
	violations = append(violations, checkRematchProximity(fixtures)...)

	// Check game completeness
	violations = append(violations, checkGameCompleteness(cfg, fixtures)...)

	return violations, nil
}

type parsedFixture struct {
	Row      int
	Matchday int
	Kickoff  time.Time
	Home     string
	Away     string
	Venue    string
}

func readFixtures(cfg *config.Config, f *excelize.File) ([]parsedFixture, []Violation, error) {
	rows, err := f.GetRows(excel.MasterSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", excel.MasterSheet, err)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", excel.MasterSheet)
	}

	// Header row determines column positions
	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[h] = i
	}
	for _, h := range []string{"Matchday", "Date", "Time", "Home", "Away", "Venue"} {
		if _, ok := cols[h]; !ok {
			return nil, nil, fmt.Errorf("%s has no %s column", excel.MasterSheet, h)
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	ids := make(map[string]string)
	for _, t := range cfg.Teams {
		ids[t.ID] = t.ID
		if t.Name != "" {
			ids[t.Name] = t.ID
		}
	}

	cell := func(row []string, name string) string {
		if i := cols[name]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var (
		fixtures   []parsedFixture
		violations []Violation
	)
	for i, row := range rows {
		if i == 0 || cell(row, "Matchday") == "" {
			continue
		}
		rowNum := i + 1

		matchday, err := strconv.Atoi(cell(row, "Matchday"))
		if err != nil {
			violations = append(violations, Violation{Row: rowNum, Type: "error",
				Message: fmt.Sprintf("invalid matchday %q", cell(row, "Matchday"))})
			continue
		}
		kickoff, err := time.ParseInLocation(excel.DateFormat+" "+excel.TimeFormat,
			cell(row, "Date")+" "+cell(row, "Time"), loc)
		if err != nil {
			violations = append(violations, Violation{Row: rowNum, Type: "error",
				Message: fmt.Sprintf("invalid kickoff %q %q", cell(row, "Date"), cell(row, "Time"))})
			continue
		}

		home, okHome := ids[cell(row, "Home")]
		away, okAway := ids[cell(row, "Away")]
		if !okHome || !okAway {
			violations = append(violations, Violation{Row: rowNum, Type: "error",
				Message: fmt.Sprintf("unknown team in %s vs %s", cell(row, "Home"), cell(row, "Away"))})
			continue
		}

		fixtures = append(fixtures, parsedFixture{
			Row:      rowNum,
			Matchday: matchday,
			Kickoff:  kickoff,
			Home:     home,
			Away:     away,
			Venue:    cell(row, "Venue"),
		})
	}

	return fixtures, violations, nil
}

func checkTeamOncePerMatchday(fixtures []parsedFixture) []Violation {
	type teamMatchday struct {
		team     string
		matchday int
	}
	rows := make(map[teamMatchday][]int)
	for _, fx := range fixtures {
		rows[teamMatchday{fx.Home, fx.Matchday}] = append(rows[teamMatchday{fx.Home, fx.Matchday}], fx.Row)
		rows[teamMatchday{fx.Away, fx.Matchday}] = append(rows[teamMatchday{fx.Away, fx.Matchday}], fx.Row)
	}

	var violations []Violation
	for tm, r := range rows {
		if len(r) > 1 {
			violations = append(violations, Violation{
				Row:     r[1],
				Type:    "error",
				Message: fmt.Sprintf("%s plays %d times on matchday %d", tm.team, len(r), tm.matchday),
			})
		}
	}
	sortByRow(violations)
	return violations
}

func checkDistinctKickoffs(fixtures []parsedFixture) []Violation {
	type slotKey struct {
		matchday int
		kickoff  int64
	}
	seen := make(map[slotKey]int)

	var violations []Violation
	for _, fx := range fixtures {
		key := slotKey{fx.Matchday, fx.Kickoff.Unix()}
		if first, ok := seen[key]; ok {
			violations = append(violations, Violation{
				Row:  fx.Row,
				Type: "error",
				Message: fmt.Sprintf("matchday %d has two fixtures at %s (rows %d and %d)",
					fx.Matchday, fx.Kickoff.Format("Mon 01/02 15:04"), first, fx.Row),
			})
			continue
		}
		seen[key] = fx.Row
	}
	return violations
}

func checkMatchdayCapacity(cfg *config.Config, fixtures []parsedFixture) []Violation {
	counts := make(map[int]int)
	for _, fx := range fixtures {
		counts[fx.Matchday]++
	}

	capacity := cfg.MatchdayCapacity()
	var violations []Violation
	for md, count := range counts {
		if count > capacity {
			violations = append(violations, Violation{
				Type:    "error",
				Message: fmt.Sprintf("matchday %d has %d fixtures (max %d)", md, count, capacity),
			})
		}
	}
	return violations
}

// checkMatchdayWindows verifies each matchday sits inside its weekend
// window, one week after the previous matchday's.
func checkMatchdayWindows(cfg *config.Config, fixtures []parsedFixture) []Violation {
	start, err := cfg.StartTime()
	if err != nil {
		return []Violation{{Type: "error", Message: err.Error()}}
	}
	first := schedule.WindowStart(start, cfg.Template().StartWeekday)

	var violations []Violation
	for _, fx := range fixtures {
		if fx.Matchday < 1 || fx.Matchday > cfg.MatchdayCount() {
			violations = append(violations, Violation{
				Row:     fx.Row,
				Type:    "error",
				Message: fmt.Sprintf("matchday %d outside 1..%d", fx.Matchday, cfg.MatchdayCount()),
			})
			continue
		}
		windowStart := first.AddDate(0, 0, 7*(fx.Matchday-1))
		windowEnd := windowStart.AddDate(0, 0, schedule.WindowDays)
		if fx.Kickoff.Before(windowStart) || !fx.Kickoff.Before(windowEnd) {
			violations = append(violations, Violation{
				Row:  fx.Row,
				Type: "error",
				Message: fmt.Sprintf("%s vs %s on %s is outside matchday %d (%s to %s)",
					fx.Home, fx.Away, fx.Kickoff.Format("01/02"), fx.Matchday,
					windowStart.Format("01/02"), windowEnd.AddDate(0, 0, -1).Format("01/02")),
			})
		}
	}
	return violations
}

func checkVenues(cfg *config.Config, fixtures []parsedFixture) []Violation {
	venues := make(map[string]string)
	for _, t := range cfg.Teams {
		venues[t.ID] = t.Venue
	}

	var violations []Violation
	for _, fx := range fixtures {
		if fx.Venue != venues[fx.Home] {
			violations = append(violations, Violation{
				Row:     fx.Row,
				Type:    "warning",
				Message: fmt.Sprintf("%s vs %s played at %s, not %s", fx.Home, fx.Away, fx.Venue, venues[fx.Home]),
			})
		}
	}

	if !cfg.League.AvoidVenueClash {
		return violations
	}

	type venueMatchday struct {
		venue    string
		matchday int
	}
	seen := make(map[venueMatchday]bool)
	for _, fx := range fixtures {
		key := venueMatchday{fx.Venue, fx.Matchday}
		if seen[key] {
			violations = append(violations, Violation{
				Row:     fx.Row,
				Type:    "warning",
				Message: fmt.Sprintf("%s hosts more than one fixture on matchday %d", fx.Venue, fx.Matchday),
			})
		}
		seen[key] = true
	}
	return violations
}

func checkHomeAwayBalance(cfg *config.Config, fixtures []parsedFixture) []Violation {
	home := make(map[string]int)
	away := make(map[string]int)
	for _, fx := range fixtures {
		home[fx.Home]++
		away[fx.Away]++
	}

	var violations []Violation
	for _, t := range cfg.Teams {
		diff := home[t.ID] - away[t.ID]
		if diff > 1 || diff < -1 {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s has %d home and %d away fixtures", t.ID, home[t.ID], away[t.ID]),
			})
		}
	}
	return violations
}

func checkRematchProximity(fixtures []parsedFixture) []Violation {
	type matchup struct{ a, b string }
	meetings := make(map[matchup][]time.Time)
	for _, fx := range fixtures {
		a, b := fx.Home, fx.Away
		if a > b {
			a, b = b, a
		}
		meetings[matchup{a, b}] = append(meetings[matchup{a, b}], fx.Kickoff)
	}

	var violations []Violation
	for mk, dates := range meetings {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for i := 1; i < len(dates); i++ {
			days := int(dates[i].Sub(dates[i-1]).Hours() / 24)
			if days < minRematchDays {
				violations = append(violations, Violation{
					Type: "warning",
					Days: days,
					Message: fmt.Sprintf("%s vs %s rematch after %d days (min %d): %s and %s",
						mk.a, mk.b, days, minRematchDays,
						dates[i-1].Format("01/02"), dates[i].Format("01/02")),
				})
			}
		}
	}
	// Sort by severity: fewest days (worst) first
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Days < violations[j].Days
	})
	return violations
}

// checkGameCompleteness expects every ordered pairing once in a double
// round-robin, and every unordered pairing once in a single one.
func checkGameCompleteness(cfg *config.Config, fixtures []parsedFixture) []Violation {
	type pairKey struct{ home, away string }
	key := func(home, away string) pairKey {
		if !cfg.League.DoubleRound && home > away {
			home, away = away, home
		}
		return pairKey{home, away}
	}

	counts := make(map[pairKey]int)
	games := make(map[string]int)
	for _, fx := range fixtures {
		counts[key(fx.Home, fx.Away)]++
		games[fx.Home]++
		games[fx.Away]++
	}

	var violations []Violation
	for _, t := range cfg.Teams {
		if games[t.ID] == 0 {
			violations = append(violations, Violation{
				Type:    "error",
				Message: fmt.Sprintf("%s has no fixtures scheduled", t.ID),
			})
		}
	}

	teams := cfg.Roster()
	for i, a := range teams {
		for j, b := range teams {
			if i == j || (!cfg.League.DoubleRound && j < i) {
				continue
			}
			k := key(a.ID, b.ID)
			desc := fmt.Sprintf("%s vs %s", k.home, k.away)
			switch n := counts[k]; {
			case n == 0:
				violations = append(violations, Violation{Type: "error", Message: desc + " is missing"})
			case n > 1:
				violations = append(violations, Violation{Type: "error", Message: fmt.Sprintf("%s is scheduled %d times", desc, n)})
			}
		}
	}
	return violations
}

func sortByRow(violations []Violation) {
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Row < violations[j].Row
	})
}
