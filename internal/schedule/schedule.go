package schedule

import (
	"fmt"
	"time"

	"github.com/derekprior/matchday/internal/league"
)

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Games     int
	Home      int
	Away      int
	ByWeekday [7]int // indexed by time.Weekday
	Clashes   int    // matchdays where the team was force-placed twice
}

// Result is a complete dated schedule.
type Result struct {
	*Assignment
	Fixtures    []league.Fixture
	TeamMetrics map[string]*TeamMetrics
}

// Build assigns pairings to matchdays and dates them. The template is
// checked against the matchday capacity before any placement, so a
// mismatch fails without doing any work. On error nothing is returned.
func Build(pairings []league.Pairing, opts AssignOptions, start time.Time, tmpl SlotTemplate) (*Result, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	if tmpl.Capacity() < opts.Capacity {
		return nil, fmt.Errorf("%w: matchdays hold up to %d fixtures but the template has %d slots",
			league.ErrSlotTemplateMismatch, opts.Capacity, tmpl.Capacity())
	}

	assignment, err := Assign(pairings, opts)
	if err != nil {
		return nil, err
	}

	fixtures, err := AssignKickoffs(assignment.Matchdays, start, tmpl)
	if err != nil {
		return nil, err
	}

	return &Result{
		Assignment:  assignment,
		Fixtures:    fixtures,
		TeamMetrics: buildMetrics(assignment, fixtures),
	}, nil
}

func buildMetrics(a *Assignment, fixtures []league.Fixture) map[string]*TeamMetrics {
	metrics := make(map[string]*TeamMetrics)
	get := func(team string) *TeamMetrics {
		m, ok := metrics[team]
		if !ok {
			m = &TeamMetrics{}
			metrics[team] = m
		}
		return m
	}

	for _, f := range fixtures {
		home, away := get(f.Home), get(f.Away)
		home.Games++
		away.Games++
		home.Home++
		away.Away++
		home.ByWeekday[f.Kickoff.Weekday()]++
		away.ByWeekday[f.Kickoff.Weekday()]++
	}

	for _, md := range a.Matchdays {
		seen := make(map[string]int)
		for _, p := range md.Pairings {
			seen[p.Home]++
			seen[p.Away]++
		}
		for team, n := range seen {
			if n > 1 {
				get(team).Clashes++
			}
		}
	}
	return metrics
}
