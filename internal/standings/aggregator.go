package standings

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/derekprior/matchday/internal/league"
)

// FixtureResolver maps a fixture id to its home and away team ids.
type FixtureResolver interface {
	ResolveFixture(ctx context.Context, fixtureID int64) (home, away string, err error)
}

// Sink persists a completed result together with the standings rows it
// produced. All three are written in one call so a sink can use a single
// transaction; a result is counted only if its rows were saved.
type Sink interface {
	SaveResult(ctx context.Context, result league.MatchResult, home, away league.TeamStanding) error
}

// Update is the outcome of applying one result.
type Update struct {
	Home    league.TeamStanding
	Away    league.TeamStanding
	Applied bool // false for postponed results
}

type Option func(*Aggregator)

// WithSink writes every completed result and its rows to s before they
// are committed.
func WithSink(s Sink) Option {
	return func(a *Aggregator) { a.sink = s }
}

// WithClock sets the source of UpdatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// Aggregator folds finalized results into the season table. It is safe
// for concurrent use; results touching disjoint teams apply in parallel.
type Aggregator struct {
	resolver FixtureResolver
	sink     Sink
	now      func() time.Time

	mu      sync.Mutex // guards the maps below, never held across I/O
	rows    map[string]league.TeamStanding
	locks   map[string]*sync.Mutex
	applied map[int64]bool
}

func New(resolver FixtureResolver, opts ...Option) *Aggregator {
	a := &Aggregator{
		resolver: resolver,
		now:      time.Now,
		rows:     make(map[string]league.TeamStanding),
		locks:    make(map[string]*sync.Mutex),
		applied:  make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply records a result against both teams' standings. Postponed
// results change nothing. A fixture can be completed only once.
func (a *Aggregator) Apply(ctx context.Context, result league.MatchResult) (Update, error) {
	if err := result.Validate(); err != nil {
		return Update{}, err
	}

	home, away, err := a.resolver.ResolveFixture(ctx, result.FixtureID)
	if err != nil {
		return Update{}, fmt.Errorf("resolving fixture %d: %w", result.FixtureID, err)
	}
	if home == "" || away == "" || home == away {
		return Update{}, fmt.Errorf("%w: fixture %d resolves to %q vs %q", league.ErrUnknownFixture, result.FixtureID, home, away)
	}

	unlock := a.lockTeams(home, away)
	defer unlock()

	a.mu.Lock()
	homeRow, awayRow := a.row(home), a.row(away)
	done := a.applied[result.FixtureID]
	a.mu.Unlock()

	if result.Status != league.StatusCompleted {
		return Update{Home: homeRow, Away: awayRow}, nil
	}
	if done {
		return Update{}, fmt.Errorf("%w: fixture %d", league.ErrDuplicateResult, result.FixtureID)
	}

	now := a.now()
	homeRow.Record(result.HomeGoals, result.AwayGoals)
	awayRow.Record(result.AwayGoals, result.HomeGoals)
	homeRow.UpdatedAt = now
	awayRow.UpdatedAt = now

	if a.sink != nil {
		if err := a.sink.SaveResult(ctx, result, homeRow, awayRow); err != nil {
			return Update{}, fmt.Errorf("saving standings for fixture %d: %w", result.FixtureID, err)
		}
	}

	a.mu.Lock()
	a.rows[home] = homeRow
	a.rows[away] = awayRow
	a.applied[result.FixtureID] = true
	a.mu.Unlock()

	return Update{Home: homeRow, Away: awayRow, Applied: true}, nil
}

// Standing returns a team's current row.
func (a *Aggregator) Standing(teamID string) (league.TeamStanding, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	row, ok := a.rows[teamID]
	return row, ok
}

// Table returns every row, ranked.
func (a *Aggregator) Table() []league.TeamStanding {
	a.mu.Lock()
	rows := make([]league.TeamStanding, 0, len(a.rows))
	for _, row := range a.rows {
		rows = append(rows, row)
	}
	a.mu.Unlock()

	league.SortStandings(rows)
	return rows
}

// Applied reports whether a completed result for the fixture has been
// folded into the table.
func (a *Aggregator) Applied(fixtureID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applied[fixtureID]
}

// Restore replaces the table with rows loaded from a sink, along with
// the fixtures already counted in them. Call it before any Apply.
func (a *Aggregator) Restore(rows []league.TeamStanding, appliedFixtureIDs []int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rows = make(map[string]league.TeamStanding, len(rows))
	for _, row := range rows {
		a.rows[row.TeamID] = row
	}
	a.applied = make(map[int64]bool, len(appliedFixtureIDs))
	for _, id := range appliedFixtureIDs {
		a.applied[id] = true
	}
}

// row returns the team's row, or a zero row on first touch. Callers
// hold a.mu.
func (a *Aggregator) row(teamID string) league.TeamStanding {
	if row, ok := a.rows[teamID]; ok {
		return row
	}
	return league.TeamStanding{TeamID: teamID}
}

// lockTeams takes both team locks in id order so two results sharing
// teams can never wait on each other in a cycle.
func (a *Aggregator) lockTeams(ids ...string) func() {
	sort.Strings(ids)

	a.mu.Lock()
	locks := make([]*sync.Mutex, len(ids))
	for i, id := range ids {
		l, ok := a.locks[id]
		if !ok {
			l = &sync.Mutex{}
			a.locks[id] = l
		}
		locks[i] = l
	}
	a.mu.Unlock()

	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}
