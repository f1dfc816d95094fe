package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/matchday/internal/config"
	"github.com/derekprior/matchday/internal/excel"
	"github.com/derekprior/matchday/internal/league"
	"github.com/derekprior/matchday/internal/standings"
	"github.com/derekprior/matchday/internal/store"
)

type resultsFile struct {
	Results []league.MatchResult `yaml:"results"`
}

func loadResults(path string) ([]league.MatchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	var rf resultsFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}
	if len(rf.Results) == 0 {
		return nil, fmt.Errorf("%s has no results", path)
	}
	return rf.Results, nil
}

// restoreAggregator rebuilds the standings aggregator from the database so
// results already counted are not counted again.
func restoreAggregator(ctx context.Context, st *store.Store) (*standings.Aggregator, error) {
	rows, err := st.Standings(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := st.AppliedFixtureIDs(ctx)
	if err != nil {
		return nil, err
	}
	agg := standings.New(st, standings.WithSink(st))
	agg.Restore(rows, applied)
	return agg, nil
}

type applySummary struct {
	applied, postponed, skipped int
}

// applyResults counts completed results through the aggregator, whose sink
// saves the result row and both standings rows together. Postponed results
// only move the fixture's status.
func applyResults(ctx context.Context, logger zerolog.Logger, st *store.Store, agg *standings.Aggregator, results []league.MatchResult) (applySummary, error) {
	var sum applySummary
	for _, r := range results {
		upd, err := agg.Apply(ctx, r)
		if errors.Is(err, league.ErrDuplicateResult) {
			logger.Warn().Int64("fixture_id", r.FixtureID).Msg("result already recorded, skipping")
			sum.skipped++
			continue
		}
		if err != nil {
			return sum, err
		}

		if upd.Applied {
			sum.applied++
			logger.Debug().Int64("fixture_id", r.FixtureID).
				Str("home", upd.Home.TeamID).Int("home_points", upd.Home.Points).
				Str("away", upd.Away.TeamID).Int("away_points", upd.Away.Points).
				Msg("standings saved")
			fmt.Printf("  ✓ fixture %d: %s %d-%d %s\n", r.FixtureID, upd.Home.TeamID, r.HomeGoals, r.AwayGoals, upd.Away.TeamID)
			continue
		}

		if err := st.RecordResult(ctx, r); err != nil {
			if errors.Is(err, league.ErrDuplicateResult) {
				logger.Warn().Int64("fixture_id", r.FixtureID).Msg("fixture already completed, ignoring postponement")
				sum.skipped++
				continue
			}
			return sum, err
		}
		sum.postponed++
		fmt.Printf("  ⚠ fixture %d postponed\n", r.FixtureID)
	}
	return sum, nil
}

func runApplyResults(ctx context.Context, logger zerolog.Logger, cfg *config.Config, results []league.MatchResult) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	agg, err := restoreAggregator(ctx, st)
	if err != nil {
		return err
	}

	fmt.Printf("Applying %d results...\n", len(results))
	sum, err := applyResults(ctx, logger, st, agg, results)
	if err != nil {
		return err
	}
	fmt.Printf("\nResults complete: %d applied, %d postponed, %d skipped\n", sum.applied, sum.postponed, sum.skipped)
	return nil
}

func runStandings(ctx context.Context, cfg *config.Config, outputPath string) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	table, err := st.Standings(ctx)
	if err != nil {
		return err
	}
	if len(table) == 0 {
		fmt.Println("No results recorded yet")
		return nil
	}

	names := make(map[string]string, len(cfg.Teams))
	for _, t := range cfg.Teams {
		names[t.ID] = t.Name
	}

	fmt.Printf("  %3s %-25s %3s %3s %3s %3s %4s %4s %4s %4s\n", "Pos", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts")
	for i, s := range table {
		name := names[s.TeamID]
		if name == "" {
			name = s.TeamID
		}
		fmt.Printf("  %3d %-25s %3d %3d %3d %3d %4d %4d %+4d %4d\n", i+1, name,
			s.Played, s.Wins, s.Draws, s.Losses, s.GoalsFor, s.GoalsAgainst, s.GoalDiff, s.Points)
	}

	if outputPath == "" {
		return nil
	}
	f, err := excel.GenerateStandings(cfg, table)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Standings saved to %s\n", outputPath)
	return nil
}

type fixtureFilter struct {
	team     string
	status   string
	matchday int
	upcoming int
	on       string
}

// queryFixtures runs the first filter that is set, or lists everything.
func queryFixtures(ctx context.Context, st *store.Store, loc *time.Location, filter fixtureFilter, now time.Time) ([]league.Fixture, error) {
	switch {
	case filter.team != "":
		return st.FixturesByTeam(ctx, filter.team)
	case filter.status != "":
		status, err := league.ParseStatus(filter.status)
		if err != nil {
			return nil, err
		}
		return st.FixturesByStatus(ctx, status)
	case filter.matchday > 0:
		return st.FixturesByMatchday(ctx, filter.matchday)
	case filter.upcoming > 0:
		return st.UpcomingFixtures(ctx, now, filter.upcoming)
	case filter.on != "":
		day, err := time.ParseInLocation(excel.DateFormat, filter.on, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid --on date %q: %w", filter.on, err)
		}
		return st.FixturesOn(ctx, day)
	}
	return st.Fixtures(ctx)
}

func runListFixtures(ctx context.Context, cfg *config.Config, filter fixtureFilter) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	fixtures, err := queryFixtures(ctx, st, loc, filter, time.Now())
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		fmt.Println("No fixtures found")
		return nil
	}

	fmt.Printf("  %5s %3s %-16s %-8s %-8s %-30s %-10s %s\n", "ID", "MD", "Kickoff", "Home", "Away", "Venue", "Status", "Score")
	for _, fx := range fixtures {
		score := ""
		if fx.Status == league.StatusCompleted {
			score = fmt.Sprintf("%d-%d", fx.HomeGoals, fx.AwayGoals)
		}
		kickoff := fx.Kickoff.In(loc).Format("Mon 02 Jan 15:04")
		fmt.Printf("  %5d %3d %-16s %-8s %-8s %-30s %-10s %s\n", fx.ID, fx.Matchday, kickoff,
			fx.Home, fx.Away, fx.Venue, fx.Status, score)
	}
	fmt.Printf("\n%d fixtures\n", len(fixtures))
	return nil
}
