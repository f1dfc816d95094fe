package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/derekprior/matchday/internal/league"
)

const fixtureColumns = `id, matchday, home_team_id, away_team_id, venue, kickoff, status, home_goals, away_goals`

// Fixtures returns every saved fixture in kickoff order.
func (s *Store) Fixtures(ctx context.Context) ([]league.Fixture, error) {
	return s.queryFixtures(ctx, `ORDER BY kickoff, id`)
}

// UpcomingFixtures returns up to limit scheduled fixtures kicking off at
// or after from.
func (s *Store) UpcomingFixtures(ctx context.Context, from time.Time, limit int) ([]league.Fixture, error) {
	return s.queryFixtures(ctx, `WHERE status = ? AND kickoff >= ? ORDER BY kickoff, id LIMIT ?`,
		string(league.StatusScheduled), from.Unix(), limit)
}

// FixturesByTeam returns a team's home and away fixtures.
func (s *Store) FixturesByTeam(ctx context.Context, teamID string) ([]league.Fixture, error) {
	return s.queryFixtures(ctx, `WHERE home_team_id = ? OR away_team_id = ? ORDER BY kickoff, id`, teamID, teamID)
}

func (s *Store) FixturesByStatus(ctx context.Context, status league.Status) ([]league.Fixture, error) {
	return s.queryFixtures(ctx, `WHERE status = ? ORDER BY kickoff, id`, string(status))
}

func (s *Store) FixturesByMatchday(ctx context.Context, matchday int) ([]league.Fixture, error) {
	return s.queryFixtures(ctx, `WHERE matchday = ? ORDER BY kickoff, id`, matchday)
}

// FixturesOn returns fixtures kicking off on day's calendar date in
// day's location.
func (s *Store) FixturesOn(ctx context.Context, day time.Time) ([]league.Fixture, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return s.queryFixtures(ctx, `WHERE kickoff >= ? AND kickoff < ? ORDER BY kickoff, id`, start.Unix(), end.Unix())
}

func (s *Store) queryFixtures(ctx context.Context, clause string, args ...any) ([]league.Fixture, error) {
	rows, err := s.DB.QueryContext(ctx, s.rebind(`SELECT `+fixtureColumns+` FROM fixtures `+clause), args...)
	if err != nil {
		return nil, fmt.Errorf("querying fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []league.Fixture
	for rows.Next() {
		var (
			f                    league.Fixture
			kickoff              int64
			status               string
			homeGoals, awayGoals sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.Matchday, &f.Home, &f.Away, &f.Venue, &kickoff, &status, &homeGoals, &awayGoals); err != nil {
			return nil, fmt.Errorf("scanning fixture row: %w", err)
		}
		f.Kickoff = time.Unix(kickoff, 0).UTC()
		f.Status = league.Status(status)
		f.HomeGoals = int(homeGoals.Int64)
		f.AwayGoals = int(awayGoals.Int64)
		fixtures = append(fixtures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fixture rows: %w", err)
	}
	return fixtures, nil
}

// Fixture returns one fixture by id.
func (s *Store) Fixture(ctx context.Context, id int64) (league.Fixture, error) {
	fixtures, err := s.queryFixtures(ctx, `WHERE id = ?`, id)
	if err != nil {
		return league.Fixture{}, err
	}
	if len(fixtures) == 0 {
		return league.Fixture{}, fmt.Errorf("fixture %d: %w", id, league.ErrUnknownFixture)
	}
	return fixtures[0], nil
}
