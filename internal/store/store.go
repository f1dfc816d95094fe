package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/derekprior/matchday/internal/league"
)

// Store persists teams, players, the fixture list, results, match events
// and standings in SQLite or Postgres.
type Store struct {
	DB     *sql.DB
	driver string
}

// Season describes one saved schedule run.
type Season struct {
	ID        string
	Name      string
	StartDate time.Time
	Seed      int64
	CreatedAt time.Time
}

// NewSeason returns a season with a fresh id.
func NewSeason(name string, start time.Time, seed int64) Season {
	return Season{
		ID:        uuid.NewString(),
		Name:      name,
		StartDate: start,
		Seed:      seed,
		CreatedAt: time.Now(),
	}
}

// Open connects to driver ("sqlite" or "postgres") and verifies the
// connection.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == "sqlite" {
		// one connection keeps :memory: databases shared and writes serialized
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{DB: db, driver: driver}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY"
	if s.driver == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL,
			venue TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS seasons (
			id         TEXT PRIMARY KEY,
			name       TEXT   NOT NULL,
			start_date BIGINT NOT NULL,
			seed       BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fixtures (
			id           ` + serial + `,
			season_id    TEXT    NOT NULL REFERENCES seasons(id),
			matchday     INT     NOT NULL,
			home_team_id TEXT    NOT NULL REFERENCES teams(id),
			away_team_id TEXT    NOT NULL REFERENCES teams(id),
			venue        TEXT    NOT NULL,
			kickoff      BIGINT  NOT NULL,
			status       TEXT    NOT NULL DEFAULT 'scheduled',
			home_goals   INT,
			away_goals   INT
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id           ` + serial + `,
			fixture_id   BIGINT NOT NULL UNIQUE REFERENCES fixtures(id),
			home_team_id TEXT   NOT NULL,
			away_team_id TEXT   NOT NULL,
			home_goals   INT    NOT NULL,
			away_goals   INT    NOT NULL,
			status       TEXT   NOT NULL,
			winner       TEXT,
			recorded_at  BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS standings (
			team_id       TEXT PRIMARY KEY REFERENCES teams(id),
			played        INT    NOT NULL DEFAULT 0,
			wins          INT    NOT NULL DEFAULT 0,
			draws         INT    NOT NULL DEFAULT 0,
			losses        INT    NOT NULL DEFAULT 0,
			goals_for     INT    NOT NULL DEFAULT 0,
			goals_against INT    NOT NULL DEFAULT 0,
			goal_diff     INT    NOT NULL DEFAULT 0,
			points        INT    NOT NULL DEFAULT 0,
			updated_at    BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id            ` + serial + `,
			team_id       TEXT NOT NULL REFERENCES teams(id),
			name          TEXT NOT NULL,
			position      TEXT NOT NULL,
			jersey_number INT  NOT NULL,
			role          TEXT NOT NULL DEFAULT 'player',
			UNIQUE (team_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS match_events (
			id              ` + serial + `,
			fixture_id      BIGINT NOT NULL REFERENCES fixtures(id),
			player_id       BIGINT NOT NULL REFERENCES players(id),
			team_id         TEXT   NOT NULL REFERENCES teams(id),
			event_type      TEXT   NOT NULL,
			minute          INT    NOT NULL,
			assisted_by     BIGINT,
			substituted_for BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS fixtures_kickoff ON fixtures (kickoff)`,
		`CREATE INDEX IF NOT EXISTS match_events_type ON match_events (event_type)`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// SaveTeams inserts or updates the roster.
func (s *Store) SaveTeams(ctx context.Context, teams []league.Team) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveTeams tx: %w", err)
	}
	defer tx.Rollback()

	q := s.rebind(`
		INSERT INTO teams (id, name, venue)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, venue = excluded.venue
	`)
	for _, t := range teams {
		if _, err := tx.ExecContext(ctx, q, t.ID, t.Name, t.Venue); err != nil {
			return fmt.Errorf("saving team %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveTeams tx: %w", err)
	}
	return nil
}

// Teams returns the saved roster ordered by id.
func (s *Store) Teams(ctx context.Context) ([]league.Team, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, venue FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []league.Team
	for rows.Next() {
		var t league.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Venue); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}
	return teams, nil
}

// SaveSeason replaces the saved schedule with fixtures and returns them
// with their database ids. Results, match events and standings from the
// previous schedule are cleared.
func (s *Store) SaveSeason(ctx context.Context, season Season, fixtures []league.Fixture) ([]league.Fixture, error) {
	if season.ID == "" {
		season.ID = uuid.NewString()
	}
	if season.CreatedAt.IsZero() {
		season.CreatedAt = time.Now()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin SaveSeason tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM match_events`, `DELETE FROM results`, `DELETE FROM standings`, `DELETE FROM fixtures`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return nil, fmt.Errorf("clearing previous season: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO seasons (id, name, start_date, seed, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), season.ID, season.Name, season.StartDate.Unix(), season.Seed, season.CreatedAt.Unix()); err != nil {
		return nil, fmt.Errorf("saving season %s: %w", season.ID, err)
	}

	q := s.rebind(`
		INSERT INTO fixtures (season_id, matchday, home_team_id, away_team_id, venue, kickoff, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	saved := make([]league.Fixture, len(fixtures))
	for i, f := range fixtures {
		if f.Status == "" {
			f.Status = league.StatusScheduled
		}
		if err := tx.QueryRowContext(ctx, q,
			season.ID, f.Matchday, f.Home, f.Away, f.Venue, f.Kickoff.Unix(), string(f.Status),
		).Scan(&f.ID); err != nil {
			return nil, fmt.Errorf("saving fixture %s: %w", f.Pairing, err)
		}
		saved[i] = f
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit SaveSeason tx: %w", err)
	}
	return saved, nil
}

// LatestSeason returns the most recently saved season.
func (s *Store) LatestSeason(ctx context.Context) (Season, error) {
	var (
		season         Season
		start, created int64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, start_date, seed, created_at
		FROM seasons
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&season.ID, &season.Name, &start, &season.Seed, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Season{}, fmt.Errorf("no season saved")
	}
	if err != nil {
		return Season{}, fmt.Errorf("querying season: %w", err)
	}
	season.StartDate = time.Unix(start, 0).UTC()
	season.CreatedAt = time.Unix(created, 0).UTC()
	return season, nil
}

// ResolveFixture returns the home and away team ids of a fixture.
func (s *Store) ResolveFixture(ctx context.Context, fixtureID int64) (home, away string, err error) {
	err = s.DB.QueryRowContext(ctx, s.rebind(`
		SELECT home_team_id, away_team_id FROM fixtures WHERE id = ?
	`), fixtureID).Scan(&home, &away)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("fixture %d: %w", fixtureID, league.ErrUnknownFixture)
	}
	if err != nil {
		return "", "", fmt.Errorf("resolving fixture %d: %w", fixtureID, err)
	}
	return home, away, nil
}

// RecordResult stores a result on its own and moves its fixture to the
// result's status. Standings are not touched; use SaveResult for a
// completed result that has been counted. A fixture that already has a
// completed result is rejected with league.ErrDuplicateResult; a
// postponed one may be overwritten.
func (s *Store) RecordResult(ctx context.Context, result league.MatchResult) error {
	if err := result.Validate(); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin RecordResult tx: %w", err)
	}
	defer tx.Rollback()

	if _, _, err := s.recordResult(ctx, tx, result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit RecordResult tx: %w", err)
	}
	return nil
}

// SaveResult stores a completed result and upserts the home and away
// standings rows it produced in one transaction. Either all of it is
// saved or none of it is.
func (s *Store) SaveResult(ctx context.Context, result league.MatchResult, home, away league.TeamStanding) error {
	if err := result.Validate(); err != nil {
		return err
	}
	if result.Status != league.StatusCompleted {
		return fmt.Errorf("%w: %q result has no standings to save", league.ErrInvalidStatus, result.Status)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveResult tx: %w", err)
	}
	defer tx.Rollback()

	homeID, awayID, err := s.recordResult(ctx, tx, result)
	if err != nil {
		return err
	}
	if home.TeamID != homeID || away.TeamID != awayID {
		return fmt.Errorf("fixture %d is %s vs %s, standings given for %s vs %s",
			result.FixtureID, homeID, awayID, home.TeamID, away.TeamID)
	}
	if err := s.saveStandings(ctx, tx, home, away); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveResult tx: %w", err)
	}
	return nil
}

// recordResult writes the results row and fixture status inside tx and
// returns the fixture's teams.
func (s *Store) recordResult(ctx context.Context, tx *sql.Tx, result league.MatchResult) (home, away string, err error) {
	err = tx.QueryRowContext(ctx, s.rebind(`
		SELECT home_team_id, away_team_id FROM fixtures WHERE id = ?
	`), result.FixtureID).Scan(&home, &away)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("fixture %d: %w", result.FixtureID, league.ErrUnknownFixture)
	}
	if err != nil {
		return "", "", fmt.Errorf("resolving fixture %d: %w", result.FixtureID, err)
	}

	var existing string
	err = tx.QueryRowContext(ctx, s.rebind(`
		SELECT status FROM results WHERE fixture_id = ?
	`), result.FixtureID).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return "", "", fmt.Errorf("checking result for fixture %d: %w", result.FixtureID, err)
	case league.Status(existing) == league.StatusCompleted:
		return "", "", fmt.Errorf("%w: fixture %d", league.ErrDuplicateResult, result.FixtureID)
	default:
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM results WHERE fixture_id = ?`), result.FixtureID); err != nil {
			return "", "", fmt.Errorf("replacing result for fixture %d: %w", result.FixtureID, err)
		}
	}

	var winner sql.NullString
	if result.Status == league.StatusCompleted {
		switch result.Outcome() {
		case league.HomeWin:
			winner = sql.NullString{String: home, Valid: true}
		case league.AwayWin:
			winner = sql.NullString{String: away, Valid: true}
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO results (fixture_id, home_team_id, away_team_id, home_goals, away_goals, status, winner, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), result.FixtureID, home, away, result.HomeGoals, result.AwayGoals, string(result.Status), winner, time.Now().Unix()); err != nil {
		return "", "", fmt.Errorf("saving result for fixture %d: %w", result.FixtureID, err)
	}

	var homeGoals, awayGoals sql.NullInt64
	if result.Status == league.StatusCompleted {
		homeGoals = sql.NullInt64{Int64: int64(result.HomeGoals), Valid: true}
		awayGoals = sql.NullInt64{Int64: int64(result.AwayGoals), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE fixtures SET status = ?, home_goals = ?, away_goals = ? WHERE id = ?
	`), string(result.Status), homeGoals, awayGoals, result.FixtureID); err != nil {
		return "", "", fmt.Errorf("updating fixture %d: %w", result.FixtureID, err)
	}
	return home, away, nil
}

// AppliedFixtureIDs lists fixtures with a completed result.
func (s *Store) AppliedFixtureIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.DB.QueryContext(ctx, s.rebind(`
		SELECT fixture_id FROM results WHERE status = ? ORDER BY fixture_id
	`), string(league.StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) saveStandings(ctx context.Context, tx *sql.Tx, rows ...league.TeamStanding) error {
	q := s.rebind(`
		INSERT INTO standings (team_id, played, wins, draws, losses, goals_for, goals_against, goal_diff, points, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (team_id) DO UPDATE SET
			played        = excluded.played,
			wins          = excluded.wins,
			draws         = excluded.draws,
			losses        = excluded.losses,
			goals_for     = excluded.goals_for,
			goals_against = excluded.goals_against,
			goal_diff     = excluded.goal_diff,
			points        = excluded.points,
			updated_at    = excluded.updated_at
	`)
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, q,
			row.TeamID, row.Played, row.Wins, row.Draws, row.Losses,
			row.GoalsFor, row.GoalsAgainst, row.GoalDiff, row.Points, row.UpdatedAt.Unix(),
		); err != nil {
			return fmt.Errorf("saving standing for %s: %w", row.TeamID, err)
		}
	}
	return nil
}

// Standings returns the saved table, ranked.
func (s *Store) Standings(ctx context.Context) ([]league.TeamStanding, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT team_id, played, wins, draws, losses, goals_for, goals_against, goal_diff, points, updated_at
		FROM standings
	`)
	if err != nil {
		return nil, fmt.Errorf("querying standings: %w", err)
	}
	defer rows.Close()

	var table []league.TeamStanding
	for rows.Next() {
		var (
			row     league.TeamStanding
			updated int64
		)
		if err := rows.Scan(
			&row.TeamID, &row.Played, &row.Wins, &row.Draws, &row.Losses,
			&row.GoalsFor, &row.GoalsAgainst, &row.GoalDiff, &row.Points, &updated,
		); err != nil {
			return nil, fmt.Errorf("scanning standing row: %w", err)
		}
		row.UpdatedAt = time.Unix(updated, 0).UTC()
		table = append(table, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating standing rows: %w", err)
	}
	league.SortStandings(table)
	return table, nil
}

// rebind rewrites ? placeholders as $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
