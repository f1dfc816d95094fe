package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/derekprior/matchday/internal/league"
)

// EventDetail is a match event with the names needed to print it.
type EventDetail struct {
	league.MatchEvent
	PlayerName string
	TeamName   string
}

// RecordEvents saves match events and returns them with their ids. Each
// event must name a saved fixture and player, and the player's team must
// be playing in that fixture. The batch is all-or-nothing.
func (s *Store) RecordEvents(ctx context.Context, events []league.MatchEvent) ([]league.MatchEvent, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin RecordEvents tx: %w", err)
	}
	defer tx.Rollback()

	insert := s.rebind(`
		INSERT INTO match_events (fixture_id, player_id, team_id, event_type, minute, assisted_by, substituted_for)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	saved := make([]league.MatchEvent, len(events))
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}

		var home, away string
		err := tx.QueryRowContext(ctx, s.rebind(`
			SELECT home_team_id, away_team_id FROM fixtures WHERE id = ?
		`), e.FixtureID).Scan(&home, &away)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fixture %d: %w", e.FixtureID, league.ErrUnknownFixture)
		}
		if err != nil {
			return nil, fmt.Errorf("resolving fixture %d: %w", e.FixtureID, err)
		}

		team, err := s.playerTeam(ctx, tx, e.PlayerID)
		if err != nil {
			return nil, err
		}
		if e.TeamID == "" {
			e.TeamID = team
		}
		if e.TeamID != team {
			return nil, fmt.Errorf("%w: player %d plays for %s, not %s", league.ErrInvalidEvent, e.PlayerID, team, e.TeamID)
		}
		if team != home && team != away {
			return nil, fmt.Errorf("%w: %s is not playing in fixture %d", league.ErrInvalidEvent, team, e.FixtureID)
		}

		for _, other := range []int64{e.AssistedBy, e.SubstitutedFor} {
			if other == 0 {
				continue
			}
			otherTeam, err := s.playerTeam(ctx, tx, other)
			if err != nil {
				return nil, err
			}
			if otherTeam != team {
				return nil, fmt.Errorf("%w: player %d is not a teammate of player %d", league.ErrInvalidEvent, other, e.PlayerID)
			}
		}

		if err := tx.QueryRowContext(ctx, insert,
			e.FixtureID, e.PlayerID, e.TeamID, string(e.Type), e.Minute,
			nullID(e.AssistedBy), nullID(e.SubstitutedFor),
		).Scan(&e.ID); err != nil {
			return nil, fmt.Errorf("saving %s event for fixture %d: %w", e.Type, e.FixtureID, err)
		}
		saved[i] = e
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit RecordEvents tx: %w", err)
	}
	return saved, nil
}

func (s *Store) playerTeam(ctx context.Context, tx *sql.Tx, playerID int64) (string, error) {
	var team string
	err := tx.QueryRowContext(ctx, s.rebind(`SELECT team_id FROM players WHERE id = ?`), playerID).Scan(&team)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("player %d: %w", playerID, league.ErrUnknownPlayer)
	}
	if err != nil {
		return "", fmt.Errorf("resolving player %d: %w", playerID, err)
	}
	return team, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// MatchDetails returns a fixture and its events in match order.
func (s *Store) MatchDetails(ctx context.Context, fixtureID int64) (league.Fixture, []EventDetail, error) {
	fx, err := s.Fixture(ctx, fixtureID)
	if err != nil {
		return league.Fixture{}, nil, err
	}

	rows, err := s.DB.QueryContext(ctx, s.rebind(`
		SELECT e.id, e.fixture_id, e.player_id, e.team_id, e.event_type, e.minute,
			e.assisted_by, e.substituted_for, p.name, t.name
		FROM match_events e
		JOIN players p ON p.id = e.player_id
		JOIN teams t ON t.id = e.team_id
		WHERE e.fixture_id = ?
		ORDER BY e.minute, e.id
	`), fixtureID)
	if err != nil {
		return league.Fixture{}, nil, fmt.Errorf("querying events for fixture %d: %w", fixtureID, err)
	}
	defer rows.Close()

	var events []EventDetail
	for rows.Next() {
		var (
			d                  EventDetail
			typ                string
			assisted, replaced sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.FixtureID, &d.PlayerID, &d.TeamID, &typ, &d.Minute,
			&assisted, &replaced, &d.PlayerName, &d.TeamName); err != nil {
			return league.Fixture{}, nil, fmt.Errorf("scanning event row: %w", err)
		}
		d.Type = league.EventType(typ)
		d.AssistedBy = assisted.Int64
		d.SubstitutedFor = replaced.Int64
		events = append(events, d)
	}
	if err := rows.Err(); err != nil {
		return league.Fixture{}, nil, fmt.Errorf("iterating event rows: %w", err)
	}
	return fx, events, nil
}

// Leaderboard counts events of one type per player, most first. Ties are
// ordered by name. A limit of zero returns every player with an event.
func (s *Store) Leaderboard(ctx context.Context, typ league.EventType, limit int) ([]league.PlayerTally, error) {
	q := `
		SELECT p.id, p.name, p.team_id, COUNT(e.id) AS n
		FROM match_events e
		JOIN players p ON p.id = e.player_id
		WHERE e.event_type = ?
		GROUP BY p.id, p.name, p.team_id
		ORDER BY n DESC, p.name, p.id
	`
	args := []any{string(typ)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s leaderboard: %w", typ, err)
	}
	defer rows.Close()

	var tallies []league.PlayerTally
	for rows.Next() {
		var t league.PlayerTally
		if err := rows.Scan(&t.PlayerID, &t.Name, &t.TeamID, &t.Count); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating leaderboard rows: %w", err)
	}
	return tallies, nil
}
