package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/derekprior/matchday/internal/league"
)

const playerColumns = `id, team_id, name, position, jersey_number, role`

// AddPlayers saves new squad members and returns them with their ids.
// The batch is all-or-nothing: an invalid player, a team that is not
// saved or a name already on the team rejects every player.
func (s *Store) AddPlayers(ctx context.Context, players []league.Player) ([]league.Player, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin AddPlayers tx: %w", err)
	}
	defer tx.Rollback()

	insert := s.rebind(`
		INSERT INTO players (team_id, name, position, jersey_number, role)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	saved := make([]league.Player, len(players))
	for i, p := range players {
		if err := p.Validate(); err != nil {
			return nil, err
		}

		var one int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM teams WHERE id = ?`), p.TeamID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s plays for %q, which is not in the league", league.ErrInvalidPlayer, p.Name, p.TeamID)
		}
		if err != nil {
			return nil, fmt.Errorf("checking team %s: %w", p.TeamID, err)
		}

		err = tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM players WHERE team_id = ? AND name = ?`), p.TeamID, p.Name).Scan(&one)
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: %s (%s)", league.ErrDuplicatePlayer, p.Name, p.TeamID)
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("checking player %s: %w", p.Name, err)
		}

		if err := tx.QueryRowContext(ctx, insert,
			p.TeamID, p.Name, string(p.Position), p.Number, string(p.Role),
		).Scan(&p.ID); err != nil {
			return nil, fmt.Errorf("saving player %s: %w", p.Name, err)
		}
		saved[i] = p
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit AddPlayers tx: %w", err)
	}
	return saved, nil
}

// Player returns one player by id.
func (s *Store) Player(ctx context.Context, id int64) (league.Player, error) {
	players, err := s.queryPlayers(ctx, `WHERE id = ?`, id)
	if err != nil {
		return league.Player{}, err
	}
	if len(players) == 0 {
		return league.Player{}, fmt.Errorf("player %d: %w", id, league.ErrUnknownPlayer)
	}
	return players[0], nil
}

// Players returns every player ordered by team and jersey number.
func (s *Store) Players(ctx context.Context) ([]league.Player, error) {
	return s.queryPlayers(ctx, `ORDER BY team_id, jersey_number, id`)
}

func (s *Store) PlayersByTeam(ctx context.Context, teamID string) ([]league.Player, error) {
	return s.queryPlayers(ctx, `WHERE team_id = ? ORDER BY jersey_number, id`, teamID)
}

func (s *Store) PlayersByPosition(ctx context.Context, pos league.Position) ([]league.Player, error) {
	return s.queryPlayers(ctx, `WHERE position = ? ORDER BY team_id, jersey_number, id`, string(pos))
}

func (s *Store) queryPlayers(ctx context.Context, clause string, args ...any) ([]league.Player, error) {
	rows, err := s.DB.QueryContext(ctx, s.rebind(`SELECT `+playerColumns+` FROM players `+clause), args...)
	if err != nil {
		return nil, fmt.Errorf("querying players: %w", err)
	}
	defer rows.Close()

	var players []league.Player
	for rows.Next() {
		var (
			p              league.Player
			position, role string
		)
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &position, &p.Number, &role); err != nil {
			return nil, fmt.Errorf("scanning player row: %w", err)
		}
		p.Position = league.Position(position)
		p.Role = league.Role(role)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating player rows: %w", err)
	}
	return players, nil
}
