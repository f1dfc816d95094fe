package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/matchday/internal/config"
	"github.com/derekprior/matchday/internal/league"
	"github.com/derekprior/matchday/internal/store"
)

type playersFile struct {
	Players []league.Player `yaml:"players"`
}

type eventsFile struct {
	Events []league.MatchEvent `yaml:"events"`
}

func loadPlayers(path string) ([]league.Player, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading players: %w", err)
	}
	var pf playersFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing players: %w", err)
	}
	if len(pf.Players) == 0 {
		return nil, fmt.Errorf("%s has no players", path)
	}
	return pf.Players, nil
}

func loadEvents(path string) ([]league.MatchEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	var ef eventsFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("parsing events: %w", err)
	}
	if len(ef.Events) == 0 {
		return nil, fmt.Errorf("%s has no events", path)
	}
	return ef.Events, nil
}

func runAddPlayers(ctx context.Context, logger zerolog.Logger, cfg *config.Config, players []league.Player) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Players reference teams, which exist only after a season is saved.
	if err := st.SaveTeams(ctx, cfg.Roster()); err != nil {
		return err
	}
	saved, err := st.AddPlayers(ctx, players)
	if err != nil {
		return err
	}
	for _, p := range saved {
		logger.Debug().Int64("player_id", p.ID).Str("team", p.TeamID).Msg("player saved")
		fmt.Printf("  ✓ #%d %s (%s, %s) id %d\n", p.Number, p.Name, p.TeamID, p.Position, p.ID)
	}
	fmt.Printf("\n✓ Added %d players\n", len(saved))
	return nil
}

func queryPlayers(ctx context.Context, st *store.Store, team, position string) ([]league.Player, error) {
	switch {
	case team != "":
		return st.PlayersByTeam(ctx, team)
	case position != "":
		pos, err := league.ParsePosition(strings.ToUpper(position))
		if err != nil {
			return nil, err
		}
		return st.PlayersByPosition(ctx, pos)
	}
	return st.Players(ctx)
}

func runListPlayers(ctx context.Context, cfg *config.Config, team, position string) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	players, err := queryPlayers(ctx, st, team, position)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		fmt.Println("No players found")
		return nil
	}

	fmt.Printf("  %5s %-6s %3s %-25s %-3s %s\n", "ID", "Team", "No", "Name", "Pos", "Role")
	for _, p := range players {
		fmt.Printf("  %5d %-6s %3d %-25s %-3s %s\n", p.ID, p.TeamID, p.Number, p.Name, p.Position, p.Role)
	}
	fmt.Printf("\n%d players\n", len(players))
	return nil
}

func runAddEvents(ctx context.Context, logger zerolog.Logger, cfg *config.Config, events []league.MatchEvent) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	saved, err := st.RecordEvents(ctx, events)
	if err != nil {
		return err
	}
	for _, e := range saved {
		logger.Debug().Int64("event_id", e.ID).Int64("fixture_id", e.FixtureID).Str("type", string(e.Type)).Msg("event saved")
	}
	fmt.Printf("✓ Recorded %d events\n", len(saved))
	return nil
}

var leaderboards = map[string]league.EventType{
	"scorers":      league.EventGoal,
	"assists":      league.EventAssist,
	"yellow-cards": league.EventYellowCard,
	"red-cards":    league.EventRedCard,
}

func leaderboardType(name string) (league.EventType, error) {
	typ, ok := leaderboards[name]
	if !ok {
		names := make([]string, 0, len(leaderboards))
		for n := range leaderboards {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", fmt.Errorf("unknown leaderboard %q (want one of %s)", name, strings.Join(names, ", "))
	}
	return typ, nil
}

func runStats(ctx context.Context, cfg *config.Config, board string, limit int) error {
	typ, err := leaderboardType(board)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	tallies, err := st.Leaderboard(ctx, typ, limit)
	if err != nil {
		return err
	}
	if len(tallies) == 0 {
		fmt.Printf("No %s recorded yet\n", strings.ReplaceAll(board, "-", " "))
		return nil
	}

	fmt.Printf("  %3s %-25s %-6s %5s\n", "Pos", "Player", "Team", "Count")
	for i, t := range tallies {
		fmt.Printf("  %3d %-25s %-6s %5d\n", i+1, t.Name, t.TeamID, t.Count)
	}
	return nil
}

func runShowFixture(ctx context.Context, cfg *config.Config, fixtureID int64) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	fx, events, err := st.MatchDetails(ctx, fixtureID)
	if err != nil {
		return err
	}

	score := "vs"
	if fx.Status == league.StatusCompleted {
		score = fmt.Sprintf("%d-%d", fx.HomeGoals, fx.AwayGoals)
	}
	fmt.Printf("Matchday %d: %s %s %s\n", fx.Matchday, fx.Home, score, fx.Away)
	fmt.Printf("  %s at %s (%s)\n", fx.Kickoff.In(loc).Format("Mon 02 Jan 2006 15:04"), fx.Venue, fx.Status)

	if len(events) == 0 {
		fmt.Println("\nNo events recorded")
		return nil
	}
	fmt.Println()
	for _, e := range events {
		fmt.Printf("  %3d' %-13s %-25s %s\n", e.Minute, e.Type, e.PlayerName, e.TeamName)
	}
	return nil
}
