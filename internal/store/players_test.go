package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/matchday/internal/league"
)

func squad() []league.Player {
	return []league.Player{
		{TeamID: "ars", Name: "Saka", Position: league.Forward, Number: 7},
		{TeamID: "ars", Name: "Odegaard", Position: league.Midfielder, Number: 8, Role: league.RoleCaptain},
		{TeamID: "che", Name: "Palmer", Position: league.Midfielder, Number: 20},
		{TeamID: "che", Name: "Sanchez", Position: league.Goalkeeper, Number: 1},
		{TeamID: "liv", Name: "Salah", Position: league.Forward, Number: 11},
	}
}

func addSquad(t *testing.T, s *Store) map[string]league.Player {
	t.Helper()
	saved, err := s.AddPlayers(context.Background(), squad())
	require.NoError(t, err)
	byName := make(map[string]league.Player, len(saved))
	for _, p := range saved {
		byName[p.Name] = p
	}
	return byName
}

func TestAddPlayers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	players := addSquad(t, s)
	saka := players["Saka"]
	assert.NotZero(t, saka.ID)
	assert.Equal(t, league.RolePlayer, saka.Role)

	got, err := s.Player(ctx, saka.ID)
	require.NoError(t, err)
	assert.Equal(t, saka, got)

	t.Run("unknown player", func(t *testing.T) {
		_, err := s.Player(ctx, 999)
		assert.ErrorIs(t, err, league.ErrUnknownPlayer)
	})

	t.Run("duplicate name on a team", func(t *testing.T) {
		_, err := s.AddPlayers(ctx, []league.Player{
			{TeamID: "tot", Name: "Son", Position: league.Forward, Number: 7},
			{TeamID: "ars", Name: "Saka", Position: league.Forward, Number: 77},
		})
		assert.ErrorIs(t, err, league.ErrDuplicatePlayer)

		spurs, err := s.PlayersByTeam(ctx, "tot")
		require.NoError(t, err)
		assert.Empty(t, spurs, "a rejected batch saves nothing")
	})

	t.Run("team outside the league", func(t *testing.T) {
		_, err := s.AddPlayers(ctx, []league.Player{{TeamID: "mun", Name: "Fernandes", Position: league.Midfielder, Number: 8}})
		assert.ErrorIs(t, err, league.ErrInvalidPlayer)
	})

	t.Run("invalid position", func(t *testing.T) {
		_, err := s.AddPlayers(ctx, []league.Player{{TeamID: "tot", Name: "Son", Position: "ST", Number: 7}})
		assert.ErrorIs(t, err, league.ErrInvalidPlayer)
	})
}

func TestPlayerQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addSquad(t, s)

	names := func(players []league.Player) []string {
		var out []string
		for _, p := range players {
			out = append(out, p.Name)
		}
		return out
	}

	all, err := s.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Saka", "Odegaard", "Sanchez", "Palmer", "Salah"}, names(all))

	chelsea, err := s.PlayersByTeam(ctx, "che")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sanchez", "Palmer"}, names(chelsea))

	forwards, err := s.PlayersByPosition(ctx, league.Forward)
	require.NoError(t, err)
	assert.Equal(t, []string{"Saka", "Salah"}, names(forwards))
}

func TestRecordEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixtures := saveSeason(t, s)
	players := addSquad(t, s)
	arsChe := fixtures[0]
	saka, odegaard, palmer, salah := players["Saka"], players["Odegaard"], players["Palmer"], players["Salah"]

	saved, err := s.RecordEvents(ctx, []league.MatchEvent{
		{FixtureID: arsChe.ID, PlayerID: saka.ID, Type: league.EventGoal, Minute: 67, AssistedBy: odegaard.ID},
		{FixtureID: arsChe.ID, PlayerID: odegaard.ID, Type: league.EventAssist, Minute: 67},
		{FixtureID: arsChe.ID, PlayerID: palmer.ID, TeamID: "che", Type: league.EventYellowCard, Minute: 12},
	})
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.NotZero(t, saved[0].ID)
	assert.Equal(t, "ars", saved[0].TeamID, "team defaults to the player's")

	fx, events, err := s.MatchDetails(ctx, arsChe.ID)
	require.NoError(t, err)
	assert.Equal(t, arsChe.ID, fx.ID)
	require.Len(t, events, 3)
	assert.Equal(t, "Palmer", events[0].PlayerName, "events come back in minute order")
	assert.Equal(t, "Chelsea", events[0].TeamName)
	assert.Equal(t, odegaard.ID, events[1].AssistedBy)
	assert.Zero(t, events[2].AssistedBy)

	rejects := []struct {
		name  string
		event league.MatchEvent
		want  error
	}{
		{"unknown fixture", league.MatchEvent{FixtureID: 999, PlayerID: saka.ID, Type: league.EventGoal, Minute: 1}, league.ErrUnknownFixture},
		{"unknown player", league.MatchEvent{FixtureID: arsChe.ID, PlayerID: 999, Type: league.EventGoal, Minute: 1}, league.ErrUnknownPlayer},
		{"team not in fixture", league.MatchEvent{FixtureID: arsChe.ID, PlayerID: salah.ID, Type: league.EventGoal, Minute: 1}, league.ErrInvalidEvent},
		{"wrong team for player", league.MatchEvent{FixtureID: arsChe.ID, PlayerID: saka.ID, TeamID: "che", Type: league.EventGoal, Minute: 1}, league.ErrInvalidEvent},
		{"assist from opponent", league.MatchEvent{FixtureID: arsChe.ID, PlayerID: saka.ID, Type: league.EventGoal, Minute: 1, AssistedBy: palmer.ID}, league.ErrInvalidEvent},
		{"minute out of range", league.MatchEvent{FixtureID: arsChe.ID, PlayerID: saka.ID, Type: league.EventGoal, Minute: 200}, league.ErrInvalidEvent},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.RecordEvents(ctx, []league.MatchEvent{tt.event})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("rejected batch saves nothing", func(t *testing.T) {
		_, err := s.RecordEvents(ctx, []league.MatchEvent{
			{FixtureID: arsChe.ID, PlayerID: saka.ID, Type: league.EventGoal, Minute: 80},
			{FixtureID: arsChe.ID, PlayerID: 999, Type: league.EventGoal, Minute: 81},
		})
		require.ErrorIs(t, err, league.ErrUnknownPlayer)
		_, events, err := s.MatchDetails(ctx, arsChe.ID)
		require.NoError(t, err)
		assert.Len(t, events, 3)
	})

	t.Run("details for unknown fixture", func(t *testing.T) {
		_, _, err := s.MatchDetails(ctx, 999)
		assert.ErrorIs(t, err, league.ErrUnknownFixture)
	})
}

func TestLeaderboard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixtures := saveSeason(t, s)
	players := addSquad(t, s)
	saka, palmer, salah := players["Saka"], players["Palmer"], players["Salah"]
	arsChe, livTot, cheLiv := fixtures[0], fixtures[1], fixtures[2]

	_, err := s.RecordEvents(ctx, []league.MatchEvent{
		{FixtureID: arsChe.ID, PlayerID: saka.ID, Type: league.EventGoal, Minute: 10},
		{FixtureID: arsChe.ID, PlayerID: palmer.ID, Type: league.EventGoal, Minute: 20},
		{FixtureID: livTot.ID, PlayerID: salah.ID, Type: league.EventGoal, Minute: 5},
		{FixtureID: livTot.ID, PlayerID: salah.ID, Type: league.EventGoal, Minute: 50},
		{FixtureID: cheLiv.ID, PlayerID: palmer.ID, Type: league.EventRedCard, Minute: 88},
	})
	require.NoError(t, err)

	scorers, err := s.Leaderboard(ctx, league.EventGoal, 0)
	require.NoError(t, err)
	assert.Equal(t, []league.PlayerTally{
		{PlayerID: salah.ID, Name: "Salah", TeamID: "liv", Count: 2},
		{PlayerID: palmer.ID, Name: "Palmer", TeamID: "che", Count: 1},
		{PlayerID: saka.ID, Name: "Saka", TeamID: "ars", Count: 1},
	}, scorers)

	top, err := s.Leaderboard(ctx, league.EventGoal, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	reds, err := s.Leaderboard(ctx, league.EventRedCard, 0)
	require.NoError(t, err)
	require.Len(t, reds, 1)
	assert.Equal(t, "Palmer", reds[0].Name)

	assists, err := s.Leaderboard(ctx, league.EventAssist, 0)
	require.NoError(t, err)
	assert.Empty(t, assists)

	t.Run("new season clears events", func(t *testing.T) {
		saveSeason(t, s)
		scorers, err := s.Leaderboard(ctx, league.EventGoal, 0)
		require.NoError(t, err)
		assert.Empty(t, scorers)
	})
}
