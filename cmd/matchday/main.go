package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/derekprior/matchday/internal/config"
	"github.com/derekprior/matchday/internal/store"
)

const (
	defaultConfigFile = "config.yaml"
	defaultDatabase   = "matchday.db"
)

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// loadConfig reads the config file and applies database overrides from
// the environment.
func loadConfig(configFlag string) (*config.Config, error) {
	path, err := resolveConfigPath(configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		dsn = defaultDatabase
	}
	st, err := store.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "⚠ reading .env: %s\n", err)
	}

	var (
		configFile string
		verbose    bool
		logger     zerolog.Logger
	)

	rootCmd := &cobra.Command{
		Use:   "matchday",
		Short: "League fixture scheduler and standings tracker",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(verbose)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate fixture lists",
	}

	var (
		outputFile string
		save       bool
		seed       int64
	)
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a fixture list from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), logger, cfg, generateOptions{
				outputPath: outputFile,
				save:       save,
				seed:       seed,
			})
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "fixtures.xlsx", "Output Excel file path")
	generateCmd.Flags().BoolVar(&save, "save", false, "Save the fixture list to the database")
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "Shuffle seed (default: league.seed from config)")

	validateCmd := &cobra.Command{
		Use:          "validate <fixtures.xlsx>",
		Short:        "Validate a fixture list against the config",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runValidate(cfg, args[0])
		},
	}
	scheduleCmd.AddCommand(generateCmd, validateCmd)

	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Record match results",
	}
	applyCmd := &cobra.Command{
		Use:          "apply <results.yaml>",
		Short:        "Record results and update the standings",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			results, err := loadResults(args[0])
			if err != nil {
				return err
			}
			return runApplyResults(cmd.Context(), logger, cfg, results)
		},
	}
	resultsCmd.AddCommand(applyCmd)

	standingsCmd := &cobra.Command{
		Use:   "standings",
		Short: "Show the league table",
	}
	var standingsOutput string
	showCmd := &cobra.Command{
		Use:          "show",
		Short:        "Print the league table",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runStandings(cmd.Context(), cfg, standingsOutput)
		},
	}
	showCmd.Flags().StringVarP(&standingsOutput, "output", "o", "", "Also write the table to an Excel file")
	standingsCmd.AddCommand(showCmd)

	var filter fixtureFilter
	fixturesCmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Query saved fixtures",
	}
	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List fixtures, optionally filtered",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runListFixtures(cmd.Context(), cfg, filter)
		},
	}
	listCmd.Flags().StringVar(&filter.team, "team", "", "Only fixtures involving this team id")
	listCmd.Flags().StringVar(&filter.status, "status", "", "Only fixtures with this status (scheduled, completed, postponed)")
	listCmd.Flags().IntVar(&filter.matchday, "matchday", 0, "Only fixtures on this matchday")
	listCmd.Flags().IntVar(&filter.upcoming, "upcoming", 0, "Only the next N scheduled fixtures")
	listCmd.Flags().StringVar(&filter.on, "on", "", "Only fixtures on this date (YYYY-MM-DD)")
	fixtureShowCmd := &cobra.Command{
		Use:          "show <fixture-id>",
		Short:        "Show a fixture and its match events",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid fixture id %q", args[0])
			}
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runShowFixture(cmd.Context(), cfg, id)
		},
	}
	fixturesCmd.AddCommand(listCmd, fixtureShowCmd)

	playersCmd := &cobra.Command{
		Use:   "players",
		Short: "Manage team squads",
	}
	playersAddCmd := &cobra.Command{
		Use:          "add <players.yaml>",
		Short:        "Add players to their teams",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			players, err := loadPlayers(args[0])
			if err != nil {
				return err
			}
			return runAddPlayers(cmd.Context(), logger, cfg, players)
		},
	}
	var playerTeam, playerPosition string
	playersListCmd := &cobra.Command{
		Use:          "list",
		Short:        "List players, optionally by team or position",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runListPlayers(cmd.Context(), cfg, playerTeam, playerPosition)
		},
	}
	playersListCmd.Flags().StringVar(&playerTeam, "team", "", "Only players on this team id")
	playersListCmd.Flags().StringVar(&playerPosition, "position", "", "Only players in this position (GK, DF, MF, FW)")
	playersCmd.AddCommand(playersAddCmd, playersListCmd)

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Record goals, assists, cards and substitutions",
	}
	eventsAddCmd := &cobra.Command{
		Use:          "add <events.yaml>",
		Short:        "Record match events",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			events, err := loadEvents(args[0])
			if err != nil {
				return err
			}
			return runAddEvents(cmd.Context(), logger, cfg, events)
		},
	}
	eventsCmd.AddCommand(eventsAddCmd)

	var statsLimit int
	statsCmd := &cobra.Command{
		Use:          "stats <scorers|assists|yellow-cards|red-cards>",
		Short:        "Show a player leaderboard",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runStats(cmd.Context(), cfg, args[0], statsLimit)
		},
	}
	statsCmd.Flags().IntVar(&statsLimit, "limit", 5, "Number of players to show (0 for all)")

	rootCmd.AddCommand(initCmd, scheduleCmd, resultsCmd, standingsCmd, fixturesCmd, playersCmd, eventsCmd, statsCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# League Configuration
# ====================
# This file defines the parameters for generating a fixture list.

league:
  name: "Premier Division"

  # The roster below must have exactly this many teams (an even number).
  team_count: 4

  # Double round-robin plays every opponent home and away.
  double_round: true

  # "round_robin" lists every pairing; "circle" builds balanced rounds
  # with alternating home and away.
  strategy: round_robin

  # Matchdays default to one per round (N-1, or 2(N-1) for a double round)
  # and each matchday holds up to N/2 fixtures.
  # matchdays: 6
  # capacity: 2

  # Treat two fixtures at one venue on the same matchday as a clash.
  avoid_venue_clash: false

  # The scheduler shuffles pairings and keeps the attempt with the fewest
  # forced placements. A seed of 0 is derived from the start date.
  attempts: 25
  seed: 0

season:
  start_date: "2026-08-01"
  timezone: "Europe/London"

# Each matchday is played over a three-day weekend starting on
# start_weekday. Offsets count days from that weekday; interval is minutes
# between consecutive kickoffs. Omit days for the default Friday 19:00,
# Saturday 12:00 and Sunday 13:00 layout.
kickoffs:
  start_weekday: friday
  days:
    - {offset: 0, start: "19:00", count: 2, interval: 60}
    - {offset: 1, start: "12:00", count: 5, interval: 120}
    - {offset: 2, start: "13:00", count: 2, interval: 120}

teams:
  - {id: ARS, name: Arsenal, venue: Emirates Stadium}
  - {id: CHE, name: Chelsea, venue: Stamford Bridge}
  - {id: LIV, name: Liverpool, venue: Anfield}
  - {id: TOT, name: Tottenham Hotspur, venue: Tottenham Hotspur Stadium}

# Results and standings are stored here. MATCHDAY_DB_DRIVER and
# MATCHDAY_DB_DSN (also read from .env) override these settings.
database:
  driver: sqlite
  dsn: matchday.db
`
