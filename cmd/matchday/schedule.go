package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/derekprior/matchday/internal/config"
	"github.com/derekprior/matchday/internal/excel"
	"github.com/derekprior/matchday/internal/schedule"
	"github.com/derekprior/matchday/internal/store"
	"github.com/derekprior/matchday/internal/strategy"
	"github.com/derekprior/matchday/internal/validator"
)

type generateOptions struct {
	outputPath string
	save       bool
	seed       int64 // overrides the config seed when non-zero
}

func runGenerate(ctx context.Context, logger zerolog.Logger, cfg *config.Config, opts generateOptions) error {
	strat, err := strategy.Get(cfg.League.Strategy)
	if err != nil {
		return err
	}

	pairings, err := strat.GeneratePairings(cfg.Roster(), cfg.League.DoubleRound)
	if err != nil {
		return err
	}

	assignOpts := cfg.AssignOptions()
	if opts.seed != 0 {
		assignOpts.Seed = opts.seed
	}
	start, err := cfg.StartTime()
	if err != nil {
		return err
	}

	fmt.Printf("Scheduling %d pairings into %d matchdays of up to %d fixtures...\n",
		len(pairings), assignOpts.Matchdays, assignOpts.Capacity)

	result, err := schedule.Build(pairings, assignOpts, start, cfg.Template())
	if err != nil {
		return err
	}
	logger.Debug().Int64("seed", result.Seed).Int("attempts", assignOpts.Attempts).Msg("assignment chosen")

	if len(result.Relaxed) == 0 {
		fmt.Printf("✓ All %d fixtures placed without clashes\n", len(result.Fixtures))
	} else {
		fmt.Printf("⚠ %d of %d fixtures force-placed\n", len(result.Relaxed), len(result.Fixtures))
		for _, p := range result.Relaxed {
			logger.Warn().Str("home", p.Home).Str("away", p.Away).Msg("pairing placed ignoring clash rules")
		}
	}

	fmt.Println("\nPer Team Metrics:")
	fmt.Printf("  %-12s %6s %5s %5s %4s %4s %4s %8s\n", "Team", "Games", "Home", "Away", "Fri", "Sat", "Sun", "Clashes")
	for _, team := range cfg.Roster() {
		m, ok := result.TeamMetrics[team.ID]
		if !ok {
			m = &schedule.TeamMetrics{}
		}
		fmt.Printf("  %-12s %6d %5d %5d %4d %4d %4d %8d\n", team.ID, m.Games, m.Home, m.Away,
			m.ByWeekday[time.Friday], m.ByWeekday[time.Saturday], m.ByWeekday[time.Sunday], m.Clashes)
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nGuideline violations (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	} else {
		fmt.Println("\n✓ No guideline violations")
	}

	f, err := excel.Generate(cfg, result.Fixtures)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(opts.outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Fixture list saved to %s\n", opts.outputPath)

	if !opts.save {
		return nil
	}
	return saveSeason(ctx, logger, cfg, start, result)
}

func saveSeason(ctx context.Context, logger zerolog.Logger, cfg *config.Config, start time.Time, result *schedule.Result) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveTeams(ctx, cfg.Roster()); err != nil {
		return err
	}
	season := store.NewSeason(cfg.League.Name, start, result.Seed)
	saved, err := st.SaveSeason(ctx, season, result.Fixtures)
	if err != nil {
		return err
	}
	logger.Debug().Str("season_id", season.ID).Int("fixtures", len(saved)).Msg("season saved")

	fmt.Printf("✓ Saved %d fixtures to the %s database\n", len(saved), cfg.Database.Driver)
	return nil
}

func runValidate(cfg *config.Config, schedulePath string) error {
	violations, err := validator.Validate(cfg, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Rule violation: %s\n", v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Guideline violation: %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d guideline violations\n", errors, warnings)

	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}
