package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"frontoffice-engine/internal/classify"
	"frontoffice-engine/internal/config"
	"frontoffice-engine/internal/logger"
	"frontoffice-engine/internal/pipeline"
	"frontoffice-engine/internal/scrape/adzuna"
	"frontoffice-engine/internal/scrape/efc"
	"frontoffice-engine/internal/scrape/greenhouse"
	"frontoffice-engine/internal/scrape/icims"
	"frontoffice-engine/internal/scrape/lever"
	"frontoffice-engine/internal/scrape/taleo"
	"frontoffice-engine/internal/scrape/themuse"
	"frontoffice-engine/internal/scrape/types"
	"frontoffice-engine/internal/scrape/util"
	"frontoffice-engine/internal/scrape/workday"
	"frontoffice-engine/internal/store"
)

const version = "1.2.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

// runSync is one complete sync pass. Partial source failures never
// reach here; only configuration and store setup errors are fatal.
func runSync(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	env, err := config.FromEnv()
	if err != nil {
		return err
	}

	log, err := logger.New(env.LogLevel, env.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// One run per host at a time; an overlapping cron run on another
	// host is handled by the store's conflict-ignoring inserts instead.
	lock := flock.New(filepath.Join(os.TempDir(), "frontoffice-engine.lock"))
	held, err := lock.TryLock()
	if err == nil && !held {
		log.Warnw("another sync is already running, exiting")
		return nil
	}
	if err == nil {
		defer func() { _ = lock.Unlock() }()
	}

	srcCfg, err := config.LoadSources(env.SourcesFile)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	db, err := store.Open(env.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	limiter := util.NewHostLimiter(srcCfg.Pacing.RequestsPerSecond, srcCfg.Pacing.Burst)
	sources := buildSources(env, srcCfg, limiter, log)

	engine := pipeline.NewEngine(
		db,
		classify.Heuristic{},
		classify.NewLLM(env.AnthropicKey, env.Model, log),
		log,
	)

	log.Infow("starting front office jobs sync", "time", time.Now().UTC().Format(time.RFC3339))
	engine.Run(ctx, sources, env.Sources)

	if n, err := db.CountJobs(ctx); err == nil {
		log.Infow("jobs table size", "rows", n)
	}
	return nil
}

// buildSources wires every configured adapter; sources without their
// optional credentials are disabled with a log line, not an error.
func buildSources(env config.Env, cfg config.Sources, limiter *util.HostLimiter, log *zap.SugaredLogger) []types.Source {
	var sources []types.Source

	if len(cfg.Greenhouse.Firms) > 0 {
		sources = append(sources, greenhouse.New(cfg.Greenhouse.Firms, limiter, log))
	}
	if len(cfg.Lever.Firms) > 0 {
		sources = append(sources, lever.New(cfg.Lever.Firms, limiter, log))
	}
	if len(cfg.Workday.Firms) > 0 {
		sources = append(sources, workday.New(cfg.Workday.Firms, limiter, log))
	}
	if len(cfg.Taleo.Firms) > 0 {
		sources = append(sources, taleo.New(cfg.Taleo.Firms, limiter, log))
	}
	if len(cfg.ICIMS.Firms) > 0 {
		sources = append(sources, icims.New(cfg.ICIMS.Firms, limiter, log))
	}
	if len(cfg.EFinancialCareers.Feeds) > 0 {
		sources = append(sources, efc.New(cfg.EFinancialCareers.Feeds, limiter, log))
	}
	if len(cfg.Adzuna.Queries) > 0 {
		if env.AdzunaAppID == "" || env.AdzunaAppKey == "" {
			log.Infow("adzuna disabled: ADZUNA_APP_ID/ADZUNA_APP_KEY not set")
		} else {
			sources = append(sources, adzuna.New(env.AdzunaAppID, env.AdzunaAppKey,
				cfg.Adzuna.Country, cfg.Adzuna.Queries, limiter, log))
		}
	}
	if len(cfg.TheMuse.Categories) > 0 {
		sources = append(sources, themuse.New(cfg.TheMuse.Categories, cfg.TheMuse.MaxPages, limiter, log))
	}
	return sources
}
