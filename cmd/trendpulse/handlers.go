package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/madushan-jaya-sri/trendpulse/internal/config"
	"github.com/madushan-jaya-sri/trendpulse/internal/logging"
	"github.com/madushan-jaya-sri/trendpulse/internal/scheduler"
	"github.com/madushan-jaya-sri/trendpulse/internal/store"
	"github.com/madushan-jaya-sri/trendpulse/pkg/alert"
	"github.com/madushan-jaya-sri/trendpulse/pkg/server"
	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
	"github.com/madushan-jaya-sri/trendpulse/pkg/trend"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logging.New(cfg.Logging.Environment, cfg.Logging.Level)
}

func buildSources(cfg *config.Config, log zerolog.Logger) []source.Source {
	filter := source.NewFilter(cfg.Filter.Keywords, cfg.Filter.ExcludeKeywords)

	var sources []source.Source
	if cfg.Sources.SearchTrends.Enabled {
		sources = append(sources, source.NewSearchTrends(
			cfg.Sources.SearchTrends.APIKey,
			cfg.Sources.SearchTrends.Geo,
			filter, log,
		))
	}
	if cfg.Sources.Video.Enabled {
		sources = append(sources, source.NewVideo(
			cfg.Sources.Video.APIKey,
			cfg.Sources.Video.Region,
			cfg.Sources.Video.CategoryID,
			cfg.Sources.Video.MaxResults,
			filter, log,
		))
	}
	if cfg.Sources.ShortVideo.Enabled {
		sources = append(sources, source.NewShortVideo(
			cfg.Sources.ShortVideo.APIToken,
			cfg.Sources.ShortVideo.Country,
			cfg.Sources.ShortVideo.Limit,
			filter, log,
		))
	}

	return sources
}

func buildRankOptions(cfg *config.Config) (trend.Options, error) {
	strategy, err := trend.ParseStrategy(cfg.Scoring.Strategy)
	if err != nil {
		return trend.Options{}, err
	}
	return trend.Options{
		Strategy: strategy,
		Window:   cfg.Scoring.ParseWindow(),
		Limit:    cfg.Scoring.Limit,
	}, nil
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runCollect(filterPlatforms []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	allSources := buildSources(cfg, log)

	// Filter to requested platforms only.
	var sources []source.Source
	if len(filterPlatforms) > 0 {
		wanted := make(map[string]bool)
		for _, p := range filterPlatforms {
			wanted[strings.ToLower(strings.TrimSpace(p))] = true
		}
		for _, s := range allSources {
			if wanted[string(s.Name())] {
				sources = append(sources, s)
			}
		}
		if len(sources) == 0 {
			return fmt.Errorf("no matching platforms for: %s", strings.Join(filterPlatforms, ", "))
		}
	} else {
		sources = allSources
	}

	ctx := context.Background()
	total := 0

	for _, src := range sources {
		log.Info().Str("platform", string(src.Name())).Msg("collecting")
		records, err := src.Collect(ctx)
		if err != nil {
			log.Error().Err(err).Str("platform", string(src.Name())).Msg("collect failed")
			continue
		}

		if err := db.UpsertRecords(ctx, records); err != nil {
			log.Error().Err(err).Str("platform", string(src.Name())).Msg("store failed")
			continue
		}

		log.Info().Str("platform", string(src.Name())).Int("records", len(records)).Msg("collected")
		total += len(records)
	}

	fmt.Fprintf(os.Stderr, "total: %d records from %d platforms\n", total, len(sources))
	return nil
}

func runRank(jsonOutput bool, strategy, window string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	opts, err := buildRankOptions(cfg)
	if err != nil {
		return err
	}
	if strategy != "" {
		s, err := trend.ParseStrategy(strategy)
		if err != nil {
			return err
		}
		opts.Strategy = s
	}
	if window != "" {
		d, err := time.ParseDuration(window)
		if err != nil {
			return fmt.Errorf("invalid window %q: %w", window, err)
		}
		opts.Window = d
	}
	if limit > 0 {
		opts.Limit = limit
	}

	ctx := context.Background()

	records, err := db.ListRecords(ctx, store.ListOpts{
		Since: time.Now().Add(-24 * time.Hour),
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	if _, previous, err := db.LatestRun(ctx); err == nil {
		opts.Previous = previous
	}

	engine := trend.NewEngine(log)
	result, err := engine.Rank(records, opts)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	windowStr := ""
	if opts.Window > 0 {
		windowStr = opts.Window.String()
	}
	if err := db.SaveRun(ctx, windowStr, result); err != nil {
		log.Error().Err(err).Msg("save run failed")
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Trends) == 0 {
		fmt.Println("no trends found (try collecting data first: trendpulse collect)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSCORE\tCHANGE\tPLATFORM\tTYPE\tTITLE")
	for i, t := range result.Trends {
		change := "new"
		if !t.New && t.ScoreChange != nil {
			change = fmt.Sprintf("%+.2f", *t.ScoreChange)
		}
		fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\t%s\t%s\n",
			i+1, t.FinalScore, change, t.Platform, t.EntityType, t.Title)
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	opts, err := buildRankOptions(cfg)
	if err != nil {
		return err
	}

	engine := trend.NewEngine(log)
	sources := buildSources(cfg, log)

	srv := server.New(db, engine, sources, opts, port, log)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	opts, err := buildRankOptions(cfg)
	if err != nil {
		return err
	}

	engine := trend.NewEngine(log)
	sources := buildSources(cfg, log)
	alertMgr := buildAlertManager(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(db, sources, engine, alertMgr,
		cfg.Schedule.ParseCollectInterval(),
		cfg.Schedule.ParseRankInterval(),
		opts,
		cfg.Scoring.AlertScore,
		log,
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("scheduler error")
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
	}()

	srv := server.New(db, engine, sources, opts, port, log)
	return srv.ListenAndServe()
}
