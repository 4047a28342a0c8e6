package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/madushan-jaya-sri/trendpulse/internal/store"
	"github.com/madushan-jaya-sri/trendpulse/pkg/alert"
	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
	"github.com/madushan-jaya-sri/trendpulse/pkg/trend"
)

// Scheduler runs periodic collection and ranking.
type Scheduler struct {
	store      store.Store
	sources    []source.Source
	engine     *trend.Engine
	alertMgr   *alert.Manager
	collectInt time.Duration
	rankInt    time.Duration
	rankOpts   trend.Options
	alertScore float64
	alerted    map[string]bool // entities alerted this process
	log        zerolog.Logger
}

// New creates a new scheduler.
func New(
	s store.Store,
	sources []source.Source,
	engine *trend.Engine,
	alertMgr *alert.Manager,
	collectInt, rankInt time.Duration,
	rankOpts trend.Options,
	alertScore float64,
	log zerolog.Logger,
) *Scheduler {
	if collectInt == 0 {
		collectInt = 30 * time.Minute
	}
	if rankInt == 0 {
		rankInt = time.Hour
	}
	if alertScore == 0 {
		alertScore = 80
	}
	return &Scheduler{
		store:      s,
		sources:    sources,
		engine:     engine,
		alertMgr:   alertMgr,
		collectInt: collectInt,
		rankInt:    rankInt,
		rankOpts:   rankOpts,
		alertScore: alertScore,
		alerted:    make(map[string]bool),
		log:        log.With().Str("component", "scheduler").Logger(),
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	collectTicker := time.NewTicker(s.collectInt)
	rankTicker := time.NewTicker(s.rankInt)
	defer collectTicker.Stop()
	defer rankTicker.Stop()

	// Run immediately on start.
	s.log.Info().Msg("initial collection")
	s.collectAll(ctx)
	s.log.Info().Msg("initial ranking")
	s.rankAndAlert(ctx)

	s.log.Info().
		Dur("collect_interval", s.collectInt).
		Dur("rank_interval", s.rankInt).
		Msg("scheduler running")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-collectTicker.C:
			s.collectAll(ctx)
		case <-rankTicker.C:
			s.rankAndAlert(ctx)
		}
	}
}

func (s *Scheduler) collectAll(ctx context.Context) {
	total := 0
	for _, src := range s.sources {
		records, err := src.Collect(ctx)
		if err != nil {
			s.log.Error().Err(err).Str("source", string(src.Name())).Msg("collect failed")
			continue
		}

		if err := s.store.UpsertRecords(ctx, records); err != nil {
			s.log.Error().Err(err).Str("source", string(src.Name())).Msg("store failed")
			continue
		}

		s.log.Info().Str("source", string(src.Name())).Int("records", len(records)).Msg("collected")
		total += len(records)
	}
	s.log.Info().Int("total", total).Msg("collection complete")
}

func (s *Scheduler) rankAndAlert(ctx context.Context) {
	records, err := s.store.ListRecords(ctx, store.ListOpts{
		Since: time.Now().Add(-24 * time.Hour),
		Limit: 1000,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("load records failed")
		return
	}
	if len(records) == 0 {
		return
	}

	opts := s.rankOpts
	if _, previous, err := s.store.LatestRun(ctx); err == nil {
		opts.Previous = previous
	}

	result, err := s.engine.Rank(records, opts)
	if err != nil {
		s.log.Error().Err(err).Msg("ranking failed")
		return
	}

	window := ""
	if opts.Window > 0 {
		window = opts.Window.String()
	}
	if err := s.store.SaveRun(ctx, window, result); err != nil {
		s.log.Error().Err(err).Msg("save run failed")
	}

	if !s.alertMgr.HasNotifiers() {
		return
	}

	for _, t := range result.Trends {
		if t.FinalScore < s.alertScore {
			continue
		}
		key := string(t.Platform) + "|" + t.ID
		if s.alerted[key] {
			continue
		}

		if err := s.alertMgr.Broadcast(ctx, alert.FromTrend(t)); err != nil {
			s.log.Error().Err(err).Str("title", t.Title).Msg("alert failed")
			continue
		}

		s.alerted[key] = true
		s.log.Info().Str("title", t.Title).Float64("score", t.FinalScore).Msg("alerted")
	}
}
