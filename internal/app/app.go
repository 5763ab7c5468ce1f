// Package app wires the routing engine and its collaborators and exposes the
// operational modes:
//
//   - Serve mode: Miniflux webhook receiver plus stats and budget endpoints
//   - Poll mode: RSS/Atom feed poller
//
// Either mode runs the same engine; only the ingestion surface differs.
package app

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"newsgate/internal/core/budget"
	"newsgate/internal/core/domain"
	"newsgate/internal/enrich/stagea"
	"newsgate/internal/ingest/poller"
	"newsgate/internal/ingest/webhook"
	"newsgate/internal/platform/config"
	"newsgate/internal/platform/observability"
	"newsgate/internal/process/dedup"
	"newsgate/internal/process/filters"
	"newsgate/internal/process/router"
	"newsgate/internal/process/score"
	"newsgate/internal/storage"
)

// App holds the application dependencies and provides methods to run the
// operational modes.
type App struct {
	cfg      *config.Config
	database *storage.DB
	engine   *router.Engine
	budget   *budget.Manager
	analyzer *stagea.Client
	logger   *zerolog.Logger
}

// New builds the engine from configuration. database may be nil when no
// Postgres DSN is configured.
func New(cfg *config.Config, database *storage.DB, logger *zerolog.Logger) (*App, error) {
	rules := filters.DefaultRules()

	if cfg.FilterRulesPath != "" {
		loaded, err := filters.LoadRules(cfg.FilterRulesPath)
		if err != nil {
			return nil, err
		}

		rules = loaded

		logger.Info().Str("path", cfg.FilterRulesPath).Msg("Loaded filter rules")
	}

	rules.MinLength = cfg.MinContentLength

	budgetMgr := budget.NewManager(budget.Limits{
		DailyCalls: cfg.DailyCallCap,
		TierCalls: map[domain.Tier]int{
			domain.TierFull:   cfg.FullTierCallCap,
			domain.TierMedium: cfg.MediumTierCallCap,
		},
		DailyBudgetCents: cfg.DailyBudgetCents,
	}, cfg.BudgetLocation(), logger)

	engine := router.New(
		filters.New(rules),
		dedup.NewIndex(cfg.SimilarityThreshold, cfg.LookbackWindow(), logger),
		budgetMgr,
		score.New(score.DefaultDeskWeights(), score.DefaultTypeWeights()),
		router.Thresholds{Full: cfg.FullThreshold, Medium: cfg.MediumThreshold},
		router.Costs{FullCents: cfg.FullTierCostCents, MediumCents: cfg.MediumTierCostCents},
		logger,
	)

	analyzer := stagea.New(cfg.StageAURL, cfg.StageAAPIKey, cfg.StageATimeout, cfg.StageARPS, logger)

	return &App{
		cfg:      cfg,
		database: database,
		engine:   engine,
		budget:   budgetMgr,
		analyzer: analyzer,
		logger:   logger,
	}, nil
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	var pinger observability.Pinger
	if a.database != nil {
		pinger = a.database
	}

	return observability.NewServer(pinger, a.cfg.HealthPort, a.logger).Start(ctx)
}

// RunServe runs the webhook ingestion surface until ctx is canceled. When
// feeds are also configured, the poller runs alongside it so both surfaces
// share one engine and one duplicate index.
func (a *App) RunServe(ctx context.Context) error {
	configEcho := map[string]any{
		"min_content_length":   a.cfg.MinContentLength,
		"similarity_threshold": a.cfg.SimilarityThreshold,
		"lookback_window_days": a.cfg.LookbackWindowDays,
		"full_threshold":       a.cfg.FullThreshold,
		"medium_threshold":     a.cfg.MediumThreshold,
	}

	srv := webhook.NewServer(a.engine, a.budget, a.database, a.analyzer, a.cfg.ListenAddr, configEcho, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(ctx)
	})

	if len(a.cfg.FeedURLs) > 0 {
		g.Go(func() error {
			return a.RunPoll(ctx)
		})
	}

	return g.Wait()
}

// RunPoll runs the feed poller until ctx is canceled.
func (a *App) RunPoll(ctx context.Context) error {
	p := poller.New(poller.Config{
		FeedURLs:         a.cfg.FeedURLs,
		Interval:         a.cfg.PollInterval,
		FetchFullContent: a.cfg.FetchFullContent,
		FetchTimeout:     a.cfg.FetchTimeout,
	}, a.engine, a.database, a.analyzer, a.logger)

	return p.Run(ctx)
}
