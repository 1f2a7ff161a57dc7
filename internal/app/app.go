package app

import (
	"context"
	"fmt"
	"time"

	"cryptorates/internal/backfill"
	"cryptorates/internal/config"
	"cryptorates/internal/logger"
	"cryptorates/internal/metrics"
	"cryptorates/internal/query"
	"cryptorates/internal/rates"
	"cryptorates/internal/scheduler"
	"cryptorates/internal/source"
	"cryptorates/internal/source/binance"
	"cryptorates/internal/store/ratestore"
	rateshttp "cryptorates/internal/transport/http/rates"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// App wires every layer together from a loaded config.
type App struct {
	cfg     *config.Config
	catalog rates.Catalog
	store   *ratestore.Store
	metrics *metrics.Metrics
	engine  *backfill.Engine
	runner  *backfill.Runner
	queries *query.Service
	server  *rateshttp.Server
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger.SetLevel(cfg.App.LogLevel)

	if err := scheduler.Validate(cfg.Rates.UpdateCron); err != nil {
		return nil, err
	}

	catalog, err := rates.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	store, err := ratestore.New(cfg.Store.Path, m)
	if err != nil {
		return nil, fmt.Errorf("opening rate store: %w", err)
	}

	src, err := buildSource(cfg, m)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Limit(float64(cfg.Rates.RateLimitPerMin)/60.0), 1)
	engine := backfill.NewEngine(src, store, catalog, m, backfill.Options{
		Interval:  cfg.Rates.Interval,
		ChunkSize: time.Duration(cfg.Rates.ChunkDays) * 24 * time.Hour,
		Bootstrap: time.Duration(cfg.Rates.BootstrapHours) * time.Hour,
		Limiter:   limiter,
	})
	runner := backfill.NewRunner(engine, catalog, store, m)
	queries := query.NewService(store, src, catalog)

	server, err := rateshttp.NewServer(rateshttp.Config{
		Addr:    cfg.App.HTTPAddr,
		Queries: queries,
		Runner:  runner,
		Metrics: m,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		catalog: catalog,
		store:   store,
		metrics: m,
		engine:  engine,
		runner:  runner,
		queries: queries,
		server:  server,
	}, nil
}

func buildSource(cfg *config.Config, m *metrics.Metrics) (source.Source, error) {
	bcfg := binance.Config{
		BaseURL:     cfg.Binance.BaseURL,
		HTTPTimeout: time.Duration(cfg.Binance.TimeoutSeconds) * time.Second,
		KlinesLimit: cfg.Binance.KlinesLimit,
		ProxyURL:    cfg.Binance.ProxyURL,
	}
	var src source.Source
	switch cfg.Binance.Driver {
	case config.DriverREST:
		src = binance.NewRESTSource(bcfg)
	case config.DriverSDK:
		sdk, err := binance.NewSDKSource(bcfg)
		if err != nil {
			return nil, err
		}
		src = sdk
	default:
		return nil, fmt.Errorf("unknown binance driver %q", cfg.Binance.Driver)
	}
	return source.Chain(src,
		source.WithLogging(),
		source.WithMetrics(m),
		source.WithTimeout(bcfg.HTTPTimeout),
	), nil
}

// Run serves HTTP and the scheduled gap-fill until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	a.runner.SetContext(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Start(gctx)
	})
	g.Go(func() error {
		return scheduler.Run(gctx, a.cfg.Rates.UpdateCron, "gap-fill", func(ctx context.Context) error {
			_, err := a.runner.RunGapFill(ctx)
			return err
		})
	})

	err := g.Wait()
	a.runner.Wait()
	return err
}

// Backfill runs one synchronous backfill, for the CLI mode.
func (a *App) Backfill(ctx context.Context, days int, pair string) (backfill.Result, error) {
	if days < backfill.MinDays || days > backfill.MaxDays {
		return backfill.Result{}, fmt.Errorf("days must be between %d and %d, got %d",
			backfill.MinDays, backfill.MaxDays, days)
	}
	if pair != "" {
		if _, ok := a.catalog.Symbol(pair); !ok {
			return backfill.Result{}, fmt.Errorf("unknown pair %q", pair)
		}
	}
	return a.engine.Backfill(ctx, days, pair)
}

// Update runs one synchronous gap-fill pass, for the CLI mode.
func (a *App) Update(ctx context.Context) (backfill.Result, error) {
	return a.runner.RunGapFill(ctx)
}

func (a *App) Close() error {
	return a.store.Close()
}
