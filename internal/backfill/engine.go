package backfill

import (
	"context"
	"fmt"
	"time"

	"cryptorates/internal/logger"
	"cryptorates/internal/metrics"
	"cryptorates/internal/rates"
	"cryptorates/internal/source"

	"golang.org/x/time/rate"
)

// Store is the slice of the rate store the engine needs.
type Store interface {
	LatestFor(ctx context.Context, pair string) (*rates.Rate, error)
	InsertBatch(ctx context.Context, rows []rates.Rate) (int, error)
}

// Result summarizes one backfill or gap-fill run. StartDate and EndDate
// echo the requested range, not the range of rows actually written.
type Result struct {
	TotalInserted  int      `json:"total_inserted"`
	PairsProcessed []string `json:"pairs_processed"`
	Warnings       []string `json:"warnings,omitempty"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
}

// Options tunes the engine. Zero values fall back to sane defaults.
type Options struct {
	Interval  string
	ChunkSize time.Duration
	Bootstrap time.Duration
	Limiter   *rate.Limiter
}

// Engine walks the catalog, fetches klines per pair in chunks and writes
// them through the deduplicating store. Failures on one pair never stop
// the others.
type Engine struct {
	src       source.Source
	store     Store
	catalog   rates.Catalog
	interval  string
	chunk     time.Duration
	bootstrap time.Duration
	limiter   *rate.Limiter
	m         *metrics.Metrics
	nowFn     func() time.Time
}

func NewEngine(src source.Source, store Store, catalog rates.Catalog, m *metrics.Metrics, opts Options) *Engine {
	if opts.Interval == "" {
		opts.Interval = "5m"
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 3 * 24 * time.Hour
	}
	if opts.Bootstrap <= 0 {
		opts.Bootstrap = 24 * time.Hour
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
	}
	return &Engine{
		src:       src,
		store:     store,
		catalog:   catalog,
		interval:  opts.Interval,
		chunk:     opts.ChunkSize,
		bootstrap: opts.Bootstrap,
		limiter:   opts.Limiter,
		m:         m,
		nowFn:     time.Now,
	}
}

// Backfill loads daysBack days of history ending now. When targetPair is
// non-empty only that pair is loaded, otherwise the whole catalog.
func (e *Engine) Backfill(ctx context.Context, daysBack int, targetPair string) (Result, error) {
	end := e.nowFn().UTC()
	start := end.AddDate(0, 0, -daysBack)
	result := Result{
		PairsProcessed: []string{},
		StartDate:      start.Format("2006-01-02"),
		EndDate:        end.Format("2006-01-02"),
	}

	entries := e.catalog.Entries()
	if targetPair != "" {
		// A pair outside the catalog resolves to nothing to do, not an
		// error; the CLI and HTTP layers reject it before it gets here.
		entries = nil
		if symbol, ok := e.catalog.Symbol(targetPair); ok {
			entries = []rates.Entry{{Pair: targetPair, Symbol: symbol}}
		} else {
			logger.Warnf("backfill: pair %q not in catalog, nothing to do", targetPair)
		}
	}

	for _, entry := range entries {
		inserted, err := e.fetchRange(ctx, entry, start, end, &result)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Errorf("backfill: pair %s failed: %v", entry.Pair, err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", entry.Pair, err))
			if e.m != nil {
				e.m.PairFailures.WithLabelValues(entry.Pair).Inc()
			}
			continue
		}
		result.TotalInserted += inserted
		result.PairsProcessed = append(result.PairsProcessed, entry.Pair)
	}
	return result, nil
}

// ReconcilePair fills the gap between the pair's latest stored row and
// now. A pair with no rows bootstraps from the configured lookback.
func (e *Engine) ReconcilePair(ctx context.Context, pair string) (int, error) {
	symbol, ok := e.catalog.Symbol(pair)
	if !ok {
		return 0, fmt.Errorf("unknown pair %q", pair)
	}
	latest, err := e.store.LatestFor(ctx, pair)
	if err != nil {
		return 0, err
	}
	end := e.nowFn().UTC()
	var start time.Time
	if latest != nil {
		start = latest.ObservedAt
	} else {
		start = end.Add(-e.bootstrap)
	}
	var sink Result
	return e.fetchRange(ctx, rates.Entry{Pair: pair, Symbol: symbol}, start, end, &sink)
}

// ReconcileAll runs ReconcilePair across the catalog. A pair that fails
// is logged, counted and skipped; the rest still run.
func (e *Engine) ReconcileAll(ctx context.Context) (Result, error) {
	end := e.nowFn().UTC()
	result := Result{
		PairsProcessed: []string{},
		StartDate:      end.Format("2006-01-02"),
		EndDate:        end.Format("2006-01-02"),
	}
	for _, entry := range e.catalog.Entries() {
		inserted, err := e.ReconcilePair(ctx, entry.Pair)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Errorf("gapfill: pair %s failed: %v", entry.Pair, err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", entry.Pair, err))
			if e.m != nil {
				e.m.PairFailures.WithLabelValues(entry.Pair).Inc()
			}
			continue
		}
		result.TotalInserted += inserted
		result.PairsProcessed = append(result.PairsProcessed, entry.Pair)
	}
	return result, nil
}

// fetchRange pulls [start, end) for one pair chunk by chunk. Re-running
// over already stored spans is harmless: the store drops duplicates and
// they are simply not counted.
func (e *Engine) fetchRange(ctx context.Context, entry rates.Entry, start, end time.Time, result *Result) (int, error) {
	if !start.Before(end) {
		return 0, nil
	}
	total := 0
	for _, span := range SplitRange(start, end, e.chunk) {
		if err := e.limiter.Wait(ctx); err != nil {
			return total, err
		}
		klines, err := e.src.FetchKlines(ctx, entry.Symbol, e.interval, span.From, span.To)
		if err != nil {
			return total, fmt.Errorf("fetching %s %s..%s: %w",
				entry.Symbol, span.From.Format(time.RFC3339), span.To.Format(time.RFC3339), err)
		}
		batch := make([]rates.Rate, 0, len(klines))
		for _, k := range klines {
			observed, err := rates.ObservedFromMillis(k.OpenTime)
			if err != nil {
				e.warn(result, "%s: skipping kline: %v", entry.Pair, err)
				continue
			}
			value, err := rates.ParseValue(k.Close)
			if err != nil {
				e.warn(result, "%s: skipping kline at %d: %v", entry.Pair, k.OpenTime, err)
				continue
			}
			batch = append(batch, rates.Rate{Pair: entry.Pair, Value: value, ObservedAt: observed})
		}
		inserted, err := e.store.InsertBatch(ctx, batch)
		if err != nil {
			return total, fmt.Errorf("storing %s: %w", entry.Pair, err)
		}
		total += inserted
		if e.m != nil {
			e.m.AddInserted(entry.Pair, inserted)
		}
		logger.Debugf("backfill: %s %s..%s fetched=%d inserted=%d",
			entry.Pair, span.From.Format(time.RFC3339), span.To.Format(time.RFC3339), len(klines), inserted)
	}
	return total, nil
}

func (e *Engine) warn(result *Result, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warnf("backfill: %s", msg)
	if result != nil {
		result.Warnings = append(result.Warnings, msg)
	}
}
