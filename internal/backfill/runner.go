package backfill

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cryptorates/internal/logger"
	"cryptorates/internal/metrics"
	"cryptorates/internal/rates"

	"github.com/google/uuid"
)

// Days a backfill request may cover.
const (
	MinDays = 1
	MaxDays = 365
)

// Runner executes backfill runs asynchronously and persists their state,
// so a run can be submitted from an HTTP request and polled afterwards.
type Runner struct {
	engine  *Engine
	catalog rates.Catalog
	runs    RunStore
	m       *metrics.Metrics

	mu  sync.Mutex
	ctx context.Context
	wg  sync.WaitGroup
}

func NewRunner(engine *Engine, catalog rates.Catalog, runs RunStore, m *metrics.Metrics) *Runner {
	return &Runner{
		engine:  engine,
		catalog: catalog,
		runs:    runs,
		m:       m,
		ctx:     context.Background(),
	}
}

// SetContext installs the lifecycle context run goroutines inherit.
// Called once at startup, before the HTTP server begins accepting.
func (r *Runner) SetContext(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
}

// Submit validates and enqueues a backfill run, returning its pending
// record immediately. The work happens on a background goroutine.
func (r *Runner) Submit(days int, pair string) (Run, error) {
	if days < MinDays || days > MaxDays {
		return Run{}, fmt.Errorf("days must be between %d and %d, got %d", MinDays, MaxDays, days)
	}
	pair = strings.TrimSpace(pair)
	if pair != "" {
		if _, ok := r.catalog.Symbol(pair); !ok {
			return Run{}, fmt.Errorf("unknown pair %q", pair)
		}
	}

	now := time.Now().UTC()
	run := Run{
		ID:        uuid.New().String(),
		Mode:      ModeBackfill,
		Status:    RunStatusPending,
		Days:      days,
		Pair:      pair,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()

	if err := r.runs.CreateRun(ctx, run); err != nil {
		return Run{}, fmt.Errorf("persisting run: %w", err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(ctx, run)
	}()
	return run, nil
}

// RunGapFill executes one synchronous gap-fill pass and records it as a
// run, so scheduled passes show up in the run history too.
func (r *Runner) RunGapFill(ctx context.Context) (Result, error) {
	now := time.Now().UTC()
	run := Run{
		ID:        uuid.New().String(),
		Mode:      ModeGapFill,
		Status:    RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.runs.CreateRun(ctx, run); err != nil {
		logger.Warnf("gapfill: cannot persist run record: %v", err)
	}

	result, err := r.engine.ReconcileAll(ctx)
	r.finish(ctx, run, result, err)
	return result, err
}

// GetRun looks up a run by id.
func (r *Runner) GetRun(ctx context.Context, id string) (Run, bool, error) {
	return r.runs.GetRun(ctx, id)
}

// ListRuns returns the most recent runs.
func (r *Runner) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	return r.runs.ListRuns(ctx, limit)
}

// Wait blocks until every in-flight run goroutine has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) execute(ctx context.Context, run Run) {
	run.Status = RunStatusRunning
	run.UpdatedAt = time.Now().UTC()
	if err := r.runs.UpdateRun(ctx, run); err != nil {
		logger.Warnf("backfill: cannot mark run %s running: %v", run.ID, err)
	}
	logger.Infof("backfill: run %s started, days=%d pair=%q", run.ID, run.Days, run.Pair)

	result, err := r.engine.Backfill(ctx, run.Days, run.Pair)
	r.finish(ctx, run, result, err)
}

func (r *Runner) finish(ctx context.Context, run Run, result Result, err error) {
	run.TotalInserted = result.TotalInserted
	run.PairsProcessed = result.PairsProcessed
	run.Warnings = result.Warnings
	run.StartDate = result.StartDate
	run.EndDate = result.EndDate
	run.UpdatedAt = time.Now().UTC()

	outcome := "ok"
	if err != nil {
		run.Status = RunStatusFailed
		run.Message = err.Error()
		outcome = "error"
		logger.Errorf("%s: run %s failed: %v", run.Mode, run.ID, err)
	} else {
		run.Status = RunStatusDone
		logger.Infof("%s: run %s done, inserted=%d pairs=%d warnings=%d",
			run.Mode, run.ID, run.TotalInserted, len(run.PairsProcessed), len(run.Warnings))
	}
	if r.m != nil {
		r.m.RunsTotal.WithLabelValues(run.Mode, outcome).Inc()
	}
	if uerr := r.runs.UpdateRun(ctx, run); uerr != nil {
		logger.Warnf("%s: cannot persist final state of run %s: %v", run.Mode, run.ID, uerr)
	}
}
