package ratestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cryptorates/internal/backfill"
	"cryptorates/internal/metrics"
	"cryptorates/internal/rates"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "rates.db"), metrics.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustRate(t *testing.T, pair, value string, observed time.Time) rates.Rate {
	t.Helper()
	v, err := rates.ParseValue(value)
	require.NoError(t, err)
	return rates.Rate{Pair: pair, Value: v, ObservedAt: observed}
}

func TestInsertBatchDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	batch := []rates.Rate{
		mustRate(t, "EUR/BTC", "98606.12345678", base),
		mustRate(t, "EUR/BTC", "98650.5", base.Add(5*time.Minute)),
		mustRate(t, "EUR/ETH", "3456.78", base),
	}
	inserted, err := s.InsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	// Re-inserting the same batch is a no-op.
	inserted, err = s.InsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	// A mixed batch only counts the genuinely new row.
	mixed := []rates.Rate{
		mustRate(t, "EUR/BTC", "98606.12345678", base),
		mustRate(t, "EUR/BTC", "98700.0", base.Add(10*time.Minute)),
	}
	inserted, err = s.InsertBatch(ctx, mixed)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	count, err := s.CountFor(ctx, "EUR/BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestInsertBatchRejectsInvalidPair(t *testing.T) {
	s := newTestStore(t)
	longPair := rates.Rate{
		Pair:       "EUR/BITCOIN",
		Value:      decimal.NewFromInt(1),
		ObservedAt: time.Unix(1700000000, 0).UTC(),
	}
	_, err := s.InsertBatch(context.Background(), []rates.Rate{longPair})
	assert.Error(t, err)
}

func TestExistsAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	observed := time.Unix(1700000000, 0).UTC()

	ok, err := s.ExistsAt(ctx, "EUR/BTC", observed)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.InsertBatch(ctx, []rates.Rate{mustRate(t, "EUR/BTC", "98606.1", observed)})
	require.NoError(t, err)

	ok, err = s.ExistsAt(ctx, "EUR/BTC", observed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ExistsAt(ctx, "EUR/ETH", observed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLatestFor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	latest, err := s.LatestFor(ctx, "EUR/BTC")
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Unix(1700000000, 0).UTC()
	_, err = s.InsertBatch(ctx, []rates.Rate{
		mustRate(t, "EUR/BTC", "98500.0", base),
		mustRate(t, "EUR/BTC", "98606.12345678", base.Add(time.Hour)),
		mustRate(t, "EUR/ETH", "3456.78", base.Add(2*time.Hour)),
	})
	require.NoError(t, err)

	latest, err = s.LatestFor(ctx, "EUR/BTC")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, base.Add(time.Hour), latest.ObservedAt)
	assert.Equal(t, "98606.12345678", latest.Value.String())
}

func TestRangeOrderingAndBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	var batch []rates.Rate
	for i := 0; i < 5; i++ {
		batch = append(batch, mustRate(t, "EUR/BTC", "100.1", base.Add(time.Duration(i)*5*time.Minute)))
	}
	_, err := s.InsertBatch(ctx, batch)
	require.NoError(t, err)

	rows, err := s.Range(ctx, "EUR/BTC", base.Add(5*time.Minute), base.Add(15*time.Minute))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].ObservedAt.After(rows[i-1].ObservedAt))
	}

	// Reversed bounds are swapped rather than returning nothing.
	rows, err = s.Range(ctx, "EUR/BTC", base.Add(15*time.Minute), base.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestPrecisionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	observed := time.Unix(1700000000, 0).UTC()

	_, err := s.InsertBatch(ctx, []rates.Rate{mustRate(t, "EUR/BTC", "98606.12345678", observed)})
	require.NoError(t, err)

	rows, err := s.Range(ctx, "EUR/BTC", observed, observed)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "98606.12345678", rows[0].Value.String())
	assert.Equal(t, observed, rows[0].ObservedAt)
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	run := backfill.Run{
		ID:        "d5d2cf5e-3bcf-43f6-9ef1-0e5c3ad79a62",
		Mode:      backfill.ModeBackfill,
		Status:    backfill.RunStatusPending,
		Days:      7,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateRun(ctx, run))

	got, found, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, backfill.RunStatusPending, got.Status)
	assert.Equal(t, 7, got.Days)

	run.Status = backfill.RunStatusDone
	run.TotalInserted = 2016
	run.PairsProcessed = []string{"EUR/BTC", "EUR/ETH"}
	run.Warnings = []string{"skipped 1 malformed kline for EUR/ETH"}
	run.StartDate = "2026-08-24"
	run.EndDate = "2026-08-31"
	require.NoError(t, s.UpdateRun(ctx, run))

	got, found, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, backfill.RunStatusDone, got.Status)
	assert.Equal(t, 2016, got.TotalInserted)
	assert.Equal(t, []string{"EUR/BTC", "EUR/ETH"}, got.PairsProcessed)
	assert.Len(t, got.Warnings, 1)

	_, found, err = s.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	ids := []string{"run-a", "run-b", "run-c"}
	for i, id := range ids {
		run := backfill.Run{
			ID:        id,
			Mode:      backfill.ModeGapFill,
			Status:    backfill.RunStatusDone,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.CreateRun(ctx, run))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
}
