package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"cryptorates/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	klines  []Kline
	err     error
	delay   time.Duration
	calls   int
	lastCtx context.Context
}

func (f *fakeSource) FetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]Kline, error) {
	f.calls++
	f.lastCtx = ctx
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.klines, f.err
}

func (f *fakeSource) FetchPrice(ctx context.Context, symbol string) (string, error) {
	f.calls++
	return "1.0", f.err
}

func (f *fakeSource) Name() string { return "fake" }

func TestChainForwardsUnchanged(t *testing.T) {
	inner := &fakeSource{klines: []Kline{{OpenTime: 1000, Close: "42.5"}}}
	src := Chain(inner, WithLogging(), WithMetrics(metrics.New()), WithTimeout(time.Second))

	out, err := src.FetchKlines(context.Background(), "BTCEUR", "5m", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "42.5", out[0].Close)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "fake", src.Name())
}

func TestChainForwardsErrors(t *testing.T) {
	want := errors.New("exchange down")
	inner := &fakeSource{err: want}
	src := Chain(inner, WithMetrics(metrics.New()), WithLogging())

	_, err := src.FetchKlines(context.Background(), "BTCEUR", "5m", time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, want)

	_, err = src.FetchPrice(context.Background(), "BTCEUR")
	assert.ErrorIs(t, err, want)
}

func TestWithTimeoutCancelsSlowCalls(t *testing.T) {
	inner := &fakeSource{delay: 200 * time.Millisecond}
	src := Chain(inner, WithTimeout(20*time.Millisecond))

	_, err := src.FetchKlines(context.Background(), "BTCEUR", "5m", time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeoutAttachesDeadline(t *testing.T) {
	inner := &fakeSource{}
	src := Chain(inner, WithTimeout(time.Minute))

	_, err := src.FetchKlines(context.Background(), "BTCEUR", "5m", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	_, ok := inner.lastCtx.Deadline()
	assert.True(t, ok)
}
