package source

import (
	"context"
	"time"

	"cryptorates/internal/logger"
	"cryptorates/internal/metrics"
)

// Middleware wraps a Source with one observation layer. Every layer calls
// the next one, observes duration/outcome, and forwards the result
// unchanged.
type Middleware func(Source) Source

// Chain applies middlewares so the first listed one ends up outermost.
func Chain(src Source, mws ...Middleware) Source {
	for i := len(mws) - 1; i >= 0; i-- {
		src = mws[i](src)
	}
	return src
}

type metricsSource struct {
	next Source
	m    *metrics.Metrics
}

// WithMetrics records fetch duration and outcome per operation.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next Source) Source {
		return &metricsSource{next: next, m: m}
	}
}

func (s *metricsSource) FetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]Kline, error) {
	began := time.Now()
	out, err := s.next.FetchKlines(ctx, symbol, interval, start, end)
	s.m.ObserveFetch(s.next.Name(), "klines", began, err)
	return out, err
}

func (s *metricsSource) FetchPrice(ctx context.Context, symbol string) (string, error) {
	began := time.Now()
	out, err := s.next.FetchPrice(ctx, symbol)
	s.m.ObserveFetch(s.next.Name(), "price", began, err)
	return out, err
}

func (s *metricsSource) Name() string { return s.next.Name() }

type loggingSource struct {
	next Source
}

// WithLogging emits a debug line per upstream call and an error line per
// failure.
func WithLogging() Middleware {
	return func(next Source) Source {
		return &loggingSource{next: next}
	}
}

func (s *loggingSource) FetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]Kline, error) {
	out, err := s.next.FetchKlines(ctx, symbol, interval, start, end)
	if err != nil {
		logger.Errorf("[%s] klines %s %s [%s,%s] failed: %v", s.next.Name(), symbol, interval,
			start.Format(time.RFC3339), end.Format(time.RFC3339), err)
		return nil, err
	}
	logger.Debugf("[%s] klines %s %s [%s,%s] -> %d records", s.next.Name(), symbol, interval,
		start.Format(time.RFC3339), end.Format(time.RFC3339), len(out))
	return out, nil
}

func (s *loggingSource) FetchPrice(ctx context.Context, symbol string) (string, error) {
	price, err := s.next.FetchPrice(ctx, symbol)
	if err != nil {
		logger.Errorf("[%s] price %s failed: %v", s.next.Name(), symbol, err)
		return "", err
	}
	logger.Debugf("[%s] price %s = %s", s.next.Name(), symbol, price)
	return price, nil
}

func (s *loggingSource) Name() string { return s.next.Name() }

type timeoutSource struct {
	next Source
	d    time.Duration
}

// WithTimeout bounds every upstream call. A hung exchange request must not
// block a whole run.
func WithTimeout(d time.Duration) Middleware {
	return func(next Source) Source {
		return &timeoutSource{next: next, d: d}
	}
}

func (s *timeoutSource) FetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]Kline, error) {
	if s.d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.d)
		defer cancel()
	}
	return s.next.FetchKlines(ctx, symbol, interval, start, end)
}

func (s *timeoutSource) FetchPrice(ctx context.Context, symbol string) (string, error) {
	if s.d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.d)
		defer cancel()
	}
	return s.next.FetchPrice(ctx, symbol)
}

func (s *timeoutSource) Name() string { return s.next.Name() }
