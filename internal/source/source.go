package source

import (
	"context"
	"errors"
	"time"
)

// Kline is one interval record from the upstream API. Prices stay decimal
// strings exactly as the exchange returned them; the ingestion path only
// consumes OpenTime and Close.
type Kline struct {
	OpenTime  int64 // milliseconds since epoch
	CloseTime int64
	Open      string
	High      string
	Low       string
	Close     string
	Volume    string
}

// Source is the upstream price boundary.
type Source interface {
	// FetchKlines returns interval records covering [start, end] for one
	// exchange symbol, bounded by the client's configured item limit.
	FetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]Kline, error)

	// FetchPrice returns the current spot price for one symbol as a
	// decimal string.
	FetchPrice(ctx context.Context, symbol string) (string, error)

	Name() string
}

// ErrUpstreamStatus marks a non-2xx reply from the exchange; callers treat
// it like any other fetch failure at the per-pair boundary.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")
