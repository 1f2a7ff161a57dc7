package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cryptorates/internal/source"

	"github.com/tidwall/gjson"
)

// RESTSource talks to the spot REST API directly. Klines come back as
// positional arrays: index 0 is the open time in milliseconds, index 4 the
// close price as a decimal string.
type RESTSource struct {
	cfg    Config
	client *http.Client
}

func NewRESTSource(cfg Config) *RESTSource {
	final := cfg.withDefaults()
	return &RESTSource{
		cfg:    final,
		client: &http.Client{Timeout: final.HTTPTimeout},
	}
}

func (r *RESTSource) Name() string { return "binance-rest" }

func (r *RESTSource) FetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]source.Kline, error) {
	if symbol == "" || interval == "" {
		return nil, fmt.Errorf("symbol and interval are required")
	}
	u, err := url.Parse(r.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	u.Path = "/api/v3/klines"
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	q.Set("limit", strconv.Itoa(r.cfg.KlinesLimit))
	u.RawQuery = q.Encode()

	body, err := r.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	rows := gjson.ParseBytes(body).Array()
	out := make([]source.Kline, 0, len(rows))
	for _, row := range rows {
		cols := row.Array()
		if len(cols) < 7 {
			continue
		}
		out = append(out, source.Kline{
			OpenTime:  cols[0].Int(),
			Open:      cols[1].String(),
			High:      cols[2].String(),
			Low:       cols[3].String(),
			Close:     cols[4].String(),
			Volume:    cols[5].String(),
			CloseTime: cols[6].Int(),
		})
	}
	return out, nil
}

func (r *RESTSource) FetchPrice(ctx context.Context, symbol string) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	u, err := url.Parse(r.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	u.Path = "/api/v3/ticker/price"
	q := u.Query()
	q.Set("symbol", symbol)
	u.RawQuery = q.Encode()

	body, err := r.get(ctx, u.String())
	if err != nil {
		return "", err
	}
	price := gjson.GetBytes(body, "price")
	if !price.Exists() || price.String() == "" {
		return "", fmt.Errorf("price not found in response for %s", symbol)
	}
	return price.String(), nil
}

func (r *RESTSource) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", source.ErrUpstreamStatus, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var _ source.Source = (*RESTSource)(nil)
