package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cryptorates/internal/source"

	"github.com/adshao/go-binance/v2"
)

// SDKSource implements source.Source on the go-binance spot SDK.
type SDKSource struct {
	cfg    Config
	client *binance.Client
}

func NewSDKSource(cfg Config) (*SDKSource, error) {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	client.BaseURL = final.BaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyURL != "" {
		proxyURL, err := url.Parse(final.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &SDKSource{cfg: final, client: client}, nil
}

func (s *SDKSource) Name() string { return "binance-sdk" }

func (s *SDKSource) FetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]source.Kline, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	interval = strings.ToLower(strings.TrimSpace(interval))
	if symbol == "" || interval == "" {
		return nil, fmt.Errorf("symbol and interval are required")
	}
	svc := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(s.cfg.KlinesLimit)
	kls, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]source.Kline, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, source.Kline{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      kl.Open,
			High:      kl.High,
			Low:       kl.Low,
			Close:     kl.Close,
			Volume:    kl.Volume,
		})
	}
	return out, nil
}

func (s *SDKSource) FetchPrice(ctx context.Context, symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range prices {
		if p != nil && strings.EqualFold(p.Symbol, symbol) {
			return p.Price, nil
		}
	}
	return "", fmt.Errorf("price not found for %s", symbol)
}

var _ source.Source = (*SDKSource)(nil)
