package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cryptorates/internal/rates"
)

// ErrUnknownPair marks a request for a pair outside the catalog.
var ErrUnknownPair = errors.New("unknown pair")

// Store is the read side of the rate store the service needs.
type Store interface {
	Range(ctx context.Context, pair string, from, to time.Time) ([]rates.Rate, error)
}

// PriceSource serves the live ticker price for an upstream symbol.
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (string, error)
}

// Dataset is one chart series in the shape the frontend plots directly.
type Dataset struct {
	Label           string   `json:"label"`
	Data            []string `json:"data"`
	BorderColor     string   `json:"borderColor"`
	BackgroundColor string   `json:"backgroundColor"`
	Fill            bool     `json:"fill"`
	Tension         float64  `json:"tension"`
}

// Chart bundles labels and series.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// CurrentPayload is the live-price response.
type CurrentPayload struct {
	Pair      string `json:"pair"`
	Rate      string `json:"rate"`
	Timestamp string `json:"timestamp"`
}

// Payload is the response for every chart endpoint.
type Payload struct {
	Pair  string `json:"pair"`
	Date  string `json:"date,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Count int    `json:"count"`
	Chart Chart  `json:"chart"`
}

// Service turns stored rates into chart payloads.
type Service struct {
	store   Store
	prices  PriceSource
	catalog rates.Catalog
	nowFn   func() time.Time
}

func NewService(store Store, prices PriceSource, catalog rates.Catalog) *Service {
	return &Service{store: store, prices: prices, catalog: catalog, nowFn: time.Now}
}

// Pairs lists the pairs the service can chart.
func (s *Service) Pairs() []string {
	return s.catalog.Pairs()
}

// CurrentPrice fetches the live ticker price for a pair straight from the
// upstream, bypassing the store.
func (s *Service) CurrentPrice(ctx context.Context, pair string) (CurrentPayload, error) {
	if err := s.checkPair(pair); err != nil {
		return CurrentPayload{}, err
	}
	if s.prices == nil {
		return CurrentPayload{}, errors.New("no price source configured")
	}
	symbol, _ := s.catalog.Symbol(pair)
	raw, err := s.prices.FetchPrice(ctx, symbol)
	if err != nil {
		return CurrentPayload{}, fmt.Errorf("fetching price for %s: %w", pair, err)
	}
	value, err := rates.ParseValue(raw)
	if err != nil {
		return CurrentPayload{}, fmt.Errorf("upstream price for %s: %w", pair, err)
	}
	return CurrentPayload{
		Pair:      pair,
		Rate:      value.String(),
		Timestamp: s.nowFn().UTC().Format(time.RFC3339),
	}, nil
}

// Last24Hours charts the trailing 24 hours for a pair.
func (s *Service) Last24Hours(ctx context.Context, pair string) (Payload, error) {
	if err := s.checkPair(pair); err != nil {
		return Payload{}, err
	}
	now := s.nowFn().UTC()
	from := now.Add(-24 * time.Hour)
	rows, err := s.store.Range(ctx, pair, from, now)
	if err != nil {
		return Payload{}, err
	}
	payload := s.build(pair, rows, "Jan-02 15:04")
	payload.From = from.Format(time.RFC3339)
	payload.To = now.Format(time.RFC3339)
	return payload, nil
}

// Day charts one calendar day (UTC) for a pair.
func (s *Service) Day(ctx context.Context, pair, date string) (Payload, error) {
	if err := s.checkPair(pair); err != nil {
		return Payload{}, err
	}
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return Payload{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}
	rows, err := s.store.Range(ctx, pair, day, day.Add(24*time.Hour-time.Second))
	if err != nil {
		return Payload{}, err
	}
	payload := s.build(pair, rows, "15:04")
	payload.Date = date
	return payload, nil
}

// RangeBetween charts an arbitrary [from, to] window for a pair.
func (s *Service) RangeBetween(ctx context.Context, pair string, from, to time.Time) (Payload, error) {
	if err := s.checkPair(pair); err != nil {
		return Payload{}, err
	}
	if to.Before(from) {
		return Payload{}, fmt.Errorf("range end %s before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	rows, err := s.store.Range(ctx, pair, from, to)
	if err != nil {
		return Payload{}, err
	}
	format := "15:04"
	if to.Sub(from) > 24*time.Hour {
		format = "Jan-02 15:04"
	}
	payload := s.build(pair, rows, format)
	payload.From = from.UTC().Format(time.RFC3339)
	payload.To = to.UTC().Format(time.RFC3339)
	return payload, nil
}

func (s *Service) checkPair(pair string) error {
	if _, ok := s.catalog.Symbol(pair); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPair, pair)
	}
	return nil
}

func (s *Service) build(pair string, rows []rates.Rate, labelFormat string) Payload {
	labels := make([]string, 0, len(rows))
	data := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.ObservedAt.UTC().Format(labelFormat))
		data = append(data, r.Value.String())
	}
	return Payload{
		Pair:  pair,
		Count: len(rows),
		Chart: Chart{
			Labels: labels,
			Datasets: []Dataset{{
				Label:           "Exchange Rate",
				Data:            data,
				BorderColor:     "#007bff",
				BackgroundColor: "rgba(0, 123, 255, 0.1)",
				Fill:            false,
				Tension:         0.1,
			}},
		},
	}
}
