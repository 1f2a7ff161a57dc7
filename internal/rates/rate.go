package rates

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxPairLength bounds the public pair identifier ("EUR/BTC" style).
const MaxPairLength = 10

// maxFractionDigits matches the DECIMAL(20,8) column the rates live in.
const maxFractionDigits = 8

// Rate is one observed price point. Rows are insert-only: never updated,
// never deleted by the ingestion path.
type Rate struct {
	Pair       string          `json:"pair"`
	Value      decimal.Decimal `json:"rate"`
	ObservedAt time.Time       `json:"timestamp"`
	RecordedAt time.Time       `json:"-"`
}

// ParseValue converts an upstream decimal string into an exact value.
// Prices never pass through a binary float; the string from the exchange is
// what gets stored.
func ParseValue(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, fmt.Errorf("empty price")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if !v.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price must be positive, got %s", raw)
	}
	if v.Exponent() < -maxFractionDigits {
		return decimal.Decimal{}, fmt.Errorf("price %s exceeds %d fractional digits", raw, maxFractionDigits)
	}
	return v, nil
}

// ObservedFromMillis converts an upstream open-time (milliseconds since
// epoch) to the stored second-precision UTC timestamp. The sub-second part
// is truncated, not rounded.
func ObservedFromMillis(ms int64) (time.Time, error) {
	if ms <= 0 {
		return time.Time{}, fmt.Errorf("invalid upstream timestamp %d", ms)
	}
	return time.Unix(ms/1000, 0).UTC(), nil
}

// ValidatePair checks the public pair identifier shape.
func ValidatePair(pair string) error {
	if pair == "" {
		return fmt.Errorf("pair cannot be empty")
	}
	if len(pair) > MaxPairLength {
		return fmt.Errorf("pair %q exceeds %d characters", pair, MaxPairLength)
	}
	return nil
}
