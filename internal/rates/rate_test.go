package rates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "typical close price", raw: "98606.12345678", want: "98606.12345678"},
		{name: "integer price", raw: "45000", want: "45000"},
		{name: "small price", raw: "0.00000001", want: "0.00000001"},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "not-a-number", wantErr: true},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-12.5", wantErr: true},
		{name: "too many fraction digits", raw: "1.123456789", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestObservedFromMillis(t *testing.T) {
	// 1700000000123 ms: the sub-second part must be truncated, not rounded.
	got, err := ObservedFromMillis(1700000000123)
	assert.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), got)
	assert.Equal(t, time.UTC, got.Location())

	// 999 ms rounds down to the epoch second it belongs to.
	got, err = ObservedFromMillis(1700000000999)
	assert.NoError(t, err)
	assert.Equal(t, int64(1700000000), got.Unix())

	_, err = ObservedFromMillis(0)
	assert.Error(t, err)
	_, err = ObservedFromMillis(-5)
	assert.Error(t, err)
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog(map[string]string{
		"EUR/BTC": "BTCEUR",
		"EUR/ETH": "etheur",
		"EUR/LTC": "LTCEUR",
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	// Entries are sorted by pair so runs are deterministic.
	assert.Equal(t, []string{"EUR/BTC", "EUR/ETH", "EUR/LTC"}, c.Pairs())

	sym, ok := c.Symbol("EUR/ETH")
	assert.True(t, ok)
	assert.Equal(t, "ETHEUR", sym)

	_, ok = c.Symbol("EUR/DOGE")
	assert.False(t, ok)
}

func TestNewCatalogRejectsBadEntries(t *testing.T) {
	_, err := NewCatalog(nil)
	assert.Error(t, err)

	_, err = NewCatalog(map[string]string{"EUR/BITCOINX": "BTCEUR"})
	assert.Error(t, err, "pair over 10 chars")

	_, err = NewCatalog(map[string]string{"EUR/BTC": "  "})
	assert.Error(t, err, "missing symbol")
}
