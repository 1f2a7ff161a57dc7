package config

import (
	"fmt"
	"strings"
)

// ValidIntervals mirrors the kline intervals the upstream API accepts for
// this pipeline.
var ValidIntervals = []string{"1m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d"}

// IsValidInterval reports whether interval is in the supported set.
func IsValidInterval(interval string) bool {
	for _, v := range ValidIntervals {
		if v == interval {
			return true
		}
	}
	return false
}

func validate(c *Config) error {
	if c.Binance.Driver != DriverSDK && c.Binance.Driver != DriverREST {
		return fmt.Errorf("binance.driver must be %q or %q, got %q", DriverSDK, DriverREST, c.Binance.Driver)
	}
	if !IsValidInterval(c.Rates.Interval) {
		return fmt.Errorf("rates.interval %q not supported, expected one of %s",
			c.Rates.Interval, strings.Join(ValidIntervals, ", "))
	}
	if c.Rates.ChunkDays > 30 {
		return fmt.Errorf("rates.chunk_days %d too large, a chunk must stay under the upstream item cap", c.Rates.ChunkDays)
	}
	if fields := len(strings.Fields(c.Rates.UpdateCron)); fields != 5 {
		return fmt.Errorf("rates.update_cron %q must be a 5-field cron expression", c.Rates.UpdateCron)
	}
	return nil
}
