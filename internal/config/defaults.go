package config

import "strings"

const (
	DriverSDK  = "sdk"
	DriverREST = "rest"
)

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8080"
	}
	if c.Binance.Driver == "" {
		c.Binance.Driver = DriverSDK
	}
	c.Binance.Driver = strings.ToLower(strings.TrimSpace(c.Binance.Driver))
	if c.Binance.BaseURL == "" {
		c.Binance.BaseURL = "https://api.binance.com"
	}
	if c.Binance.KlinesLimit <= 0 {
		c.Binance.KlinesLimit = 1000
	}
	if c.Binance.TimeoutSeconds <= 0 {
		c.Binance.TimeoutSeconds = 10
	}
	if c.Rates.Interval == "" {
		c.Rates.Interval = "5m"
	}
	if c.Rates.ChunkDays <= 0 {
		// 1000-item cap at 5m interval is ~3.4 days; 3 leaves headroom.
		c.Rates.ChunkDays = 3
	}
	if c.Rates.BootstrapHours <= 0 {
		c.Rates.BootstrapHours = 24
	}
	if c.Rates.RateLimitPerMin <= 0 {
		// One request every ~100ms.
		c.Rates.RateLimitPerMin = 600
	}
	if c.Rates.UpdateCron == "" {
		c.Rates.UpdateCron = "*/5 * * * *"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/rates.db"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "configs/pairs.yaml"
	}
}
