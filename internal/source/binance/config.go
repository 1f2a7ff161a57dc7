package binance

import (
	"strings"
	"time"
)

type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
	KlinesLimit int
	ProxyURL    string
}

func (c *Config) withDefaults() Config {
	out := *c
	out.BaseURL = strings.TrimSpace(out.BaseURL)
	if out.BaseURL == "" {
		out.BaseURL = "https://api.binance.com"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 10 * time.Second
	}
	if out.KlinesLimit <= 0 || out.KlinesLimit > 1000 {
		out.KlinesLimit = 1000
	}
	out.ProxyURL = strings.TrimSpace(out.ProxyURL)
	return out
}
