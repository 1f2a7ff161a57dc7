package config

// Config is the top-level configuration for the rates service.
type Config struct {
	App     AppConfig     `toml:"app"`
	Binance BinanceConfig `toml:"binance"`
	Rates   RatesConfig   `toml:"rates"`
	Store   StoreConfig   `toml:"store"`
	Catalog CatalogConfig `toml:"catalog"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// BinanceConfig describes upstream access. Driver selects the SDK client
// ("sdk") or the raw REST client ("rest").
type BinanceConfig struct {
	Driver         string `toml:"driver"`
	BaseURL        string `toml:"base_url"`
	KlinesLimit    int    `toml:"klines_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ProxyURL       string `toml:"proxy_url"`
}

// RatesConfig controls the ingestion pipeline.
type RatesConfig struct {
	Interval        string `toml:"interval"`
	ChunkDays       int    `toml:"chunk_days"`
	BootstrapHours  int    `toml:"bootstrap_hours"`
	RateLimitPerMin int    `toml:"rate_limit_per_min"`
	UpdateCron      string `toml:"update_cron"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type CatalogConfig struct {
	Path string `toml:"path"`
}
