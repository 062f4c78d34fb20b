package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for a demacross run.
type Config struct {
	Symbol   string         `yaml:"symbol"`
	Data     DataConfig     `yaml:"data"`
	Strategy StrategyConfig `yaml:"strategy"`
	Backtest BacktestConfig `yaml:"backtest"`
	Store    StoreConfig    `yaml:"store"`
	Chart    ChartConfig    `yaml:"chart"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
}

// DataConfig selects the market-data source and the fetch window.
type DataConfig struct {
	// Source is the bar loader to use: "alpaca" (default) or "stooq".
	Source string `yaml:"source"`
	// Years is the trailing window length in calendar years.
	Years int `yaml:"years"`
	// Feed is the Alpaca data feed ("sip" or "iex").
	Feed string `yaml:"feed"`
	// Adjustment is the Alpaca price adjustment: "raw", "split", "dividend"
	// or "all". The default "all" feeds adjusted prices to the indicators;
	// switching to "raw" changes the effective series.
	Adjustment string `yaml:"adjustment"`
}

// StrategyConfig holds the strategy selection and its parameters.
type StrategyConfig struct {
	Name         string  `yaml:"name"`
	FastPeriod   int     `yaml:"fast_period"`
	SlowPeriod   int     `yaml:"slow_period"`
	ATRPeriod    int     `yaml:"atr_period"`
	ATRSMAPeriod int     `yaml:"atr_sma_period"`
	TrendPeriod  int     `yaml:"trend_period"`
	OrderPct     float64 `yaml:"order_pct"`
}

// BacktestConfig defines the simulated account.
type BacktestConfig struct {
	InitialCash    float64 `yaml:"initial_cash"`
	CommissionRate float64 `yaml:"commission_rate"`
}

// StoreConfig configures the run ledger database. The default DSN ":memory:"
// keeps the ledger entirely in process; nothing touches disk.
type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// ChartConfig controls the post-run report server.
type ChartConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Alpaca holds credentials and endpoints for the Alpaca APIs.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
}

// ---------------------------------------------------------------------------
// Defaults and loading
// ---------------------------------------------------------------------------

// Default returns the built-in configuration. Running the binary with no
// arguments and no config file uses exactly these values.
func Default() *Config {
	return &Config{
		Symbol: "AAPL",
		Data: DataConfig{
			Source:     "alpaca",
			Years:      2,
			Feed:       "sip",
			Adjustment: "all",
		},
		Strategy: StrategyConfig{
			Name:         "dema-cross",
			FastPeriod:   10,
			SlowPeriod:   22,
			ATRPeriod:    14,
			ATRSMAPeriod: 14,
			TrendPeriod:  200,
			OrderPct:     0.95,
		},
		Backtest: BacktestConfig{
			InitialCash:    10000,
			CommissionRate: 0.001,
		},
		Store: StoreConfig{
			DSN: ":memory:",
		},
		Chart: ChartConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8087",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load reads the YAML configuration file at the given path into a Config
// pre-populated with defaults, then applies environment variable overrides.
// An empty path skips the file and returns defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DEMACROSS_SYMBOL"); v != "" {
		cfg.Symbol = v
	}

	if v := os.Getenv("DEMACROSS_SOURCE"); v != "" {
		cfg.Data.Source = v
	}

	if v := os.Getenv("DEMACROSS_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// The SDK's canonical APCA_* names take precedence over everything else.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
