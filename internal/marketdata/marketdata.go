// Package marketdata fetches the daily OHLCV history that a backtest runs
// over. Two sources are supported: the Alpaca market-data API (default) and
// the stooq.com CSV endpoint, which needs no credentials.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"demacross/internal/config"
	"demacross/internal/domain"
)

// Loader fetches the daily bar history for one symbol over a time range.
// Implementations return bars sorted by ascending timestamp.
type Loader interface {
	// Name returns the loader identifier.
	Name() string
	// LoadBars performs a single fetch of daily bars in [start, end].
	LoadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// Window returns the trailing fetch range: years calendar years ending at
// end. A non-positive years falls back to 2.
func Window(end time.Time, years int) (time.Time, time.Time) {
	if years <= 0 {
		years = 2
	}
	return end.AddDate(-years, 0, 0), end
}

// Fetch selects the configured source, resolves the trailing window, and
// loads the full bar history for cfg.Symbol. An empty result is an error;
// there is no retry and no partial-results path, so any failure here ends
// the run.
func Fetch(ctx context.Context, cfg *config.Config) ([]domain.Bar, error) {
	var (
		loader Loader
		end    time.Time
	)

	switch cfg.Data.Source {
	case "", "alpaca":
		day, err := LatestFinishedTradingDay(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("resolving latest trading day: %w", err)
		}
		end = day
		loader = NewAlpacaLoader(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Data.Feed, cfg.Data.Adjustment)
	case "stooq":
		end = time.Now().UTC()
		loader = NewStooqLoader()
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}

	start, end := Window(end, cfg.Data.Years)
	return load(ctx, loader, cfg.Symbol, start, end)
}

// load performs the single fetch and turns an empty result into an error.
func load(ctx context.Context, loader Loader, symbol string, start, end time.Time) ([]domain.Bar, error) {
	bars, err := loader.LoadBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no data for %s from %s", symbol, loader.Name())
	}
	return bars, nil
}
