package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	alpacadata "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"demacross/internal/domain"
)

// Compile-time interface check.
var _ Loader = (*AlpacaLoader)(nil)

// AlpacaLoader fetches daily bars for US equities via the Alpaca market-data
// API.
type AlpacaLoader struct {
	client     *alpacadata.Client
	feed       string
	adjustment string
	log        *slog.Logger
}

// NewAlpacaLoader creates an AlpacaLoader with the given credentials, data
// endpoint, feed, and price adjustment. An empty dataURL uses the SDK
// default endpoint.
func NewAlpacaLoader(apiKey, apiSecret, dataURL, feed, adjustment string) *AlpacaLoader {
	opts := alpacadata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaLoader{
		client:     alpacadata.NewClient(opts),
		feed:       feed,
		adjustment: adjustment,
		log:        slog.Default().With("loader", "alpaca"),
	}
}

// Name returns the loader identifier.
func (l *AlpacaLoader) Name() string { return "alpaca" }

// LoadBars fetches daily bars for symbol in [start, end] with a single API
// call and normalizes them to domain bars sorted by timestamp.
func (l *AlpacaLoader) LoadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req := alpacadata.GetBarsRequest{
		TimeFrame: alpacadata.OneDay,
		Start:     start,
		End:       end,
	}
	if l.feed != "" {
		req.Feed = alpacadata.Feed(l.feed)
	}
	if l.adjustment != "" {
		req.Adjustment = alpacadata.Adjustment(l.adjustment)
	}

	alpacaBars, err := l.client.GetBars(symbol, req)
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	bars := convertAlpacaBars(symbol, alpacaBars)
	l.log.Debug("loaded bars", "symbol", symbol, "count", len(bars))
	return bars, nil
}

// convertAlpacaBars maps SDK bars onto domain bars, uppercasing the symbol
// and sorting ascending by timestamp.
func convertAlpacaBars(symbol string, alpacaBars []alpacadata.Bar) []domain.Bar {
	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:     strings.ToUpper(symbol),
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     ab.Volume,
			TradeCount: ab.TradeCount,
			VWAP:       ab.VWAP,
		})
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars
}
