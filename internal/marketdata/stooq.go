package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"demacross/internal/domain"
)

// Compile-time interface check.
var _ Loader = (*StooqLoader)(nil)

const stooqBaseURL = "https://stooq.com/q/d/l/"

// StooqLoader fetches daily bars from the stooq.com CSV download endpoint.
// Stooq needs no credentials, which makes it the zero-setup source for
// symbols outside the Alpaca universe. Symbols use stooq notation, e.g.
// "aapl.us".
type StooqLoader struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewStooqLoader creates a StooqLoader against the public stooq endpoint.
func NewStooqLoader() *StooqLoader {
	return &StooqLoader{
		baseURL:    stooqBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.Default().With("loader", "stooq"),
	}
}

// Name returns the loader identifier.
func (l *StooqLoader) Name() string { return "stooq" }

// LoadBars performs a single CSV download for symbol in [start, end] and
// parses it into domain bars sorted by timestamp.
func (l *StooqLoader) LoadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	q := url.Values{}
	q.Set("s", strings.ToLower(symbol))
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))
	q.Set("i", "d")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stooq returned status %d for %s", resp.StatusCode, symbol)
	}

	bars, err := parseDailyCSV(resp.Body, strings.ToUpper(symbol))
	if err != nil {
		return nil, fmt.Errorf("parsing csv for %s: %w", symbol, err)
	}

	l.log.Debug("loaded bars", "symbol", symbol, "count", len(bars))
	return bars, nil
}

// parseDailyCSV decodes the stooq daily layout, Date,Open,High,Low,Close,
// Volume with ISO dates. The header row and rows without a parseable date
// (stooq answers "No data" in the body for unknown symbols) are skipped;
// a row with a date but broken numbers is an error.
func parseDailyCSV(r io.Reader, symbol string) ([]domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	var bars []domain.Bar
	for _, rec := range records {
		if len(rec) < 5 {
			continue
		}
		ts, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			continue
		}

		open, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %s: bad open %q", rec[0], rec[1])
		}
		high, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %s: bad high %q", rec[0], rec[2])
		}
		low, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %s: bad low %q", rec[0], rec[3])
		}
		closePx, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("row %s: bad close %q", rec[0], rec[4])
		}

		// Volume is absent for indices.
		var volume uint64
		if len(rec) >= 6 && rec[5] != "" && rec[5] != "-" {
			v, err := strconv.ParseFloat(rec[5], 64)
			if err != nil {
				return nil, fmt.Errorf("row %s: bad volume %q", rec[0], rec[5])
			}
			volume = uint64(v)
		}

		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: ts.UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}
