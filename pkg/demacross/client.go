// Package demacross provides a small Go client for the report API a
// demacross run serves after the backtest finishes.
package demacross

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TradeStats mirrors the aggregate trade statistics in the summary response.
type TradeStats struct {
	Total        int     `json:"total"`
	Won          int     `json:"won"`
	Lost         int     `json:"lost"`
	WinRate      float64 `json:"win_rate"`
	GrossProfit  float64 `json:"gross_profit"`
	GrossLoss    float64 `json:"gross_loss"`
	ProfitFactor float64 `json:"profit_factor"`
}

// RunSummary is the decoded /api/summary response. Sharpe is nil when the
// run had too few return periods or zero variance to define one.
type RunSummary struct {
	Symbol      string     `json:"symbol"`
	StartValue  float64    `json:"start_value"`
	FinalValue  float64    `json:"final_value"`
	TotalReturn float64    `json:"total_return_pct"`
	Sharpe      *float64   `json:"sharpe"`
	MaxDrawdown float64    `json:"max_drawdown_pct"`
	Stats       TradeStats `json:"stats"`
	Summary     string     `json:"summary"`
}

// Client calls the report API of a running demacross instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the report server at baseURL, e.g.
// "http://127.0.0.1:8087".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Summary retrieves the run summary.
func (c *Client) Summary(ctx context.Context) (*RunSummary, error) {
	body, err := c.get(ctx, "/api/summary")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var summary RunSummary
	if err := json.NewDecoder(body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return &summary, nil
}

// Trades retrieves the closed-trade export as a raw Parquet document.
func (c *Client) Trades(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, "/api/trades.parquet")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (c *Client) get(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return resp.Body, nil
}
