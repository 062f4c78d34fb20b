package demacross

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"demacross/internal/analytics"
	"demacross/internal/domain"
	"demacross/internal/report"
	"demacross/internal/store"
	"demacross/internal/strategy"
)

func reportFixture() *strategy.BacktestResult {
	entry := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return &strategy.BacktestResult{
		Symbol:      "TEST",
		StartValue:  10000,
		FinalValue:  10500,
		TotalReturn: 5,
		Sharpe:      1.5,
		SharpeOK:    true,
		MaxDrawdown: 2.25,
		Stats:       analytics.TradeStats{Total: 1, Won: 1, WinRate: 100},
		Trades: []domain.ClosedTrade{
			{
				Symbol:     "TEST",
				Qty:        94,
				EntryTime:  entry,
				EntryPrice: 100,
				ExitTime:   entry.AddDate(0, 0, 10),
				ExitPrice:  105.5,
				PnL:        517,
				NetPnL:     497.5,
				Commission: 19.5,
			},
		},
	}
}

func TestClientSummary(t *testing.T) {
	srv := httptest.NewServer(report.NewServer(reportFixture()).Handler())
	defer srv.Close()

	// Trailing slash must not produce a double-slash request path.
	c := NewClient(srv.URL + "/")
	got, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if got.Symbol != "TEST" {
		t.Errorf("got symbol %q, want TEST", got.Symbol)
	}
	if got.FinalValue != 10500 {
		t.Errorf("got final value %v, want 10500", got.FinalValue)
	}
	if got.Sharpe == nil || *got.Sharpe != 1.5 {
		t.Errorf("got sharpe %v, want 1.5", got.Sharpe)
	}
	if got.Stats.Total != 1 || got.Stats.WinRate != 100 {
		t.Errorf("got stats %+v, want 1 trade at 100%% win rate", got.Stats)
	}
	if !strings.HasPrefix(got.Summary, "Final Value: 10500.00") {
		t.Errorf("got summary %q, want Final Value prefix", got.Summary)
	}
}

func TestClientTrades(t *testing.T) {
	srv := httptest.NewServer(report.NewServer(reportFixture()).Handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	raw, err := c.Trades(context.Background())
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}

	trades, err := store.ReadTradesParquet(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].Qty != 94 || trades[0].ExitPrice != 105.5 {
		t.Errorf("got trade %+v, want qty 94 exit 105.5", trades[0])
	}
}

func TestClientNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Summary(context.Background()); err == nil {
		t.Fatal("Summary should fail on a 404 response")
	}
	if _, err := c.Trades(context.Background()); err == nil {
		t.Fatal("Trades should fail on a 404 response")
	}
}
