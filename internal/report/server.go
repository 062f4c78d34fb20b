// Package report serves the post-run report over HTTP: the signal chart at
// the root, a JSON summary, and a Parquet export of the closed trades.
package report

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"demacross/internal/analytics"
	"demacross/internal/chart"
	"demacross/internal/domain"
	"demacross/internal/store"
	"demacross/internal/strategy"
)

// SummaryResponse is the JSON body served at /api/summary.
type SummaryResponse struct {
	Symbol      string               `json:"symbol"`
	StartValue  float64              `json:"start_value"`
	FinalValue  float64              `json:"final_value"`
	TotalReturn float64              `json:"total_return_pct"`
	Sharpe      *float64             `json:"sharpe"` // null when undefined
	MaxDrawdown float64              `json:"max_drawdown_pct"`
	Stats       analytics.TradeStats `json:"stats"`
	Trades      []domain.ClosedTrade `json:"trades"`
	Summary     string               `json:"summary"`
}

// Server serves the report for one finished backtest run.
type Server struct {
	result *strategy.BacktestResult
	log    *slog.Logger
}

// NewServer creates a report server for the given result.
func NewServer(result *strategy.BacktestResult) *Server {
	return &Server{
		result: result,
		log:    slog.Default().With("component", "report"),
	}
}

// RegisterRoutes registers the report routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleChart)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/trades.parquet", s.handleTrades)
}

// Handler returns an http.Handler serving the report routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	res := s.result
	if err := chart.Render(w, res.Symbol, res.Bars, res.BuySignals, res.SellSignals); err != nil {
		s.log.Error("rendering chart", "error", err)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res := s.result

	var sharpe *float64
	if res.SharpeOK {
		sharpe = &res.Sharpe
	}

	trades := res.Trades
	if trades == nil {
		trades = []domain.ClosedTrade{}
	}

	writeJSON(w, SummaryResponse{
		Symbol:      res.Symbol,
		StartValue:  res.StartValue,
		FinalValue:  res.FinalValue,
		TotalReturn: res.TotalReturn,
		Sharpe:      sharpe,
		MaxDrawdown: res.MaxDrawdown,
		Stats:       res.Stats,
		Trades:      trades,
		Summary:     res.Summary(),
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="trades.parquet"`)
	if err := store.WriteTradesParquet(w, s.result.Trades); err != nil {
		s.log.Error("writing trade export", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}
