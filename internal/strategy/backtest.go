package strategy

import (
	"context"
	"fmt"
	"log/slog"

	"demacross/internal/analytics"
	"demacross/internal/broker"
	"demacross/internal/domain"
	"demacross/internal/store"
)

// BacktestResult holds everything a completed run produced: the summary
// metrics, the equity curve, the trade ledger, and the fill markers that
// feed the chart.
type BacktestResult struct {
	Symbol      string
	StartValue  float64
	FinalValue  float64
	TotalReturn float64
	Sharpe      float64
	SharpeOK    bool
	MaxDrawdown float64
	Stats       analytics.TradeStats

	Bars        []domain.Bar
	EquityCurve []domain.EquityPoint
	Trades      []domain.ClosedTrade
	BuySignals  []domain.SignalRecord
	SellSignals []domain.SignalRecord
}

// Summary renders the run's single-line summary.
func (r *BacktestResult) Summary() string {
	return analytics.FormatSummary(r.FinalValue, r.Sharpe, r.SharpeOK, r.MaxDrawdown, r.Stats)
}

// Backtester replays historical bar data through a strategy and computes
// performance metrics over the simulated account.
type Backtester struct {
	store    store.RunStore
	registry *Registry
	log      *slog.Logger
}

// NewBacktester creates a Backtester that records the run in the given store
// and looks up strategies in the provided registry.
func NewBacktester(runStore store.RunStore, registry *Registry) *Backtester {
	return &Backtester{
		store:    runStore,
		registry: registry,
		log:      slog.Default().With("component", "backtester"),
	}
}

// Run executes a backtest for the named strategy over the given bars,
// starting from initialCash and charging commissionRate per fill. Each bar is
// processed in three steps: orders queued on the previous bar fill at this
// bar's open, the strategy then sees the bar and may submit one order, and
// finally the account is marked to market at the close. Any order still
// pending after the last bar is canceled.
func (bt *Backtester) Run(
	ctx context.Context,
	name string,
	bars []domain.Bar,
	initialCash float64,
	commissionRate float64,
) (*BacktestResult, error) {
	strat, ok := bt.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars to replay")
	}

	sim := broker.NewSimulatorBroker(initialCash, commissionRate, bt.store)
	sim.OnOrderEvent(strat.OnOrderEvent)

	if err := strat.Init(ctx, bars); err != nil {
		return nil, fmt.Errorf("initializing strategy %s: %w", name, err)
	}

	bt.log.Info("replaying bars",
		"strategy", name, "symbol", bars[0].Symbol, "bars", len(bars))

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sim.ProcessBar(ctx, bar); err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}

		acct, err := sim.GetAccount(ctx)
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
		order, err := strat.OnBar(ctx, i, bar, acct)
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
		if order != nil {
			if _, err := sim.SubmitOrder(ctx, order); err != nil {
				return nil, fmt.Errorf("bar %d: %w", i, err)
			}
		}

		sim.MarkToMarket(bar)
	}

	// An order submitted on the final bar has no next open to fill at.
	if err := sim.CancelAll(ctx); err != nil {
		return nil, err
	}

	curve := sim.EquityCurve()
	trades := sim.ClosedTrades()
	sharpe, sharpeOK := analytics.SharpeRatio(curve)

	buys, err := bt.store.ListSignals(ctx, domain.OrderSideBuy)
	if err != nil {
		return nil, fmt.Errorf("reading buy signals: %w", err)
	}
	sells, err := bt.store.ListSignals(ctx, domain.OrderSideSell)
	if err != nil {
		return nil, fmt.Errorf("reading sell signals: %w", err)
	}

	result := &BacktestResult{
		Symbol:      bars[0].Symbol,
		StartValue:  initialCash,
		FinalValue:  curve[len(curve)-1].Equity,
		TotalReturn: (curve[len(curve)-1].Equity/initialCash - 1) * 100,
		Sharpe:      sharpe,
		SharpeOK:    sharpeOK,
		MaxDrawdown: analytics.MaxDrawdown(curve),
		Stats:       analytics.SummarizeTrades(trades),
		Bars:        bars,
		EquityCurve: curve,
		Trades:      trades,
		BuySignals:  buys,
		SellSignals: sells,
	}

	bt.log.Info("backtest complete",
		"strategy", name,
		"final_value", result.FinalValue,
		"trades", result.Stats.Total,
		"max_drawdown_pct", result.MaxDrawdown)
	return result, nil
}
