// Package analytics computes post-run statistics over a backtest's equity
// curve and trade ledger: annualized Sharpe ratio, maximum drawdown, and
// win-rate figures, plus the formatting of the final summary line.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"demacross/internal/domain"
)

// tradingDaysPerYear annualizes the daily Sharpe ratio.
const tradingDaysPerYear = 252

// DailyReturns computes the simple percentage return between each pair of
// consecutive equity samples. The result has one fewer element than the
// curve.
func DailyReturns(curve []domain.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		returns = append(returns, curve[i].Equity/curve[i-1].Equity-1)
	}
	return returns
}

// SharpeRatio returns the annualized Sharpe ratio of the equity curve and
// reports whether it is defined. The daily ratio of mean return to sample
// standard deviation is scaled by sqrt(252); it is undefined with fewer than
// two return periods or when the returns never vary.
func SharpeRatio(curve []domain.EquityPoint) (float64, bool) {
	returns := DailyReturns(curve)
	if len(returns) < 2 {
		return 0, false
	}
	mean := stat.Mean(returns, nil)
	sd := stat.StdDev(returns, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0, false
	}
	return mean / sd * math.Sqrt(tradingDaysPerYear), true
}

// MaxDrawdown returns the largest peak-to-trough decline of the equity curve
// as a positive percentage. A curve that never declines has zero drawdown.
func MaxDrawdown(curve []domain.EquityPoint) float64 {
	var peak, worst float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Equity) / peak * 100
		if dd > worst {
			worst = dd
		}
	}
	return worst
}

// TradeStats summarizes the closed round trips of a run. ProfitFactor is
// gross profit over gross loss, or zero when the run had no losing trades.
type TradeStats struct {
	Total        int     `json:"total"`
	Won          int     `json:"won"`
	Lost         int     `json:"lost"`
	WinRate      float64 `json:"win_rate"`
	GrossProfit  float64 `json:"gross_profit"`
	GrossLoss    float64 `json:"gross_loss"`
	ProfitFactor float64 `json:"profit_factor"`
}

// SummarizeTrades counts wins and losses over the closed trades. A trade is
// won when its net profit after commission is strictly positive. The win
// rate is zero when no trades closed.
func SummarizeTrades(trades []domain.ClosedTrade) TradeStats {
	stats := TradeStats{Total: len(trades)}
	for _, t := range trades {
		if t.NetPnL > 0 {
			stats.Won++
			stats.GrossProfit += t.NetPnL
		} else {
			stats.Lost++
			stats.GrossLoss += -t.NetPnL
		}
	}
	if stats.Total > 0 {
		rate := decimal.NewFromInt(int64(stats.Won)).
			Div(decimal.NewFromInt(int64(stats.Total))).
			Mul(decimal.NewFromInt(100))
		stats.WinRate = rate.InexactFloat64()
	}
	if stats.GrossLoss > 0 {
		stats.ProfitFactor = stats.GrossProfit / stats.GrossLoss
	}
	return stats
}
