package analytics

import "fmt"

// FormatSharpe formats a Sharpe ratio, or "n/a" when the run could not
// produce one.
func FormatSharpe(sharpe float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", sharpe)
}

// FormatSummary renders the single summary line printed after a run.
func FormatSummary(finalValue, sharpe float64, sharpeOK bool, drawdown float64, stats TradeStats) string {
	return fmt.Sprintf("Final Value: %.2f, Sharpe: %s, Drawdown: %.2f%%, Trades: %d, Win Rate: %.2f%%",
		finalValue, FormatSharpe(sharpe, sharpeOK), drawdown, stats.Total, stats.WinRate)
}
