// Package builtins provides the strategy implementations that ship with
// demacross.
package builtins

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"demacross/internal/domain"
	"demacross/internal/strategy"
	"demacross/pkg/indicator"
)

// Compile-time interface check.
var _ strategy.Strategy = (*DemaCross)(nil)

// Default DemaCross parameters.
const (
	DefaultFastPeriod   = 10
	DefaultSlowPeriod   = 22
	DefaultATRPeriod    = 14
	DefaultATRSMAPeriod = 14
	DefaultTrendPeriod  = 200
	DefaultOrderPct     = 0.95
)

// DemaCrossParams configures a DemaCross strategy. Zero-valued fields fall
// back to the defaults.
type DemaCrossParams struct {
	FastPeriod   int     // fast DEMA period
	SlowPeriod   int     // slow DEMA period
	ATRPeriod    int     // true-range smoothing period
	ATRSMAPeriod int     // moving average window over the ATR series
	TrendPeriod  int     // long SMA trend filter period
	OrderPct     float64 // fraction of cash committed per entry
}

func (p DemaCrossParams) withDefaults() DemaCrossParams {
	if p.FastPeriod <= 0 {
		p.FastPeriod = DefaultFastPeriod
	}
	if p.SlowPeriod <= 0 {
		p.SlowPeriod = DefaultSlowPeriod
	}
	if p.ATRPeriod <= 0 {
		p.ATRPeriod = DefaultATRPeriod
	}
	if p.ATRSMAPeriod <= 0 {
		p.ATRSMAPeriod = DefaultATRSMAPeriod
	}
	if p.TrendPeriod <= 0 {
		p.TrendPeriod = DefaultTrendPeriod
	}
	if p.OrderPct <= 0 {
		p.OrderPct = DefaultOrderPct
	}
	return p
}

// DemaCross trades a fast/slow DEMA crossover gated by rising volatility and
// a long trend filter. It enters long when the fast DEMA crosses above the
// slow one while the ATR sits above its own moving average and the close sits
// above the long SMA; it closes the whole position on the opposite crossover
// under the same volatility gate. Each entry commits a fixed fraction of the
// available cash.
type DemaCross struct {
	params DemaCrossParams
	out    io.Writer

	symbol string
	fast   []float64
	slow   []float64
	cross  []int
	atr    []float64
	atrSMA []float64
	trend  []float64

	pending     bool
	buySignals  []domain.SignalRecord
	sellSignals []domain.SignalRecord
}

// NewDemaCross creates a DemaCross strategy. Signal and fill lines are
// written to out; a nil out writes to stdout.
func NewDemaCross(params DemaCrossParams, out io.Writer) *DemaCross {
	if out == nil {
		out = os.Stdout
	}
	return &DemaCross{params: params.withDefaults(), out: out}
}

// Name returns "dema-cross".
func (s *DemaCross) Name() string {
	return "dema-cross"
}

// Init precomputes every indicator series over the full bar history: the
// fast and slow DEMAs and their crossover, the ATR and its moving average,
// and the long trend SMA.
func (s *DemaCross) Init(_ context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("no bars to prepare")
	}
	s.symbol = bars[0].Symbol

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
		highs[i] = bar.High
		lows[i] = bar.Low
	}

	s.fast = indicator.DEMA(closes, s.params.FastPeriod)
	s.slow = indicator.DEMA(closes, s.params.SlowPeriod)
	s.cross = indicator.Crossover(s.fast, s.slow)
	s.atr = indicator.ATR(highs, lows, closes, s.params.ATRPeriod)
	s.atrSMA = indicator.SMA(s.atr, s.params.ATRSMAPeriod)
	s.trend = indicator.SMA(closes, s.params.TrendPeriod)
	return nil
}

// OnBar evaluates the entry and exit rules for one bar. At most one order is
// in flight at a time; a signal arriving while an order is pending is
// ignored.
func (s *DemaCross) OnBar(_ context.Context, i int, bar domain.Bar, acct *domain.AccountSnapshot) (*domain.Order, error) {
	if s.pending {
		return nil, nil
	}
	if i < 0 || i >= len(s.cross) {
		return nil, fmt.Errorf("bar %d outside prepared history of %d bars", i, len(s.cross))
	}

	// NaN comparisons are false during indicator warm-up, so no signal can
	// fire before every series is defined.
	volatilityRising := s.atr[i] > s.atrSMA[i]

	if acct.Position.Qty == 0 {
		if s.cross[i] > 0 && bar.Close > s.trend[i] && volatilityRising {
			s.logf(bar.Timestamp, "BUY SIGNAL BAR | Close: %.2f, ATR: %.4f, SMA200: %.2f",
				bar.Close, s.atr[i], s.trend[i])
			size := int64(math.Floor(acct.Cash * s.params.OrderPct / bar.Close))
			if size <= 0 {
				return nil, nil
			}
			return &domain.Order{
				Symbol: bar.Symbol,
				Side:   domain.OrderSideBuy,
				Type:   domain.OrderTypeMarket,
				Qty:    size,
			}, nil
		}
		return nil, nil
	}

	if s.cross[i] < 0 && volatilityRising {
		s.logf(bar.Timestamp, "SELL SIGNAL BAR | Close: %.2f, ATR: %.4f", bar.Close, s.atr[i])
		return &domain.Order{
			Symbol: bar.Symbol,
			Side:   domain.OrderSideSell,
			Type:   domain.OrderTypeMarket,
			Qty:    acct.Position.Qty,
		}, nil
	}
	return nil, nil
}

// OnOrderEvent tracks the in-flight order and records fills. Submission and
// acceptance mark the order pending; a fill logs the execution and stores a
// chart marker at the fill price; fills and cancellations clear the pending
// state.
func (s *DemaCross) OnOrderEvent(ev domain.OrderEvent) {
	switch ev.Status {
	case domain.OrderStatusSubmitted, domain.OrderStatusAccepted:
		s.pending = true
	case domain.OrderStatusFilled:
		rec := domain.SignalRecord{
			Time:  ev.Order.FilledAt,
			Price: ev.Order.FilledAvgPrice,
			Side:  ev.Order.Side,
		}
		if ev.Order.Side == domain.OrderSideBuy {
			s.logf(ev.Order.FilledAt, "BUY EXECUTED | Price: %.2f Size: %d",
				ev.Order.FilledAvgPrice, ev.Order.FilledQty)
			s.buySignals = append(s.buySignals, rec)
		} else {
			s.logf(ev.Order.FilledAt, "SELL EXECUTED | Price: %.2f Size: %d",
				ev.Order.FilledAvgPrice, ev.Order.FilledQty)
			s.sellSignals = append(s.sellSignals, rec)
		}
		s.pending = false
	case domain.OrderStatusCanceled:
		s.pending = false
	}
}

// BuySignals returns the (time, price) markers recorded at each buy fill.
func (s *DemaCross) BuySignals() []domain.SignalRecord {
	return s.buySignals
}

// SellSignals returns the (time, price) markers recorded at each sell fill.
func (s *DemaCross) SellSignals() []domain.SignalRecord {
	return s.sellSignals
}

func (s *DemaCross) logf(t time.Time, format string, args ...any) {
	fmt.Fprintf(s.out, "%s [%s] - %s\n",
		t.Format("2006-01-02"), s.symbol, fmt.Sprintf(format, args...))
}
