// Package domain defines the core data types shared across the demacross
// backtester: bars, orders, positions, signal records, and account state.
package domain

import "time"

// Bar represents a single daily OHLCV bar for one instrument.
type Bar struct {
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     uint64    `json:"volume"`
	TradeCount uint64    `json:"trade_count"`
	VWAP       float64   `json:"vwap"`
}

// OrderSide is the direction of an order.
type OrderSide string

// Order sides.
const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is the execution type of an order. The simulator only fills
// market orders.
type OrderType string

// Order types.
const (
	OrderTypeMarket OrderType = "market"
)

// OrderStatus tracks an order through its lifecycle: submitted, accepted,
// then filled, or canceled if still pending when the run ends.
type OrderStatus string

// Order statuses.
const (
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCanceled  OrderStatus = "canceled"
)

// Order is a request to buy a share quantity or to close a position. IDs are
// assigned by the broker on submission.
type Order struct {
	ID             string      `json:"id"`
	Symbol         string      `json:"symbol"`
	Side           OrderSide   `json:"side"`
	Type           OrderType   `json:"type"`
	Status         OrderStatus `json:"status"`
	Qty            int64       `json:"qty"`
	FilledQty      int64       `json:"filled_qty"`
	FilledAvgPrice float64     `json:"filled_avg_price"`
	Commission     float64     `json:"commission"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	FilledAt       time.Time   `json:"filled_at"`
}

// OrderEvent is delivered synchronously on every order state transition. The
// embedded Order is a snapshot taken at the transition, so Filled events carry
// the realized price, quantity, and commission.
type OrderEvent struct {
	Order  Order       `json:"order"`
	Status OrderStatus `json:"status"`
	At     time.Time   `json:"at"`
}

// PositionSide is the direction of a held position.
type PositionSide string

// Position sides. Only long positions are taken in this design.
const (
	PositionSideLong PositionSide = "long"
)

// Position is the current holding state for the single traded instrument.
// Qty is zero when flat.
type Position struct {
	Symbol        string       `json:"symbol"`
	Qty           int64        `json:"qty"`
	Side          PositionSide `json:"side"`
	AvgEntryPrice float64      `json:"avg_entry_price"`
}

// AccountSnapshot is the broker's view of cash, equity, and the open position
// at a point in the run.
type AccountSnapshot struct {
	Cash     float64  `json:"cash"`
	Equity   float64  `json:"equity"`
	Position Position `json:"position"`
}

// SignalRecord is a (timestamp, price) pair appended whenever an order fills.
// Records feed the chart and nothing else; decision logic never reads them.
type SignalRecord struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Side  OrderSide `json:"side"`
}

// ClosedTrade is one completed round trip: an entry fill matched against the
// exit fill that flattened it. PnL is gross of commission, NetPnL subtracts
// the commissions paid on both fills.
type ClosedTrade struct {
	Symbol     string    `json:"symbol"`
	Qty        int64     `json:"qty"`
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitTime   time.Time `json:"exit_time"`
	ExitPrice  float64   `json:"exit_price"`
	PnL        float64   `json:"pnl"`
	NetPnL     float64   `json:"net_pnl"`
	Commission float64   `json:"commission"`
}

// EquityPoint is one sample of total account value, taken at a bar's close.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}
