// Package store defines the run-ledger interfaces a backtest writes while it
// executes (orders, closed trades, and fill signals) plus the SQLite
// implementation backing them.
package store

import (
	"context"

	"demacross/internal/domain"
)

// OrderStore records order lifecycle state.
type OrderStore interface {
	// SaveOrder inserts a new order into the ledger.
	SaveOrder(ctx context.Context, order *domain.Order) error

	// UpdateOrder persists changes to an existing order.
	UpdateOrder(ctx context.Context, order *domain.Order) error

	// GetOrder retrieves a single order by its ID.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// ListOrders returns orders matching the given status in submission
	// order. An empty status matches every order.
	ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
}

// TradeStore records completed round trips.
type TradeStore interface {
	// SaveTrade appends a closed trade to the ledger.
	SaveTrade(ctx context.Context, trade *domain.ClosedTrade) error

	// ListTrades returns all closed trades ordered by entry time.
	ListTrades(ctx context.Context) ([]domain.ClosedTrade, error)
}

// SignalStore records the fill markers consumed by the chart.
type SignalStore interface {
	// SaveSignal appends a signal record.
	SaveSignal(ctx context.Context, rec *domain.SignalRecord) error

	// ListSignals returns signal records for the given side in time order.
	// An empty side matches every record.
	ListSignals(ctx context.Context, side domain.OrderSide) ([]domain.SignalRecord, error)
}

// RunStore is the combined ledger for one backtest run.
type RunStore interface {
	OrderStore
	TradeStore
	SignalStore

	// Close releases the underlying database.
	Close() error
}
