// Package broker defines the Broker interface and provides the simulated
// brokerage used to execute orders and track the account through a backtest.
package broker

import (
	"context"

	"demacross/internal/domain"
)

// Broker abstracts brokerage operations for order execution and account state.
type Broker interface {
	// Name returns the broker identifier (e.g. "simulator").
	Name() string

	// SubmitOrder sends an order to the brokerage for execution. The broker
	// assigns the order ID and returns the accepted order.
	SubmitOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)

	// CancelOrder requests cancellation of a pending order by its ID.
	CancelOrder(ctx context.Context, orderID string) error

	// CancelAll cancels every pending order.
	CancelAll(ctx context.Context) error

	// GetAccount returns a snapshot of cash, equity, and the open position.
	GetAccount(ctx context.Context) (*domain.AccountSnapshot, error)
}
