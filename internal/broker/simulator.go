package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"demacross/internal/domain"
	"demacross/internal/store"
)

// Compile-time interface check.
var _ Broker = (*SimulatorBroker)(nil)

// SimulatorBroker implements the Broker interface against an in-memory
// account. Market orders submitted while one bar is being processed are
// queued and filled at the next bar's open price, the way a market order
// placed after the close executes in the following session. Fills are
// unconditional: the simulator never rejects an order for lack of cash.
// The account is long-only.
type SimulatorBroker struct {
	cash     decimal.Decimal
	rate     decimal.Decimal
	position domain.Position
	orders   map[string]*domain.Order
	pending  []string

	entryTime time.Time
	entryFee  decimal.Decimal

	equity    []domain.EquityPoint
	trades    []domain.ClosedTrade
	lastPrice float64

	now    time.Time
	notify func(domain.OrderEvent)
	store  store.RunStore
	log    *slog.Logger
}

// NewSimulatorBroker creates a simulator holding the given starting cash.
// commissionRate is the proportional commission charged on each fill (0.001
// means 10 bps of the fill value per side). Every order transition, fill
// signal, and closed trade is recorded in st, which must not be nil.
func NewSimulatorBroker(cash, commissionRate float64, st store.RunStore) *SimulatorBroker {
	return &SimulatorBroker{
		cash:   decimal.NewFromFloat(cash),
		rate:   decimal.NewFromFloat(commissionRate),
		orders: make(map[string]*domain.Order),
		store:  st,
		log:    slog.Default().With("broker", "simulator"),
	}
}

// Name returns "simulator".
func (b *SimulatorBroker) Name() string {
	return "simulator"
}

// OnOrderEvent registers fn to receive order lifecycle events. Events are
// delivered synchronously from SubmitOrder, ProcessBar, and cancellation.
func (b *SimulatorBroker) OnOrderEvent(fn func(domain.OrderEvent)) {
	b.notify = fn
}

// SubmitOrder accepts a market order and queues it to fill at the next bar's
// open. The broker assigns the order ID and emits submitted and accepted
// events before returning.
func (b *SimulatorBroker) SubmitOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order.Type == "" {
		order.Type = domain.OrderTypeMarket
	}
	if order.Type != domain.OrderTypeMarket {
		return nil, fmt.Errorf("unsupported order type %q", order.Type)
	}
	if order.Qty <= 0 {
		return nil, fmt.Errorf("order qty must be positive, got %d", order.Qty)
	}
	if order.Side == domain.OrderSideSell && order.Qty > b.position.Qty {
		return nil, fmt.Errorf("sell qty %d exceeds position %d", order.Qty, b.position.Qty)
	}

	order.ID = uuid.NewString()
	order.Status = domain.OrderStatusSubmitted
	order.CreatedAt = b.now
	order.UpdatedAt = b.now
	b.orders[order.ID] = order
	if err := b.store.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("saving order: %w", err)
	}
	b.emit(order)

	order.Status = domain.OrderStatusAccepted
	if err := b.store.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("accepting order: %w", err)
	}
	b.emit(order)

	b.pending = append(b.pending, order.ID)
	return order, nil
}

// CancelOrder cancels a pending order by its ID.
func (b *SimulatorBroker) CancelOrder(ctx context.Context, orderID string) error {
	for i, id := range b.pending {
		if id != orderID {
			continue
		}
		b.pending = append(b.pending[:i], b.pending[i+1:]...)
		return b.cancel(ctx, b.orders[id])
	}
	return fmt.Errorf("order %s: not pending", orderID)
}

// CancelAll cancels every pending order. The backtester calls this after the
// last bar so an order submitted on the final bar does not linger.
func (b *SimulatorBroker) CancelAll(ctx context.Context) error {
	queued := b.pending
	b.pending = nil
	for _, id := range queued {
		if err := b.cancel(ctx, b.orders[id]); err != nil {
			return err
		}
	}
	return nil
}

// GetAccount returns the current cash, the equity implied by the last marked
// price, and the open position.
func (b *SimulatorBroker) GetAccount(_ context.Context) (*domain.AccountSnapshot, error) {
	return &domain.AccountSnapshot{
		Cash:     b.cash.InexactFloat64(),
		Equity:   b.cash.InexactFloat64() + float64(b.position.Qty)*b.lastPrice,
		Position: b.position,
	}, nil
}

// ProcessBar advances the simulation clock to the given bar and fills every
// order queued during earlier bars at this bar's open price. It must run
// before the strategy sees the bar so fills from the prior session are
// visible to it.
func (b *SimulatorBroker) ProcessBar(ctx context.Context, bar domain.Bar) error {
	b.now = bar.Timestamp

	queued := b.pending
	b.pending = nil
	for _, id := range queued {
		if err := b.fill(ctx, b.orders[id], bar); err != nil {
			return err
		}
	}
	return nil
}

// MarkToMarket records the account equity at the bar's close.
func (b *SimulatorBroker) MarkToMarket(bar domain.Bar) {
	b.lastPrice = bar.Close
	equity := b.cash.InexactFloat64() + float64(b.position.Qty)*bar.Close
	b.equity = append(b.equity, domain.EquityPoint{Time: bar.Timestamp, Equity: equity})
}

// EquityCurve returns the per-bar equity samples recorded so far.
func (b *SimulatorBroker) EquityCurve() []domain.EquityPoint {
	return b.equity
}

// ClosedTrades returns the completed round trips recorded so far.
func (b *SimulatorBroker) ClosedTrades() []domain.ClosedTrade {
	return b.trades
}

// ---------------------------------------------------------------------------
// Fill mechanics
// ---------------------------------------------------------------------------

func (b *SimulatorBroker) fill(ctx context.Context, order *domain.Order, bar domain.Bar) error {
	price := bar.Open
	gross := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(order.Qty))
	fee := gross.Mul(b.rate)

	switch order.Side {
	case domain.OrderSideBuy:
		b.cash = b.cash.Sub(gross).Sub(fee)
		b.openPosition(order, price, fee, bar.Timestamp)
	case domain.OrderSideSell:
		b.cash = b.cash.Add(gross).Sub(fee)
		if err := b.closePosition(ctx, order, price, fee, bar.Timestamp); err != nil {
			return err
		}
	}

	order.Status = domain.OrderStatusFilled
	order.FilledQty = order.Qty
	order.FilledAvgPrice = price
	order.Commission = fee.InexactFloat64()
	order.FilledAt = bar.Timestamp
	order.UpdatedAt = bar.Timestamp
	if err := b.store.UpdateOrder(ctx, order); err != nil {
		return fmt.Errorf("filling order: %w", err)
	}

	rec := domain.SignalRecord{Time: bar.Timestamp, Price: price, Side: order.Side}
	if err := b.store.SaveSignal(ctx, &rec); err != nil {
		return fmt.Errorf("saving signal: %w", err)
	}

	b.log.Debug("order filled",
		"side", order.Side, "qty", order.Qty, "price", price, "commission", order.Commission)
	b.emit(order)
	return nil
}

func (b *SimulatorBroker) openPosition(order *domain.Order, price float64, fee decimal.Decimal, at time.Time) {
	if b.position.Qty == 0 {
		b.position = domain.Position{
			Symbol:        order.Symbol,
			Qty:           order.Qty,
			Side:          domain.PositionSideLong,
			AvgEntryPrice: price,
		}
		b.entryTime = at
		b.entryFee = fee
		return
	}
	held := b.position.Qty
	total := held + order.Qty
	b.position.AvgEntryPrice = (b.position.AvgEntryPrice*float64(held) + price*float64(order.Qty)) / float64(total)
	b.position.Qty = total
	b.entryFee = b.entryFee.Add(fee)
}

func (b *SimulatorBroker) closePosition(ctx context.Context, order *domain.Order, price float64, fee decimal.Decimal, at time.Time) error {
	held := b.position.Qty
	entryShare := b.entryFee
	if order.Qty < held {
		frac := decimal.NewFromInt(order.Qty).Div(decimal.NewFromInt(held))
		entryShare = b.entryFee.Mul(frac)
	}
	commission := entryShare.Add(fee)

	gross := (price - b.position.AvgEntryPrice) * float64(order.Qty)
	trade := domain.ClosedTrade{
		Symbol:     order.Symbol,
		Qty:        order.Qty,
		EntryTime:  b.entryTime,
		EntryPrice: b.position.AvgEntryPrice,
		ExitTime:   at,
		ExitPrice:  price,
		PnL:        gross,
		NetPnL:     gross - commission.InexactFloat64(),
		Commission: commission.InexactFloat64(),
	}
	b.trades = append(b.trades, trade)

	b.position.Qty -= order.Qty
	b.entryFee = b.entryFee.Sub(entryShare)
	if b.position.Qty == 0 {
		b.position = domain.Position{}
		b.entryTime = time.Time{}
		b.entryFee = decimal.Zero
	}

	if err := b.store.SaveTrade(ctx, &trade); err != nil {
		return fmt.Errorf("saving trade: %w", err)
	}
	return nil
}

func (b *SimulatorBroker) cancel(ctx context.Context, order *domain.Order) error {
	order.Status = domain.OrderStatusCanceled
	order.UpdatedAt = b.now
	if err := b.store.UpdateOrder(ctx, order); err != nil {
		return fmt.Errorf("canceling order: %w", err)
	}
	b.emit(order)
	return nil
}

func (b *SimulatorBroker) emit(order *domain.Order) {
	if b.notify == nil {
		return
	}
	b.notify(domain.OrderEvent{Order: *order, Status: order.Status, At: b.now})
}
