package store

import (
	"context"
	"testing"
	"time"

	"demacross/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOrderRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	order := &domain.Order{
		ID:        "ord-1",
		Symbol:    "AAPL",
		Side:      domain.OrderSideBuy,
		Type:      domain.OrderTypeMarket,
		Status:    domain.OrderStatusSubmitted,
		Qty:       94,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := s.SaveOrder(ctx, order); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}

	got, err := s.GetOrder(ctx, "ord-1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Symbol != "AAPL" || got.Side != domain.OrderSideBuy || got.Qty != 94 {
		t.Errorf("got %+v, want saved order back", got)
	}
	if got.Status != domain.OrderStatusSubmitted {
		t.Errorf("got status %q, want %q", got.Status, domain.OrderStatusSubmitted)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("got created_at %v, want %v", got.CreatedAt, created)
	}
	if !got.FilledAt.IsZero() {
		t.Errorf("got filled_at %v, want zero", got.FilledAt)
	}
}

func TestUpdateOrderFill(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	order := &domain.Order{
		ID:        "ord-2",
		Symbol:    "AAPL",
		Side:      domain.OrderSideBuy,
		Type:      domain.OrderTypeMarket,
		Status:    domain.OrderStatusAccepted,
		Qty:       94,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := s.SaveOrder(ctx, order); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}

	filled := created.Add(24 * time.Hour)
	order.Status = domain.OrderStatusFilled
	order.FilledQty = 94
	order.FilledAvgPrice = 101.5
	order.Commission = 9.541
	order.UpdatedAt = filled
	order.FilledAt = filled
	if err := s.UpdateOrder(ctx, order); err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}

	got, err := s.GetOrder(ctx, "ord-2")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != domain.OrderStatusFilled {
		t.Errorf("got status %q, want %q", got.Status, domain.OrderStatusFilled)
	}
	if got.FilledQty != 94 || got.FilledAvgPrice != 101.5 {
		t.Errorf("got fill %d @ %v, want 94 @ 101.5", got.FilledQty, got.FilledAvgPrice)
	}
	if !got.FilledAt.Equal(filled) {
		t.Errorf("got filled_at %v, want %v", got.FilledAt, filled)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetOrder(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing order")
	}
}

func TestListOrdersByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	statuses := []domain.OrderStatus{
		domain.OrderStatusFilled, domain.OrderStatusCanceled, domain.OrderStatusFilled,
	}
	for i, status := range statuses {
		order := &domain.Order{
			ID:        "ord-" + string(rune('a'+i)),
			Symbol:    "AAPL",
			Side:      domain.OrderSideBuy,
			Type:      domain.OrderTypeMarket,
			Status:    status,
			Qty:       10,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveOrder(ctx, order); err != nil {
			t.Fatalf("SaveOrder %d: %v", i, err)
		}
	}

	all, err := s.ListOrders(ctx, "")
	if err != nil {
		t.Fatalf("ListOrders all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d orders, want 3", len(all))
	}
	if all[0].ID != "ord-a" || all[2].ID != "ord-c" {
		t.Errorf("got order %s..%s, want ord-a..ord-c", all[0].ID, all[2].ID)
	}

	filled, err := s.ListOrders(ctx, domain.OrderStatusFilled)
	if err != nil {
		t.Fatalf("ListOrders filled: %v", err)
	}
	if len(filled) != 2 {
		t.Fatalf("got %d filled orders, want 2", len(filled))
	}
}

func TestTradeRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &domain.ClosedTrade{
		Symbol:     "AAPL",
		Qty:        94,
		EntryTime:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EntryPrice: 100,
		ExitTime:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ExitPrice:  110,
		PnL:        940,
		NetPnL:     920.25,
		Commission: 19.75,
	}
	second := &domain.ClosedTrade{
		Symbol:     "AAPL",
		Qty:        80,
		EntryTime:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		EntryPrice: 120,
		ExitTime:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ExitPrice:  115,
		PnL:        -400,
		NetPnL:     -418.8,
		Commission: 18.8,
	}
	// Insert out of order to check the listing sorts by entry time.
	if err := s.SaveTrade(ctx, second); err != nil {
		t.Fatalf("SaveTrade: %v", err)
	}
	if err := s.SaveTrade(ctx, first); err != nil {
		t.Fatalf("SaveTrade: %v", err)
	}

	trades, err := s.ListTrades(ctx)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	if !trades[0].EntryTime.Equal(first.EntryTime) {
		t.Errorf("got first entry %v, want %v", trades[0].EntryTime, first.EntryTime)
	}
	if trades[0].PnL != 940 || trades[0].NetPnL != 920.25 {
		t.Errorf("got pnl %v net %v, want 940 and 920.25", trades[0].PnL, trades[0].NetPnL)
	}
	if trades[1].PnL != -400 {
		t.Errorf("got second pnl %v, want -400", trades[1].PnL)
	}
}

func TestSignalsBySide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	recs := []domain.SignalRecord{
		{Time: base, Price: 100, Side: domain.OrderSideBuy},
		{Time: base.AddDate(0, 0, 20), Price: 110, Side: domain.OrderSideSell},
		{Time: base.AddDate(0, 0, 40), Price: 105, Side: domain.OrderSideBuy},
	}
	for i := range recs {
		if err := s.SaveSignal(ctx, &recs[i]); err != nil {
			t.Fatalf("SaveSignal %d: %v", i, err)
		}
	}

	buys, err := s.ListSignals(ctx, domain.OrderSideBuy)
	if err != nil {
		t.Fatalf("ListSignals buy: %v", err)
	}
	if len(buys) != 2 {
		t.Fatalf("got %d buy signals, want 2", len(buys))
	}
	if buys[0].Price != 100 || buys[1].Price != 105 {
		t.Errorf("got prices %v and %v, want 100 and 105", buys[0].Price, buys[1].Price)
	}

	all, err := s.ListSignals(ctx, "")
	if err != nil {
		t.Fatalf("ListSignals all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d signals, want 3", len(all))
	}
	if !all[1].Time.Equal(base.AddDate(0, 0, 20)) {
		t.Errorf("got time %v, want %v", all[1].Time, base.AddDate(0, 0, 20))
	}
}
