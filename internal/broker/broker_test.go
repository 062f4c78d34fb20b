package broker

import (
	"context"
	"math"
	"testing"
	"time"

	"demacross/internal/domain"
	"demacross/internal/store"
)

func newTestBroker(t *testing.T, cash float64) (*SimulatorBroker, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewSimulatorBroker(cash, 0.001, st), st
}

func testBar(day int, open, high, low, close float64) domain.Bar {
	return domain.Bar{
		Symbol:    "AAPL",
		Timestamp: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func TestSimulatorBrokerName(t *testing.T) {
	b, _ := newTestBroker(t, 10000)
	if got := b.Name(); got != "simulator" {
		t.Errorf("SimulatorBroker.Name() = %q, want %q", got, "simulator")
	}
}

func TestBuyFillsAtNextOpen(t *testing.T) {
	b, _ := newTestBroker(t, 10000)
	ctx := context.Background()

	if err := b.ProcessBar(ctx, testBar(2, 99, 101, 98, 100)); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}
	order := &domain.Order{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: 94}
	accepted, err := b.SubmitOrder(ctx, order)
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if accepted.ID == "" {
		t.Fatal("expected broker to assign an order ID")
	}
	if accepted.Status != domain.OrderStatusAccepted {
		t.Errorf("got status %q, want %q", accepted.Status, domain.OrderStatusAccepted)
	}

	// Not filled until the next bar arrives.
	acct, err := b.GetAccount(ctx)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acct.Position.Qty != 0 {
		t.Fatalf("got position %d before next bar, want 0", acct.Position.Qty)
	}

	next := testBar(3, 100, 103, 99, 102)
	if err := b.ProcessBar(ctx, next); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}
	acct, err = b.GetAccount(ctx)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acct.Position.Qty != 94 {
		t.Errorf("got position %d, want 94", acct.Position.Qty)
	}
	if acct.Position.AvgEntryPrice != 100 {
		t.Errorf("got entry price %v, want 100 (next bar's open)", acct.Position.AvgEntryPrice)
	}
	wantCash := 10000 - 94*100.0 - 9.4
	if !almostEqual(acct.Cash, wantCash) {
		t.Errorf("got cash %v, want %v", acct.Cash, wantCash)
	}
	if accepted.FilledAvgPrice != 100 || accepted.FilledQty != 94 {
		t.Errorf("got fill %d @ %v, want 94 @ 100", accepted.FilledQty, accepted.FilledAvgPrice)
	}
	if !accepted.FilledAt.Equal(next.Timestamp) {
		t.Errorf("got filled_at %v, want %v", accepted.FilledAt, next.Timestamp)
	}
}

func TestOrderEventSequence(t *testing.T) {
	b, _ := newTestBroker(t, 10000)
	ctx := context.Background()

	var events []domain.OrderStatus
	b.OnOrderEvent(func(ev domain.OrderEvent) { events = append(events, ev.Status) })

	if err := b.ProcessBar(ctx, testBar(2, 99, 101, 98, 100)); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}
	if _, err := b.SubmitOrder(ctx, &domain.Order{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: 10}); err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if err := b.ProcessBar(ctx, testBar(3, 100, 103, 99, 102)); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}

	want := []domain.OrderStatus{
		domain.OrderStatusSubmitted,
		domain.OrderStatusAccepted,
		domain.OrderStatusFilled,
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestSellClosesPositionAndRecordsTrade(t *testing.T) {
	b, st := newTestBroker(t, 10000)
	ctx := context.Background()

	if err := b.ProcessBar(ctx, testBar(2, 99, 101, 98, 100)); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}
	if _, err := b.SubmitOrder(ctx, &domain.Order{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: 94}); err != nil {
		t.Fatalf("SubmitOrder buy: %v", err)
	}
	if err := b.ProcessBar(ctx, testBar(3, 100, 103, 99, 102)); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}
	if _, err := b.SubmitOrder(ctx, &domain.Order{Symbol: "AAPL", Side: domain.OrderSideSell, Qty: 94}); err != nil {
		t.Fatalf("SubmitOrder sell: %v", err)
	}
	if err := b.ProcessBar(ctx, testBar(4, 110, 112, 108, 111)); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}

	acct, err := b.GetAccount(ctx)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acct.Position.Qty != 0 {
		t.Errorf("got position %d after close, want 0", acct.Position.Qty)
	}
	// 10000 - 9400 - 9.4 + 10340 - 10.34
	wantCash := 10920.26
	if !almostEqual(acct.Cash, wantCash) {
		t.Errorf("got cash %v, want %v", acct.Cash, wantCash)
	}

	trades := b.ClosedTrades()
	if len(trades) != 1 {
		t.Fatalf("got %d closed trades, want 1", len(trades))
	}
	trade := trades[0]
	if trade.Qty != 94 || trade.EntryPrice != 100 || trade.ExitPrice != 110 {
		t.Errorf("got trade %+v, want 94 shares 100 -> 110", trade)
	}
	if !almostEqual(trade.PnL, 940) {
		t.Errorf("got gross pnl %v, want 940", trade.PnL)
	}
	if !almostEqual(trade.Commission, 19.74) {
		t.Errorf("got commission %v, want 19.74", trade.Commission)
	}
	if !almostEqual(trade.NetPnL, 940-19.74) {
		t.Errorf("got net pnl %v, want %v", trade.NetPnL, 940-19.74)
	}

	stored, err := st.ListTrades(ctx)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("got %d stored trades, want 1", len(stored))
	}
	signals, err := st.ListSignals(ctx, "")
	if err != nil {
		t.Fatalf("ListSignals: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("got %d signal records, want 2 (one per fill)", len(signals))
	}
	if signals[0].Side != domain.OrderSideBuy || signals[1].Side != domain.OrderSideSell {
		t.Errorf("got signal sides %q and %q, want buy then sell", signals[0].Side, signals[1].Side)
	}
}

func TestSellExceedingPositionRejected(t *testing.T) {
	b, _ := newTestBroker(t, 10000)

	_, err := b.SubmitOrder(context.Background(),
		&domain.Order{Symbol: "AAPL", Side: domain.OrderSideSell, Qty: 5})
	if err == nil {
		t.Fatal("expected error selling with no position")
	}
}

func TestCancelAll(t *testing.T) {
	b, st := newTestBroker(t, 10000)
	ctx := context.Background()

	var last domain.OrderStatus
	b.OnOrderEvent(func(ev domain.OrderEvent) { last = ev.Status })

	if err := b.ProcessBar(ctx, testBar(2, 99, 101, 98, 100)); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}
	accepted, err := b.SubmitOrder(ctx, &domain.Order{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: 10})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if err := b.CancelAll(ctx); err != nil {
		t.Fatalf("CancelAll: %v", err)
	}
	if last != domain.OrderStatusCanceled {
		t.Errorf("got last event %q, want %q", last, domain.OrderStatusCanceled)
	}

	// A later bar must not fill the canceled order.
	if err := b.ProcessBar(ctx, testBar(3, 100, 103, 99, 102)); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}
	acct, err := b.GetAccount(ctx)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acct.Position.Qty != 0 {
		t.Errorf("got position %d after cancel, want 0", acct.Position.Qty)
	}

	stored, err := st.GetOrder(ctx, accepted.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if stored.Status != domain.OrderStatusCanceled {
		t.Errorf("got stored status %q, want %q", stored.Status, domain.OrderStatusCanceled)
	}
}

func TestMarkToMarketEquity(t *testing.T) {
	b, _ := newTestBroker(t, 10000)
	ctx := context.Background()

	if err := b.ProcessBar(ctx, testBar(2, 99, 101, 98, 100)); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}
	b.MarkToMarket(testBar(2, 99, 101, 98, 100))

	if _, err := b.SubmitOrder(ctx, &domain.Order{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: 94}); err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	next := testBar(3, 100, 103, 99, 105)
	if err := b.ProcessBar(ctx, next); err != nil {
		t.Fatalf("ProcessBar: %v", err)
	}
	b.MarkToMarket(next)

	curve := b.EquityCurve()
	if len(curve) != 2 {
		t.Fatalf("got %d equity points, want 2", len(curve))
	}
	if curve[0].Equity != 10000 {
		t.Errorf("got flat equity %v, want 10000", curve[0].Equity)
	}
	wantEquity := (10000 - 9400 - 9.4) + 94*105.0
	if !almostEqual(curve[1].Equity, wantEquity) {
		t.Errorf("got marked equity %v, want %v", curve[1].Equity, wantEquity)
	}
}
