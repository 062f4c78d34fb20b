package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"demacross/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id               TEXT PRIMARY KEY,
	symbol           TEXT NOT NULL,
	side             TEXT NOT NULL,
	type             TEXT NOT NULL,
	status           TEXT NOT NULL,
	qty              INTEGER NOT NULL,
	filled_qty       INTEGER NOT NULL DEFAULT 0,
	filled_avg_price REAL NOT NULL DEFAULT 0,
	commission       REAL NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL,
	filled_at        INTEGER
);

CREATE TABLE IF NOT EXISTS trades (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol      TEXT NOT NULL,
	qty         INTEGER NOT NULL,
	entry_time  INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	exit_time   INTEGER NOT NULL,
	exit_price  REAL NOT NULL,
	pnl         REAL NOT NULL,
	net_pnl     REAL NOT NULL,
	commission  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS signals (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	time  INTEGER NOT NULL,
	price REAL NOT NULL,
	side  TEXT NOT NULL
);
`

// SQLiteStore implements RunStore backed by a SQLite database. With the
// default DSN ":memory:" the ledger lives and dies with the process and
// nothing touches disk.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens a SQLite database for the given DSN, creates the
// ledger tables, and returns a ready-to-use store. An empty DSN means
// ":memory:".
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// A :memory: database exists per connection; a single connection keeps
	// one ledger.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// OrderStore implementation
// ---------------------------------------------------------------------------

// SaveOrder inserts a new order into the ledger.
func (s *SQLiteStore) SaveOrder(ctx context.Context, order *domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders
			(id, symbol, side, type, status, qty, filled_qty, filled_avg_price,
			 commission, created_at, updated_at, filled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.Symbol, string(order.Side), string(order.Type),
		string(order.Status), order.Qty, order.FilledQty, order.FilledAvgPrice,
		order.Commission, order.CreatedAt.UnixMilli(), order.UpdatedAt.UnixMilli(),
		nullableMilli(order.FilledAt))
	if err != nil {
		return fmt.Errorf("inserting order %s: %w", order.ID, err)
	}
	return nil
}

// UpdateOrder persists changes to an existing order.
func (s *SQLiteStore) UpdateOrder(ctx context.Context, order *domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, filled_qty = ?, filled_avg_price = ?, commission = ?,
		    updated_at = ?, filled_at = ?
		WHERE id = ?`,
		string(order.Status), order.FilledQty, order.FilledAvgPrice,
		order.Commission, order.UpdatedAt.UnixMilli(),
		nullableMilli(order.FilledAt), order.ID)
	if err != nil {
		return fmt.Errorf("updating order %s: %w", order.ID, err)
	}
	return nil
}

// GetOrder retrieves a single order by its ID.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, side, type, status, qty, filled_qty,
		       filled_avg_price, commission, created_at, updated_at, filled_at
		FROM orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading order %s: %w", id, err)
	}
	return order, nil
}

// ListOrders returns orders matching the given status in submission order.
func (s *SQLiteStore) ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	query := `
		SELECT id, symbol, side, type, status, qty, filled_qty,
		       filled_avg_price, commission, created_at, updated_at, filled_at
		FROM orders`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// ---------------------------------------------------------------------------
// TradeStore implementation
// ---------------------------------------------------------------------------

// SaveTrade appends a closed trade to the ledger.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *domain.ClosedTrade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(symbol, qty, entry_time, entry_price, exit_time, exit_price,
			 pnl, net_pnl, commission)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.Symbol, trade.Qty, trade.EntryTime.UnixMilli(), trade.EntryPrice,
		trade.ExitTime.UnixMilli(), trade.ExitPrice, trade.PnL, trade.NetPnL,
		trade.Commission)
	if err != nil {
		return fmt.Errorf("inserting trade: %w", err)
	}
	return nil
}

// ListTrades returns all closed trades ordered by entry time.
func (s *SQLiteStore) ListTrades(ctx context.Context) ([]domain.ClosedTrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, qty, entry_time, entry_price, exit_time, exit_price,
		       pnl, net_pnl, commission
		FROM trades ORDER BY entry_time, id`)
	if err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.ClosedTrade
	for rows.Next() {
		var (
			trade   domain.ClosedTrade
			entryMs int64
			exitMs  int64
		)
		if err := rows.Scan(&trade.Symbol, &trade.Qty, &entryMs, &trade.EntryPrice,
			&exitMs, &trade.ExitPrice, &trade.PnL, &trade.NetPnL, &trade.Commission); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		trade.EntryTime = time.UnixMilli(entryMs).UTC()
		trade.ExitTime = time.UnixMilli(exitMs).UTC()
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// ---------------------------------------------------------------------------
// SignalStore implementation
// ---------------------------------------------------------------------------

// SaveSignal appends a signal record.
func (s *SQLiteStore) SaveSignal(ctx context.Context, rec *domain.SignalRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signals (time, price, side) VALUES (?, ?, ?)`,
		rec.Time.UnixMilli(), rec.Price, string(rec.Side))
	if err != nil {
		return fmt.Errorf("inserting signal: %w", err)
	}
	return nil
}

// ListSignals returns signal records for the given side in time order.
func (s *SQLiteStore) ListSignals(ctx context.Context, side domain.OrderSide) ([]domain.SignalRecord, error) {
	query := `SELECT time, price, side FROM signals`
	var args []any
	if side != "" {
		query += ` WHERE side = ?`
		args = append(args, string(side))
	}
	query += ` ORDER BY time, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing signals: %w", err)
	}
	defer rows.Close()

	var recs []domain.SignalRecord
	for rows.Next() {
		var (
			rec     domain.SignalRecord
			ms      int64
			sideCol string
		)
		if err := rows.Scan(&ms, &rec.Price, &sideCol); err != nil {
			return nil, fmt.Errorf("scanning signal: %w", err)
		}
		rec.Time = time.UnixMilli(ms).UTC()
		rec.Side = domain.OrderSide(sideCol)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ---------------------------------------------------------------------------
// Scan helpers
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order     domain.Order
		side      string
		otype     string
		status    string
		createdMs int64
		updatedMs int64
		filledMs  sql.NullInt64
	)
	if err := row.Scan(&order.ID, &order.Symbol, &side, &otype, &status,
		&order.Qty, &order.FilledQty, &order.FilledAvgPrice, &order.Commission,
		&createdMs, &updatedMs, &filledMs); err != nil {
		return nil, err
	}
	order.Side = domain.OrderSide(side)
	order.Type = domain.OrderType(otype)
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = time.UnixMilli(createdMs).UTC()
	order.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	if filledMs.Valid {
		order.FilledAt = time.UnixMilli(filledMs.Int64).UTC()
	}
	return &order, nil
}

func nullableMilli(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}
