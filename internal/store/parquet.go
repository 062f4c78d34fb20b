package store

import (
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"demacross/internal/domain"
)

// TradeRecord is the Parquet schema for exported closed trades.
type TradeRecord struct {
	Symbol     string  `parquet:"symbol"`
	Qty        int64   `parquet:"qty"`
	EntryTime  int64   `parquet:"entry_time,timestamp(millisecond)"` // Unix ms
	EntryPrice float64 `parquet:"entry_price"`
	ExitTime   int64   `parquet:"exit_time,timestamp(millisecond)"` // Unix ms
	ExitPrice  float64 `parquet:"exit_price"`
	PnL        float64 `parquet:"pnl"`
	NetPnL     float64 `parquet:"net_pnl"`
	Commission float64 `parquet:"commission"`
}

// WriteTradesParquet writes closed trades as one Parquet document to w. The
// document is assembled in memory; nothing touches disk.
func WriteTradesParquet(w io.Writer, trades []domain.ClosedTrade) error {
	records := make([]TradeRecord, len(trades))
	for i, t := range trades {
		records[i] = TradeRecord{
			Symbol:     t.Symbol,
			Qty:        t.Qty,
			EntryTime:  t.EntryTime.UnixMilli(),
			EntryPrice: t.EntryPrice,
			ExitTime:   t.ExitTime.UnixMilli(),
			ExitPrice:  t.ExitPrice,
			PnL:        t.PnL,
			NetPnL:     t.NetPnL,
			Commission: t.Commission,
		}
	}
	return parquet.Write(w, records)
}

// ReadTradesParquet decodes a document produced by WriteTradesParquet.
func ReadTradesParquet(r io.ReaderAt, size int64) ([]domain.ClosedTrade, error) {
	records, err := parquet.Read[TradeRecord](r, size)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.ClosedTrade, len(records))
	for i, rec := range records {
		trades[i] = domain.ClosedTrade{
			Symbol:     rec.Symbol,
			Qty:        rec.Qty,
			EntryTime:  time.UnixMilli(rec.EntryTime).UTC(),
			EntryPrice: rec.EntryPrice,
			ExitTime:   time.UnixMilli(rec.ExitTime).UTC(),
			ExitPrice:  rec.ExitPrice,
			PnL:        rec.PnL,
			NetPnL:     rec.NetPnL,
			Commission: rec.Commission,
		}
	}
	return trades, nil
}
