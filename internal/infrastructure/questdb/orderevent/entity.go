package orderevent

import (
	"time"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/shopspring/decimal"
)

// Order statuses kept in the orders table.
const (
	StatusActive    = "active"
	StatusFilled    = "filled"
	StatusCancelled = "cancelled"
)

// Row is one order_events record. Amounts are stored as decimal strings so the
// reducer sees exactly what was ingested.
type Row struct {
	Timestamp  time.Time
	Block      int64
	LogIndex   int64
	Kind       string
	OrderID    string
	MarketID   string
	Side       string
	Size       string
	Price      string
	FilledSize string
	TxHash     string
}

// FromEvent fills the row from a decoded event.
func (r *Row) FromEvent(event orderbookv1.RawEvent, ts time.Time) {
	r.Timestamp = ts
	r.Block = int64(event.Sequence.Block)
	r.LogIndex = int64(event.Sequence.Index)
	r.Kind = string(event.Kind)
	r.OrderID = event.OrderID
	r.MarketID = event.MarketID
	r.Side = string(event.Side)
	r.Size = event.Size.String()
	r.Price = event.Price.String()
	r.FilledSize = event.FilledSize.String()
	r.TxHash = event.TxHash
}

// ToEvent converts the row back into an event. Amount columns that do not parse
// come back as zero, which Validate rejects where it matters.
func (r *Row) ToEvent(kind orderbookv1.EventKind) orderbookv1.RawEvent {
	return orderbookv1.RawEvent{
		Kind:       kind,
		OrderID:    r.OrderID,
		MarketID:   r.MarketID,
		Side:       orderbookv1.Side(r.Side),
		Size:       parseAmount(r.Size),
		Price:      parseAmount(r.Price),
		FilledSize: parseAmount(r.FilledSize),
		Sequence:   orderbookv1.Sequence{Block: uint64(r.Block), Index: uint64(r.LogIndex)},
		TxHash:     r.TxHash,
	}
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
