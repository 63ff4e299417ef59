package orderbookv1

import (
	"fmt"

	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/shopspring/decimal"
)

// EventKind identifies one of the three order lifecycle events.
type EventKind string

const (
	// EventPlaced is emitted when an order enters the book.
	EventPlaced EventKind = "placed"
	// EventFilled is emitted when an order is matched, fully or partially.
	EventFilled EventKind = "filled"
	// EventCancelled is emitted when an order is withdrawn.
	EventCancelled EventKind = "cancelled"
)

// EventKinds lists every kind in the order they are queried.
var EventKinds = []EventKind{EventPlaced, EventFilled, EventCancelled}

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventPlaced, EventFilled, EventCancelled:
		return true
	}
	return false
}

// Side is the side of the book an order rests on.
type Side string

const (
	// SideBuy is the bid side.
	SideBuy Side = "buy"
	// SideSell is the ask side.
	SideSell Side = "sell"
)

// Valid reports whether s is buy or sell.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Sequence is the causal ordering key of an event in the log.
// On-chain sources use the block number and the log index within it.
// Sources with a single counter leave Index at zero.
type Sequence struct {
	Block uint64 `json:"block"`
	Index uint64 `json:"index"`
}

// Less reports whether s happened before o.
func (s Sequence) Less(o Sequence) bool {
	if s.Block != o.Block {
		return s.Block < o.Block
	}
	return s.Index < o.Index
}

func (s Sequence) String() string {
	return fmt.Sprintf("%d:%d", s.Block, s.Index)
}

// RawEvent is a decoded order event as read from the event log.
//
// Side, Size and Price are only meaningful for EventPlaced. A zero Price marks a
// market order. FilledSize is only meaningful for EventFilled. MarketID may be empty
// when the source does not carry it; the order is then joined to its market by id.
type RawEvent struct {
	Kind       EventKind       `json:"kind"`
	OrderID    string          `json:"orderId"`
	MarketID   string          `json:"marketId,omitempty"`
	Side       Side            `json:"side,omitempty"`
	Size       decimal.Decimal `json:"size"`
	Price      decimal.Decimal `json:"price"`
	FilledSize decimal.Decimal `json:"filledSize"`
	Sequence   Sequence        `json:"sequence"`
	TxHash     string          `json:"txHash,omitempty"`
}

// Validate checks the event against the schema of its kind.
func (e RawEvent) Validate() error {
	if !e.Kind.Valid() {
		return malformed(fmt.Sprintf("unknown event kind %q", e.Kind), "kind")
	}
	if e.OrderID == "" {
		return malformed("order id is empty", "orderId")
	}

	switch e.Kind {
	case EventPlaced:
		if !e.Side.Valid() {
			return malformed(fmt.Sprintf("unknown side %q", e.Side), "side")
		}
		if !e.Size.IsPositive() {
			return malformed("size must be positive", "size")
		}
		if e.Price.IsNegative() {
			return malformed("price must not be negative", "price")
		}
	case EventFilled:
		if e.FilledSize.IsNegative() {
			return malformed("filled size must not be negative", "filledSize")
		}
	}

	return nil
}

func malformed(message, field string) error {
	return errors.NewErrorDetails(message, string(errors.EventDecodeError), field)
}

// EventFilter bounds an event query. Both block bounds are inclusive.
type EventFilter struct {
	MarketID  string
	FromBlock uint64
	ToBlock   uint64
}
