package orderbookv1

import (
	"fmt"
	"time"

	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/shopspring/decimal"
)

// Message event types published on the order event topic.
const (
	MessageOrderPlaced    = "order_placed"
	MessageOrderFilled    = "order_filled"
	MessageOrderCancelled = "order_cancelled"
)

var messageKinds = map[string]EventKind{
	MessageOrderPlaced:    EventPlaced,
	MessageOrderFilled:    EventFilled,
	MessageOrderCancelled: EventCancelled,
}

// OrderEventMessage is the JSON payload of the order event topic. Amounts are
// decimal strings.
type OrderEventMessage struct {
	EventID    string    `json:"event_id"`
	Timestamp  time.Time `json:"timestamp"`
	EventType  string    `json:"event_type"`
	OrderID    string    `json:"order_id"`
	MarketID   string    `json:"market_id,omitempty"`
	Symbol     string    `json:"symbol,omitempty"`
	Side       string    `json:"side,omitempty"`
	Size       string    `json:"size,omitempty"`
	Price      string    `json:"price,omitempty"`
	FilledSize string    `json:"filled_size,omitempty"`
	Block      uint64    `json:"block"`
	LogIndex   uint64    `json:"log_index"`
	TxHash     string    `json:"tx_hash,omitempty"`
}

// ToRawEvent decodes the message into a validated RawEvent.
func (m OrderEventMessage) ToRawEvent() (RawEvent, error) {
	kind, ok := messageKinds[m.EventType]
	if !ok {
		return RawEvent{}, malformed(fmt.Sprintf("unknown event type %q", m.EventType), "event_type")
	}

	event := RawEvent{
		Kind:     kind,
		OrderID:  m.OrderID,
		MarketID: m.MarketID,
		Side:     Side(m.Side),
		Sequence: Sequence{Block: m.Block, Index: m.LogIndex},
		TxHash:   m.TxHash,
	}

	var err error
	if event.Size, err = parseDecimal(m.Size, "size"); err != nil {
		return RawEvent{}, err
	}
	if event.Price, err = parseDecimal(m.Price, "price"); err != nil {
		return RawEvent{}, err
	}
	if event.FilledSize, err = parseDecimal(m.FilledSize, "filled_size"); err != nil {
		return RawEvent{}, err
	}

	if err := event.Validate(); err != nil {
		return RawEvent{}, err
	}
	// The indexer keys its order table by market, so ingested placements must name one.
	if kind == EventPlaced && event.MarketID == "" {
		return RawEvent{}, malformed("placed event without market", "market_id")
	}
	return event, nil
}

// Market returns the market announced by the message, if it carries both id and symbol.
func (m OrderEventMessage) Market() (Market, bool) {
	if m.MarketID == "" || m.Symbol == "" {
		return Market{}, false
	}
	return Market{ID: m.MarketID, Symbol: m.Symbol}, true
}

func parseDecimal(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.NewErrorDetails(fmt.Sprintf("invalid %s %q", field, s), string(errors.EventDecodeError), field)
	}
	return d, nil
}
