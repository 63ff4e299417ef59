package main

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

func TestGenerator(t *testing.T) {
	g := &generator{
		rng:         rand.New(rand.NewSource(7)),
		marketID:    "0x01",
		symbol:      "ETH-USDC",
		basePrice:   decimal.NewFromFloat(3945.5),
		priceSpread: decimal.NewFromInt(200),
		block:       1,
	}

	placed := make(map[string]decimal.Decimal)
	filled := make(map[string]decimal.Decimal)
	var last orderbookv1.Sequence

	for i := 0; i < 500; i++ {
		msg := g.next()

		event, err := msg.ToRawEvent()
		require.NoError(t, err, "event %d", i)
		assert.True(t, last.Less(event.Sequence), "event %d is out of order", i)
		last = event.Sequence

		switch event.Kind {
		case orderbookv1.EventPlaced:
			assert.Equal(t, "0x01", event.MarketID)
			assert.True(t, event.Price.IsPositive())
			placed[event.OrderID] = event.Size
		case orderbookv1.EventFilled:
			size, ok := placed[event.OrderID]
			require.True(t, ok, "fill for unknown order %s", event.OrderID)
			filled[event.OrderID] = filled[event.OrderID].Add(event.FilledSize)
			assert.True(t, filled[event.OrderID].LessThanOrEqual(size))
		case orderbookv1.EventCancelled:
			_, ok := placed[event.OrderID]
			assert.True(t, ok)
			assert.Empty(t, event.MarketID)
		}
	}
}
