package orderbookv1

import (
	"encoding/json"
	"testing"

	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEventMessage_ToRawEvent(t *testing.T) {
	testCases := []struct {
		name     string
		payload  string
		assertFn func(t *testing.T, event RawEvent, err error)
	}{
		{
			name:    "placed",
			payload: `{"event_type":"order_placed","order_id":"o-1","market_id":"0xabc","symbol":"ETH-USDC","side":"buy","size":"1.5","price":"2000.25","block":12,"log_index":2}`,
			assertFn: func(t *testing.T, event RawEvent, err error) {
				require.NoError(t, err)
				assert.Equal(t, EventPlaced, event.Kind)
				assert.Equal(t, SideBuy, event.Side)
				assert.Equal(t, "1.5", event.Size.String())
				assert.Equal(t, "2000.25", event.Price.String())
				assert.Equal(t, Sequence{Block: 12, Index: 2}, event.Sequence)
			},
		},
		{
			name:    "filled without market",
			payload: `{"event_type":"order_filled","order_id":"o-1","filled_size":"0.5","block":13}`,
			assertFn: func(t *testing.T, event RawEvent, err error) {
				require.NoError(t, err)
				assert.Empty(t, event.MarketID)
				assert.Equal(t, "0.5", event.FilledSize.String())
			},
		},
		{
			name:    "unknown type",
			payload: `{"event_type":"order_modified","order_id":"o-1"}`,
			assertFn: func(t *testing.T, event RawEvent, err error) {
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.EventDecodeError)))
			},
		},
		{
			name:    "bad amount",
			payload: `{"event_type":"order_placed","order_id":"o-1","market_id":"0xabc","side":"buy","size":"1,5","price":"1"}`,
			assertFn: func(t *testing.T, event RawEvent, err error) {
				assert.EqualError(t, err, `invalid size "1,5"`)
			},
		},
		{
			name:    "placed without side",
			payload: `{"event_type":"order_placed","order_id":"o-1","market_id":"0xabc","size":"1","price":"1"}`,
			assertFn: func(t *testing.T, event RawEvent, err error) {
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.EventDecodeError)))
			},
		},
		{
			name:    "placed without market",
			payload: `{"event_type":"order_placed","order_id":"o-1","side":"buy","size":"1","price":"1"}`,
			assertFn: func(t *testing.T, event RawEvent, err error) {
				details, ok := errors.DetailsFromError(err)
				require.True(t, ok)
				assert.Equal(t, "market_id", details.Field)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg OrderEventMessage
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &msg))

			event, err := msg.ToRawEvent()
			tc.assertFn(t, event, err)
		})
	}
}

func TestOrderEventMessage_Market(t *testing.T) {
	market, ok := OrderEventMessage{MarketID: "0xabc", Symbol: "ETH-USDC"}.Market()
	assert.True(t, ok)
	assert.Equal(t, Market{ID: "0xabc", Symbol: "ETH-USDC"}, market)

	_, ok = OrderEventMessage{MarketID: "0xabc"}.Market()
	assert.False(t, ok)
}
