package orderbookv1

import (
	"encoding/json"
	"testing"

	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawEvent_Validate(t *testing.T) {
	placed := RawEvent{
		Kind:     EventPlaced,
		OrderID:  "1",
		MarketID: "M",
		Side:     SideBuy,
		Size:     decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(100),
	}

	testCases := []struct {
		name   string
		event  func() RawEvent
		field  string
		wantOK bool
	}{
		{name: "valid placed", event: func() RawEvent { return placed }, wantOK: true},
		{
			name: "market order is valid",
			event: func() RawEvent {
				e := placed
				e.Price = decimal.Zero
				return e
			},
			wantOK: true,
		},
		{
			name:  "unknown kind",
			event: func() RawEvent { e := placed; e.Kind = "modified"; return e },
			field: "kind",
		},
		{
			name:  "empty order id",
			event: func() RawEvent { e := placed; e.OrderID = ""; return e },
			field: "orderId",
		},
		{
			name:   "placed without market is valid",
			event:  func() RawEvent { e := placed; e.MarketID = ""; return e },
			wantOK: true,
		},
		{
			name:  "bad side",
			event: func() RawEvent { e := placed; e.Side = "hold"; return e },
			field: "side",
		},
		{
			name:  "zero size",
			event: func() RawEvent { e := placed; e.Size = decimal.Zero; return e },
			field: "size",
		},
		{
			name:  "negative price",
			event: func() RawEvent { e := placed; e.Price = decimal.NewFromInt(-1); return e },
			field: "price",
		},
		{
			name: "fill without market is valid",
			event: func() RawEvent {
				return RawEvent{Kind: EventFilled, OrderID: "1", FilledSize: decimal.NewFromInt(3)}
			},
			wantOK: true,
		},
		{
			name: "negative fill",
			event: func() RawEvent {
				return RawEvent{Kind: EventFilled, OrderID: "1", FilledSize: decimal.NewFromInt(-3)}
			},
			field: "filledSize",
		},
		{
			name:   "cancel",
			event:  func() RawEvent { return RawEvent{Kind: EventCancelled, OrderID: "1"} },
			wantOK: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event().Validate()
			if tc.wantOK {
				assert.NoError(t, err)
				return
			}

			var details *errors.ErrorDetails
			require.ErrorAs(t, err, &details)
			assert.Equal(t, string(errors.EventDecodeError), details.Code)
			assert.Equal(t, tc.field, details.Field)
		})
	}
}

func TestSequence_Less(t *testing.T) {
	assert.True(t, Sequence{Block: 1, Index: 9}.Less(Sequence{Block: 2}))
	assert.True(t, Sequence{Block: 2, Index: 1}.Less(Sequence{Block: 2, Index: 2}))
	assert.False(t, Sequence{Block: 2, Index: 2}.Less(Sequence{Block: 2, Index: 2}))
	assert.Equal(t, "7:3", Sequence{Block: 7, Index: 3}.String())
}

func TestParseFillMode(t *testing.T) {
	mode, err := ParseFillMode("")
	require.NoError(t, err)
	assert.Equal(t, FillModeIncremental, mode)

	mode, err = ParseFillMode(" Cumulative ")
	require.NoError(t, err)
	assert.Equal(t, FillModeCumulative, mode)

	_, err = ParseFillMode("delta")
	assert.Error(t, err)
}

func TestFillMode_Apply(t *testing.T) {
	d := decimal.RequireFromString
	testCases := []struct {
		name   string
		mode   FillMode
		filled string
		size   string
		want   string
	}{
		{name: "incremental adds", mode: FillModeIncremental, filled: "3", size: "5", want: "8"},
		{name: "incremental caps at size", mode: FillModeIncremental, filled: "7", size: "7", want: "10"},
		{name: "empty mode is incremental", mode: "", filled: "1", size: "1", want: "2"},
		{name: "cumulative takes the larger", mode: FillModeCumulative, filled: "3", size: "5", want: "5"},
		{name: "cumulative never decreases", mode: FillModeCumulative, filled: "6", size: "4", want: "6"},
		{name: "cumulative caps at size", mode: FillModeCumulative, filled: "0", size: "12", want: "10"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.mode.Apply(d(tc.filled), d(tc.size), d("10"))
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestOrderState_Remaining(t *testing.T) {
	order := OrderState{
		Price:            decimal.NewFromInt(100),
		OriginalSize:     decimal.NewFromInt(10),
		CumulativeFilled: decimal.NewFromInt(4),
	}
	assert.Equal(t, "6", order.Remaining().String())
	assert.True(t, order.Resting())
	assert.False(t, order.FullyFilled())

	order.CumulativeFilled = decimal.NewFromInt(12)
	assert.True(t, order.Remaining().IsZero())
	assert.True(t, order.FullyFilled())
	assert.False(t, order.Resting())

	order.CumulativeFilled = decimal.NewFromInt(1)
	order.Cancelled = true
	assert.True(t, order.Remaining().IsZero())

	market := OrderState{OriginalSize: decimal.NewFromInt(5)}
	assert.True(t, market.IsMarket())
	assert.False(t, market.Resting())
}

func TestSnapshot_JSON(t *testing.T) {
	snap := LoadingSnapshot("ETH-USDC")
	snap.Bids = []PriceLevel{{Price: decimal.RequireFromString("1.5"), Size: decimal.NewFromInt(2), Orders: 1}}
	snap.BestBid = decimal.NewNullDecimal(decimal.RequireFromString("1.5"))

	buf, err := json.Marshal(snap)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf, &out))

	for _, key := range []string{"bids", "asks", "isLoading", "error", "bestBid", "bestAsk", "spread", "spreadPercent", "maxBidTotal", "maxAskTotal"} {
		assert.Contains(t, out, key)
	}
	assert.Equal(t, "1.5", out["bestBid"])
	assert.Nil(t, out["bestAsk"])
	assert.Equal(t, true, out["isLoading"])
	assert.Equal(t, []any{}, out["asks"])
}
