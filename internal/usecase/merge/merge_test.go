package merge

import (
	"testing"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func level(price, size string) orderbookv1.PriceLevel {
	return orderbookv1.PriceLevel{
		Price: decimal.RequireFromString(price),
		Size:  decimal.RequireFromString(size),
	}
}

func TestMerge(t *testing.T) {
	fallback := orderbookv1.OrderBookView{
		Bids: []orderbookv1.PriceLevel{level("99", "5")},
		Asks: []orderbookv1.PriceLevel{level("101", "2")},
	}

	testCases := []struct {
		name     string
		primary  orderbookv1.OrderBookView
		fallback orderbookv1.OrderBookView
		assertFn func(t *testing.T, view orderbookv1.OrderBookView, res Result)
	}{
		{
			name:     "degenerate primary falls back",
			primary:  orderbookv1.OrderBookView{Bids: []orderbookv1.PriceLevel{level("0", "0")}},
			fallback: fallback,
			assertFn: func(t *testing.T, view orderbookv1.OrderBookView, res Result) {
				assert.Equal(t, fallback.Bids, view.Bids)
				assert.Equal(t, fallback.Asks, view.Asks)
				assert.Equal(t, Result{Bids: orderbookv1.SourceFallback, Asks: orderbookv1.SourceFallback}, res)
			},
		},
		{
			name: "usable primary wins verbatim",
			primary: orderbookv1.OrderBookView{
				Bids: []orderbookv1.PriceLevel{level("0", "0"), level("98", "1")},
				Asks: []orderbookv1.PriceLevel{level("102", "9")},
			},
			fallback: fallback,
			assertFn: func(t *testing.T, view orderbookv1.OrderBookView, res Result) {
				assert.Len(t, view.Bids, 2)
				assert.Equal(t, "98", view.Bids[1].Price.String())
				assert.Equal(t, "102", view.Asks[0].Price.String())
				assert.Equal(t, Result{Bids: orderbookv1.SourcePrimary, Asks: orderbookv1.SourcePrimary}, res)
			},
		},
		{
			name: "sides are chosen independently",
			primary: orderbookv1.OrderBookView{
				Bids: []orderbookv1.PriceLevel{},
				Asks: []orderbookv1.PriceLevel{level("105", "1")},
			},
			fallback: fallback,
			assertFn: func(t *testing.T, view orderbookv1.OrderBookView, res Result) {
				assert.Equal(t, fallback.Bids, view.Bids)
				assert.Equal(t, "105", view.Asks[0].Price.String())
				assert.Equal(t, Result{Bids: orderbookv1.SourceFallback, Asks: orderbookv1.SourcePrimary}, res)
			},
		},
		{
			name:     "both empty",
			primary:  orderbookv1.OrderBookView{},
			fallback: orderbookv1.OrderBookView{},
			assertFn: func(t *testing.T, view orderbookv1.OrderBookView, res Result) {
				assert.NotNil(t, view.Bids)
				assert.NotNil(t, view.Asks)
				assert.Empty(t, view.Bids)
				assert.Empty(t, view.Asks)
			},
		},
		{
			name:     "price without size is degenerate",
			primary:  orderbookv1.OrderBookView{Asks: []orderbookv1.PriceLevel{level("101", "0")}},
			fallback: fallback,
			assertFn: func(t *testing.T, view orderbookv1.OrderBookView, res Result) {
				assert.Equal(t, fallback.Asks, view.Asks)
				assert.Equal(t, orderbookv1.SourceFallback, res.Asks)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			view, res := Merge(tc.primary, tc.fallback)
			tc.assertFn(t, view, res)
		})
	}
}
