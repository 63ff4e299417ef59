package evm

import (
	"context"
	stderrors "errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/internal/infrastructure/evm/mock"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testMarket   = common.HexToHash("0x01")
	otherMarket  = common.HexToHash("0x02")
	testTrader   = common.HexToHash("0x00000000000000000000000000000000000000bb")
)

type testFixture struct {
	ctrl    *gomock.Controller
	backend *mock.MockBackend
	abi     abi.ABI
	source  *LogSource
}

func setupTestFixture(t *testing.T, maxRange uint64) *testFixture {
	ctrl := gomock.NewController(t)
	backend := mock.NewMockBackend(ctrl)

	contractABI, err := ParseABI()
	require.NoError(t, err)

	source, err := NewLogSource(backend, Options{
		Contract:      testContract,
		Decimals:      Decimals{Price: 2, Size: 3},
		MaxBlockRange: maxRange,
	}, logger.NewNop())
	require.NoError(t, err)

	return &testFixture{ctrl: ctrl, backend: backend, abi: contractABI, source: source}
}

func (f *testFixture) placedLog(t *testing.T, orderID int64, market common.Hash, side uint8, size, price int64, block uint64, index uint) types.Log {
	event := f.abi.Events[eventPlaced]
	data, err := event.Inputs.NonIndexed().Pack(side, big.NewInt(size), big.NewInt(price))
	require.NoError(t, err)

	return types.Log{
		Address:     testContract,
		Topics:      []common.Hash{event.ID, common.BigToHash(big.NewInt(orderID)), market, testTrader},
		Data:        data,
		BlockNumber: block,
		Index:       index,
	}
}

func (f *testFixture) filledLog(t *testing.T, orderID int64, market common.Hash, filled int64, block uint64) types.Log {
	event := f.abi.Events[eventFilled]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(filled))
	require.NoError(t, err)

	return types.Log{
		Topics:      []common.Hash{event.ID, common.BigToHash(big.NewInt(orderID)), market},
		Data:        data,
		BlockNumber: block,
	}
}

func (f *testFixture) cancelledLog(orderID int64, block uint64) types.Log {
	return types.Log{
		Topics:      []common.Hash{f.abi.Events[eventCancelled].ID, common.BigToHash(big.NewInt(orderID))},
		BlockNumber: block,
	}
}

func TestLogSource_QueryEvents(t *testing.T) {
	filter := orderbookv1.EventFilter{MarketID: testMarket.Hex(), FromBlock: 0, ToBlock: 25}

	testCases := []struct {
		name     string
		kind     orderbookv1.EventKind
		maxRange uint64
		mockFn   func(t *testing.T, f *testFixture)
		assertFn func(t *testing.T, events []orderbookv1.RawEvent, err error)
	}{
		{
			name:     "placed logs are paged and decoded",
			kind:     orderbookv1.EventPlaced,
			maxRange: 10,
			mockFn: func(t *testing.T, f *testFixture) {
				var ranges [][2]uint64
				f.backend.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
					ranges = append(ranges, [2]uint64{q.FromBlock.Uint64(), q.ToBlock.Uint64()})
					assert.Equal(t, []common.Address{testContract}, q.Addresses)
					require.Len(t, q.Topics, 3)
					assert.Equal(t, []common.Hash{f.abi.Events[eventPlaced].ID}, q.Topics[0])
					assert.Nil(t, q.Topics[1])
					assert.Equal(t, []common.Hash{testMarket}, q.Topics[2])

					switch q.FromBlock.Uint64() {
					case 0:
						return []types.Log{f.placedLog(t, 1, testMarket, 0, 1500, 10050, 3, 1)}, nil
					case 20:
						removed := f.placedLog(t, 3, testMarket, 0, 1, 1, 21, 0)
						removed.Removed = true
						broken := f.placedLog(t, 4, testMarket, 0, 1, 1, 22, 0)
						broken.Topics = broken.Topics[:2]
						return []types.Log{
							removed,
							broken,
							f.placedLog(t, 2, testMarket, 1, 250, 10100, 23, 4),
						}, nil
					}
					return nil, nil
				}).Times(3)
				t.Cleanup(func() {
					assert.Equal(t, [][2]uint64{{0, 9}, {10, 19}, {20, 25}}, ranges)
				})
			},
			assertFn: func(t *testing.T, events []orderbookv1.RawEvent, err error) {
				require.NoError(t, err)
				require.Len(t, events, 2)

				first := events[0]
				assert.Equal(t, orderbookv1.EventPlaced, first.Kind)
				assert.Equal(t, common.BigToHash(big.NewInt(1)).Hex(), first.OrderID)
				assert.Equal(t, testMarket.Hex(), first.MarketID)
				assert.Equal(t, orderbookv1.SideBuy, first.Side)
				assert.Equal(t, "1.5", first.Size.String())
				assert.Equal(t, "100.5", first.Price.String())
				assert.Equal(t, orderbookv1.Sequence{Block: 3, Index: 1}, first.Sequence)
				assert.NoError(t, first.Validate())

				assert.Equal(t, orderbookv1.SideSell, events[1].Side)
				assert.Equal(t, "0.25", events[1].Size.String())
			},
		},
		{
			name: "filled logs carry the market from the topic",
			kind: orderbookv1.EventFilled,
			mockFn: func(t *testing.T, f *testFixture) {
				f.backend.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{
					f.filledLog(t, 1, testMarket, 500, 4),
				}, nil)
			},
			assertFn: func(t *testing.T, events []orderbookv1.RawEvent, err error) {
				require.NoError(t, err)
				require.Len(t, events, 1)
				assert.Equal(t, testMarket.Hex(), events[0].MarketID)
				assert.Equal(t, "0.5", events[0].FilledSize.String())
			},
		},
		{
			name: "cancellations are not filtered by market",
			kind: orderbookv1.EventCancelled,
			mockFn: func(t *testing.T, f *testFixture) {
				f.backend.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
					assert.Len(t, q.Topics, 1)
					return []types.Log{f.cancelledLog(7, 9)}, nil
				})
			},
			assertFn: func(t *testing.T, events []orderbookv1.RawEvent, err error) {
				require.NoError(t, err)
				require.Len(t, events, 1)
				assert.Empty(t, events[0].MarketID)
				assert.Equal(t, common.BigToHash(big.NewInt(7)).Hex(), events[0].OrderID)
			},
		},
		{
			name:     "rpc failure",
			kind:     orderbookv1.EventPlaced,
			maxRange: 10,
			mockFn: func(t *testing.T, f *testFixture) {
				f.backend.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return(nil, nil)
				f.backend.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return(nil, stderrors.New("query returned more than 10000 results"))
			},
			assertFn: func(t *testing.T, events []orderbookv1.RawEvent, err error) {
				assert.ErrorContains(t, err, "more than 10000 results")
				assert.Nil(t, events)
			},
		},
		{
			name: "unknown kind",
			kind: orderbookv1.EventKind("amended"),
			mockFn: func(t *testing.T, f *testFixture) {
			},
			assertFn: func(t *testing.T, events []orderbookv1.RawEvent, err error) {
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.EventSourceError)))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t, tc.maxRange)
			defer f.ctrl.Finish()
			tc.mockFn(t, f)

			events, err := f.source.QueryEvents(context.Background(), tc.kind, filter)
			tc.assertFn(t, events, err)
		})
	}
}

func TestLogSource_LatestPosition(t *testing.T) {
	f := setupTestFixture(t, 0)
	defer f.ctrl.Finish()

	f.backend.EXPECT().BlockNumber(gomock.Any()).Return(uint64(1234), nil)
	head, err := f.source.LatestPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), head)

	f.backend.EXPECT().BlockNumber(gomock.Any()).Return(uint64(0), stderrors.New("eof"))
	_, err = f.source.LatestPosition(context.Background())
	assert.EqualError(t, err, "eof")
}

func bigs(values ...int64) []*big.Int {
	out := make([]*big.Int, 0, len(values))
	for _, v := range values {
		out = append(out, big.NewInt(v))
	}
	return out
}

func TestLogSource_GetAggregatedView(t *testing.T) {
	testCases := []struct {
		name     string
		mockFn   func(t *testing.T, f *testFixture)
		assertFn func(t *testing.T, view orderbookv1.OrderBookView, err error)
	}{
		{
			name: "levels are scaled and paired",
			mockFn: func(t *testing.T, f *testFixture) {
				method := f.abi.Methods[methodGetOrderBook]
				out, err := method.Outputs.Pack(bigs(10100, 10000), bigs(1000, 2500, 99), bigs(10200), bigs(0))
				require.NoError(t, err)

				f.backend.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).DoAndReturn(func(ctx context.Context, call ethereum.CallMsg, block *big.Int) ([]byte, error) {
					require.NotNil(t, call.To)
					assert.Equal(t, testContract, *call.To)
					assert.Equal(t, method.ID, call.Data[:4])
					args, err := method.Inputs.Unpack(call.Data[4:])
					require.NoError(t, err)
					assert.Equal(t, [32]byte(testMarket), args[0])
					assert.Equal(t, int64(5), args[1].(*big.Int).Int64())
					return out, nil
				})
			},
			assertFn: func(t *testing.T, view orderbookv1.OrderBookView, err error) {
				require.NoError(t, err)
				require.Len(t, view.Bids, 2)
				assert.Equal(t, "101", view.Bids[0].Price.String())
				assert.Equal(t, "1", view.Bids[0].Size.String())
				assert.Equal(t, "2.5", view.Bids[1].Size.String())
				require.Len(t, view.Asks, 1)
				assert.False(t, view.Asks[0].Valid())
			},
		},
		{
			name: "call failure",
			mockFn: func(t *testing.T, f *testFixture) {
				f.backend.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).Return(nil, stderrors.New("execution reverted"))
			},
			assertFn: func(t *testing.T, view orderbookv1.OrderBookView, err error) {
				assert.ErrorContains(t, err, "aggregated_view_error")
				assert.ErrorContains(t, err, "execution reverted")
			},
		},
		{
			name: "undecodable output",
			mockFn: func(t *testing.T, f *testFixture) {
				f.backend.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).Return([]byte{0x01}, nil)
			},
			assertFn: func(t *testing.T, view orderbookv1.OrderBookView, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t, 0)
			defer f.ctrl.Finish()
			tc.mockFn(t, f)

			view, err := f.source.GetAggregatedView(context.Background(), testMarket.Hex(), 5)
			tc.assertFn(t, view, err)
		})
	}
}

func TestLogSource_GetAllMarkets(t *testing.T) {
	testCases := []struct {
		name     string
		mockFn   func(t *testing.T, f *testFixture)
		assertFn func(t *testing.T, markets []orderbookv1.Market, err error)
	}{
		{
			name: "markets are listed",
			mockFn: func(t *testing.T, f *testFixture) {
				out, err := f.abi.Methods[methodGetAllMarkets].Outputs.Pack(
					[][32]byte{testMarket, otherMarket},
					[]string{"ETH-USDC", "BTC-USDC"},
				)
				require.NoError(t, err)
				f.backend.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).Return(out, nil)
			},
			assertFn: func(t *testing.T, markets []orderbookv1.Market, err error) {
				require.NoError(t, err)
				assert.Equal(t, []orderbookv1.Market{
					{ID: testMarket.Hex(), Symbol: "ETH-USDC"},
					{ID: otherMarket.Hex(), Symbol: "BTC-USDC"},
				}, markets)
			},
		},
		{
			name: "mismatched outputs",
			mockFn: func(t *testing.T, f *testFixture) {
				out, err := f.abi.Methods[methodGetAllMarkets].Outputs.Pack(
					[][32]byte{testMarket},
					[]string{},
				)
				require.NoError(t, err)
				f.backend.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).Return(out, nil)
			},
			assertFn: func(t *testing.T, markets []orderbookv1.Market, err error) {
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.MarketRegistryError)))
			},
		},
		{
			name: "call failure",
			mockFn: func(t *testing.T, f *testFixture) {
				f.backend.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).Return(nil, stderrors.New("timeout"))
			},
			assertFn: func(t *testing.T, markets []orderbookv1.Market, err error) {
				assert.ErrorContains(t, err, "market_registry_error: timeout")
				assert.Nil(t, markets)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t, 0)
			defer f.ctrl.Finish()
			tc.mockFn(t, f)

			markets, err := f.source.GetAllMarkets(context.Background())
			tc.assertFn(t, markets, err)
		})
	}
}
