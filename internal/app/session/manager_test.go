package session

import (
	"context"
	stderrors "errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newManagerFixture returns a manager whose sessions read an empty log and
// counts every head lookup.
func newManagerFixture(f *testFixture, built *atomic.Int32, heads *atomic.Int32) *Manager {
	f.events.EXPECT().LatestPosition(gomock.Any()).DoAndReturn(func(ctx context.Context) (uint64, error) {
		heads.Add(1)
		return 1, nil
	}).AnyTimes()
	f.events.EXPECT().QueryEvents(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	return NewManager(context.Background(), func(symbol string) (*Session, error) {
		built.Add(1)
		cfg := f.config
		cfg.Symbol = symbol
		cfg.MarketID = "0x" + symbol
		return New(cfg, Dependencies{Events: f.events}, f.logger, WithTriggers()), nil
	}, f.logger)
}

func TestManager_AcquireSharesSessions(t *testing.T) {
	f := setupTestFixture(t)
	defer f.ctrl.Finish()

	var built, heads atomic.Int32
	m := newManagerFixture(f, &built, &heads)

	first, releaseFirst, err := m.Acquire("eth-usdc")
	require.NoError(t, err)
	second, releaseSecond, err := m.Acquire(" ETH-USDC ")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), built.Load())
	assert.Equal(t, []string{"ETH-USDC"}, m.Symbols())

	releaseFirst()
	releaseFirst()
	assert.Equal(t, []string{"ETH-USDC"}, m.Symbols())
	assert.Eventually(t, func() bool { return !first.Snapshot().IsLoading }, time.Second, time.Millisecond)

	releaseSecond()
	assert.Empty(t, m.Symbols())
	assert.False(t, first.Refresh("released"))

	third, releaseThird, err := m.Acquire("ETH-USDC")
	require.NoError(t, err)
	defer releaseThird()
	assert.NotSame(t, first, third)
	assert.Equal(t, int32(2), built.Load())
}

func TestManager_Acquire(t *testing.T) {
	testCases := []struct {
		name     string
		symbol   string
		factory  Factory
		assertFn func(t *testing.T, err error)
	}{
		{
			name:   "empty symbol",
			symbol: "  ",
			assertFn: func(t *testing.T, err error) {
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.GeneralBadRequestError)))
			},
		},
		{
			name:   "factory failure",
			symbol: "BTC-USDC",
			factory: func(symbol string) (*Session, error) {
				return nil, stderrors.New("no such market")
			},
			assertFn: func(t *testing.T, err error) {
				assert.EqualError(t, err, "no such market")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			defer f.ctrl.Finish()

			m := NewManager(context.Background(), tc.factory, f.logger)
			s, release, err := m.Acquire(tc.symbol)
			assert.Nil(t, s)
			assert.Nil(t, release)
			tc.assertFn(t, err)
			assert.Empty(t, m.Symbols())
		})
	}
}

func TestManager_Notify(t *testing.T) {
	f := setupTestFixture(t)
	defer f.ctrl.Finish()

	var built, heads atomic.Int32
	m := newManagerFixture(f, &built, &heads)

	eth, releaseEth, err := m.Acquire("ETH-USDC")
	require.NoError(t, err)
	defer releaseEth()
	btc, releaseBtc, err := m.Acquire("BTC-USDC")
	require.NoError(t, err)
	defer releaseBtc()

	waitIdle := func(s *Session) {
		assert.Eventually(t, func() bool {
			return !s.Snapshot().IsLoading && !s.refreshing.Load()
		}, time.Second, time.Millisecond)
	}
	waitIdle(eth)
	waitIdle(btc)

	before := eth.Snapshot().UpdatedAt
	untouched := btc.Snapshot().UpdatedAt

	assert.Eventually(t, func() bool {
		m.Notify("0xETH-USDC")
		return eth.Snapshot().UpdatedAt.After(before)
	}, time.Second, 5*time.Millisecond)
	waitIdle(eth)
	assert.Equal(t, untouched, btc.Snapshot().UpdatedAt)

	before = btc.Snapshot().UpdatedAt
	assert.Eventually(t, func() bool {
		m.Notify("btc-usdc")
		return btc.Snapshot().UpdatedAt.After(before)
	}, time.Second, 5*time.Millisecond)
	waitIdle(btc)

	ethBefore, btcBefore := eth.Snapshot().UpdatedAt, btc.Snapshot().UpdatedAt
	assert.Eventually(t, func() bool {
		m.Notify("")
		return eth.Snapshot().UpdatedAt.After(ethBefore) && btc.Snapshot().UpdatedAt.After(btcBefore)
	}, time.Second, 5*time.Millisecond)
}

func TestManager_Close(t *testing.T) {
	f := setupTestFixture(t)
	defer f.ctrl.Finish()

	var built, heads atomic.Int32
	m := newManagerFixture(f, &built, &heads)

	eth, release, err := m.Acquire("ETH-USDC")
	require.NoError(t, err)
	_, _, err = m.Acquire("BTC-USDC")
	require.NoError(t, err)

	symbols := m.Symbols()
	sort.Strings(symbols)
	assert.Equal(t, []string{"BTC-USDC", "ETH-USDC"}, symbols)

	require.NoError(t, m.Close(context.Background()))
	assert.Empty(t, m.Symbols())
	assert.False(t, eth.Refresh("closed"))

	release()

	_, _, err = m.Acquire("ETH-USDC")
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.SessionClosedError)))
}
