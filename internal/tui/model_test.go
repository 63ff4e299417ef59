package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

type fakeStream struct {
	snapshots []orderbookv1.Snapshot
	err       error
	closed    bool
}

func (s *fakeStream) Next() (orderbookv1.Snapshot, error) {
	if len(s.snapshots) == 0 {
		return orderbookv1.Snapshot{}, s.err
	}
	next := s.snapshots[0]
	s.snapshots = s.snapshots[1:]
	return next, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func twoSidedSnapshot() orderbookv1.Snapshot {
	return orderbookv1.Snapshot{
		MarketID: "0xabc",
		Symbol:   "ETH-USDC",
		OrderBookView: orderbookv1.OrderBookView{
			Bids: []orderbookv1.PriceLevel{
				{Price: d("100"), Size: d("4")},
				{Price: d("99.5"), Size: d("2")},
			},
			Asks: []orderbookv1.PriceLevel{
				{Price: d("102"), Size: d("1")},
			},
		},
		Metrics: orderbookv1.Metrics{
			BestBid:       decimal.NewNullDecimal(d("100")),
			BestAsk:       decimal.NewNullDecimal(d("102")),
			Spread:        d("2"),
			SpreadPercent: d("2"),
			MaxBidTotal:   d("4"),
			MaxAskTotal:   d("1"),
		},
		BidsSource: orderbookv1.SourcePrimary,
		AsksSource: orderbookv1.SourceFallback,
		Position:   1234,
	}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	_, next := m.Update(cmd())
	return next
}

func TestModel_Stream(t *testing.T) {
	stream := &fakeStream{
		snapshots: []orderbookv1.Snapshot{orderbookv1.LoadingSnapshot("ETH-USDC"), twoSidedSnapshot()},
		err:       errors.New("connection reset"),
	}
	dials := 0
	m := NewModel("ETH-USDC", func() (Stream, error) {
		dials++
		return stream, nil
	})

	assert.Contains(t, m.View(), "connecting...")

	cmd := run(t, m, m.Init())
	assert.True(t, m.connected)
	assert.Contains(t, m.View(), "loading...")

	cmd = run(t, m, cmd)
	assert.True(t, m.snapshot.IsLoading)

	cmd = run(t, m, cmd)
	view := m.View()
	assert.Contains(t, view, "live")
	assert.Contains(t, view, "block 1234")
	assert.Contains(t, view, "bids:primary asks:fallback")
	assert.Contains(t, view, "2 (2.00%)")
	assert.Contains(t, view, "99.5")
	assert.Less(t, strings.Index(view, "102"), strings.Index(view, "99.5"), "asks render above bids")

	// The stream fails and the model schedules a reconnect.
	cmd = run(t, m, cmd)
	require.NotNil(t, cmd)
	assert.False(t, m.connected)
	assert.True(t, stream.closed)
	assert.Contains(t, m.View(), "disconnected: connection reset")
	assert.Equal(t, 2*minBackoff, m.backoff)

	_, cmd = m.Update(reconnectMsg{})
	run(t, m, cmd)
	assert.True(t, m.connected)
	assert.Equal(t, minBackoff, m.backoff)
	assert.Equal(t, 2, dials)
}

func TestModel_DialFailureBacksOff(t *testing.T) {
	m := NewModel("ETH-USDC", func() (Stream, error) {
		return nil, errors.New("connection refused")
	})

	for i := 0; i < 10; i++ {
		_, _ = m.Update(streamErrMsg{err: errors.New("connection refused")})
	}
	assert.Equal(t, maxBackoff, m.backoff)
	assert.Contains(t, m.View(), "connection refused")
}

func TestModel_RefreshError(t *testing.T) {
	m := NewModel("ETH-USDC", nil)
	m.Update(connectedMsg{stream: &fakeStream{}})
	m.Update(snapshotMsg{snapshot: orderbookv1.Snapshot{
		Symbol:        "ETH-USDC",
		OrderBookView: orderbookv1.EmptyView(),
		Error:         "market not found: ETH-USDC",
	}})

	view := m.View()
	assert.Contains(t, view, "refresh failed: market not found: ETH-USDC")
	assert.Contains(t, view, "no bids")
	assert.Contains(t, view, "no asks")
}

func TestModel_Quit(t *testing.T) {
	stream := &fakeStream{}
	m := NewModel("ETH-USDC", nil)
	m.Update(connectedMsg{stream: stream})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, stream.closed)
}

func TestBarLength(t *testing.T) {
	testCases := []struct {
		name    string
		size    string
		largest string
		width   int
		want    int
	}{
		{name: "largest level fills the bar", size: "10", largest: "10", width: 20, want: 20},
		{name: "half", size: "5", largest: "10", width: 20, want: 10},
		{name: "tiny level still shows", size: "0.0001", largest: "10", width: 20, want: 1},
		{name: "no room", size: "5", largest: "10", width: 0, want: 0},
		{name: "empty side", size: "5", largest: "0", width: 20, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, barLength(d(tc.size), d(tc.largest), tc.width))
		})
	}
}
