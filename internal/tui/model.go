// Package tui renders a live order book in the terminal.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 10 * time.Second
)

// Dialer opens a new stream. It is called again after every disconnect.
type Dialer func() (Stream, error)

type (
	connectedMsg struct{ stream Stream }
	snapshotMsg  struct{ snapshot orderbookv1.Snapshot }
	streamErrMsg struct{ err error }
	reconnectMsg struct{}
)

// Model is the bubbletea model of the order book screen.
type Model struct {
	symbol  string
	dial    Dialer
	stream  Stream
	backoff time.Duration

	snapshot  orderbookv1.Snapshot
	received  bool
	connErr   error
	connected bool

	width  int
	height int
}

// NewModel creates the screen for symbol.
func NewModel(symbol string, dial Dialer) *Model {
	return &Model{
		symbol:   symbol,
		dial:     dial,
		backoff:  minBackoff,
		snapshot: orderbookv1.LoadingSnapshot(symbol),
		width:    80,
		height:   24,
	}
}

// Init connects to the service.
func (m *Model) Init() tea.Cmd {
	return m.connect()
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.stream != nil {
				_ = m.stream.Close()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case connectedMsg:
		m.stream = msg.stream
		m.connected = true
		m.connErr = nil
		m.backoff = minBackoff
		return m, m.listen()

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.received = true
		return m, m.listen()

	case streamErrMsg:
		if m.stream != nil {
			_ = m.stream.Close()
			m.stream = nil
		}
		m.connected = false
		m.connErr = msg.err
		wait := m.backoff
		m.backoff = min(m.backoff*2, maxBackoff)
		return m, tea.Tick(wait, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return m, m.connect()
	}

	return m, nil
}

func (m *Model) connect() tea.Cmd {
	dial := m.dial
	return func() tea.Msg {
		stream, err := dial()
		if err != nil {
			return streamErrMsg{err: err}
		}
		return connectedMsg{stream: stream}
	}
}

func (m *Model) listen() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		snapshot, err := stream.Next()
		if err != nil {
			return streamErrMsg{err: err}
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

// View renders the screen.
func (m *Model) View() string {
	return m.render()
}
