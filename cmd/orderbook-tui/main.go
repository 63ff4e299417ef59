package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muhammadchandra19/orderbook-view/internal/tui"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080", "Order book service WebSocket base URL")
		symbol = flag.String("symbol", "ETH-USDC", "Market symbol to watch")
	)
	flag.Parse()

	dial := func() (tui.Stream, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tui.Dial(ctx, *url, *symbol)
	}

	p := tea.NewProgram(tui.NewModel(*symbol, dial), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
