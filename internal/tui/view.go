package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

const (
	priceWidth  = 14
	sizeWidth   = 14
	maxBarWidth = 40
	chromeLines = 10
)

func (m *Model) render() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderMetrics())
	b.WriteString("\n\n")
	b.WriteString(m.renderLadder())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return panelStyle.Render(b.String())
}

func (m *Model) renderHeader() string {
	title := titleStyle.Render(m.symbol)
	parts := []string{title}
	if m.snapshot.MarketID != "" {
		parts = append(parts, mutedStyle.Render(m.snapshot.MarketID))
	}
	if m.snapshot.Position > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("block %d", m.snapshot.Position)))
	}
	if m.snapshot.BidsSource != "" || m.snapshot.AsksSource != "" {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("bids:%s asks:%s", m.snapshot.BidsSource, m.snapshot.AsksSource)))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderMetrics() string {
	metrics := m.snapshot.Metrics
	spread := "-"
	if metrics.BestBid.Valid && metrics.BestAsk.Valid {
		spread = fmt.Sprintf("%s (%s%%)", metrics.Spread.String(), metrics.SpreadPercent.StringFixed(2))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		mutedStyle.Render("Best bid "), bidStyle.Render(nullable(metrics.BestBid)),
		mutedStyle.Render("   Best ask "), askStyle.Render(nullable(metrics.BestAsk)),
		mutedStyle.Render("   Spread "), valueStyle.Render(spread),
	)
}

func nullable(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

func (m *Model) renderLadder() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%*s %*s", priceWidth, "Price", sizeWidth, "Size")))
	b.WriteString("\n")

	rows := max((m.height-chromeLines)/2, 1)
	barWidth := min(max(m.width-priceWidth-sizeWidth-8, 0), maxBarWidth)

	asks := m.snapshot.Asks
	if len(asks) > rows {
		asks = asks[:rows]
	}
	// Highest ask on top so both best prices meet in the middle.
	for i := len(asks) - 1; i >= 0; i-- {
		b.WriteString(levelRow(asks[i], m.snapshot.MaxAskTotal, barWidth, askStyle, askBarStyle))
		b.WriteString("\n")
	}
	if len(asks) == 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%*s", priceWidth, "no asks")))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(strings.Repeat("─", priceWidth+sizeWidth+1+barWidth)))
	b.WriteString("\n")

	bids := m.snapshot.Bids
	if len(bids) > rows {
		bids = bids[:rows]
	}
	for _, level := range bids {
		b.WriteString(levelRow(level, m.snapshot.MaxBidTotal, barWidth, bidStyle, bidBarStyle))
		b.WriteString("\n")
	}
	if len(bids) == 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%*s", priceWidth, "no bids")))
		b.WriteString("\n")
	}

	return b.String()
}

// levelRow renders one level with a bar proportional to its share of the
// largest level on its side.
func levelRow(level orderbookv1.PriceLevel, largest decimal.Decimal, barWidth int, style, barStyle lipgloss.Style) string {
	row := style.Render(fmt.Sprintf("%*s", priceWidth, level.Price.String())) + " " +
		valueStyle.Render(fmt.Sprintf("%*s", sizeWidth, level.Size.String()))

	if n := barLength(level.Size, largest, barWidth); n > 0 {
		row += " " + barStyle.Render(strings.Repeat("█", n))
	}
	return row
}

func barLength(size, largest decimal.Decimal, width int) int {
	if width <= 0 || !largest.IsPositive() || !size.IsPositive() {
		return 0
	}
	n := int(size.Div(largest).Mul(decimal.NewFromInt(int64(width))).Ceil().IntPart())
	return min(max(n, 1), width)
}

func (m *Model) renderStatus() string {
	var status string
	switch {
	case !m.connected && m.connErr != nil:
		status = errorStyle.Render("disconnected: "+m.connErr.Error()) + mutedStyle.Render(", retrying")
	case !m.connected:
		status = statusStyle.Render("connecting...")
	case m.snapshot.Error != "":
		status = errorStyle.Render("refresh failed: " + m.snapshot.Error)
	case m.snapshot.IsLoading || !m.received:
		status = statusStyle.Render("loading...")
	default:
		status = bidStyle.Render("live")
		if !m.snapshot.UpdatedAt.IsZero() {
			status += mutedStyle.Render("  updated " + m.snapshot.UpdatedAt.Local().Format("15:04:05"))
		}
	}
	return status + mutedStyle.Render("  ·  q quit")
}
