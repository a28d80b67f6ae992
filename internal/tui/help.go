package tui

import (
	"fmt"
	"strings"

	"trading-assistant/internal/domain"
)

var commandHelp = [][2]string{
	{"/price <coin> [in <cur>]", "spot price, e.g. /price ETH in EUR"},
	{"/fx <BASE/QUOTE>", "exchange rate, e.g. /fx EUR/USD"},
	{"/rsi <asset>[,<period>]", "daily RSI, e.g. /rsi BTC,7 or /rsi GBP/JPY"},
	{"/news <topic>", "latest headlines, e.g. /news bitcoin"},
	{"<anything else>", "ask the advisor"},
}

// HelpModel is a static reference screen.
type HelpModel struct {
	width  int
	height int
}

func NewHelpModel() HelpModel { return HelpModel{} }

func (m HelpModel) View() string {
	var lines []string
	lines = append(lines, HeaderStyle.Render("  Keys"))
	for _, b := range DefaultKeyMap.Bindings() {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("  %s  %s", KeyStyle.Render(fmt.Sprintf("%-10s", h.Key)), h.Desc))
	}
	lines = append(lines, fmt.Sprintf("  %s  %s", KeyStyle.Render(fmt.Sprintf("%-10s", "1-3")), "jump to tab"))

	lines = append(lines, "", HeaderStyle.Render("  Chat commands"))
	for _, c := range commandHelp {
		lines = append(lines, fmt.Sprintf("  %s  %s", KeyStyle.Render(fmt.Sprintf("%-26s", c[0])), c[1]))
	}

	lines = append(lines, "", HeaderStyle.Render("  Reading RSI"))
	lines = append(lines,
		fmt.Sprintf("  %s at or above %.0f", OverboughtStyle.Render("Overbought"), domain.RSIOverboughtThreshold),
		fmt.Sprintf("  %s at or below %.0f", OversoldStyle.Render("Oversold"), domain.RSIOversoldThreshold),
		fmt.Sprintf("  %s in between", NeutralStyle.Render("Neutral")),
		SubtextStyle.Render(fmt.Sprintf("  Default period is %d days of daily closes.", domain.DefaultRSIPeriod)),
	)

	width := m.width - 2
	if width < 40 {
		width = 40
	}
	return BorderStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *HelpModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}
