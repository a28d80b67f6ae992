package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"trading-assistant/internal/domain"
	"trading-assistant/internal/indicator"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var watchPeriods = []int{7, 14, 21}

const watchRefresh = 60 * time.Second

// Watchlist message types.
type watchRow struct {
	Symbol         string
	Value          float64
	Classification domain.RSIClassification
	Err            error
}

type watchlistMsg struct {
	period int
	rows   []watchRow
}
type watchTickMsg time.Time

// WatchlistModel shows the RSI of every watched asset.
type WatchlistModel struct {
	services  Services
	periodIdx int
	rows      []watchRow
	loading   bool
	updated   time.Time
	width     int
	height    int
}

func NewWatchlistModel(svc Services) WatchlistModel {
	return WatchlistModel{
		services:  svc,
		periodIdx: 1,
		loading:   true,
	}
}

func (m WatchlistModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

func (m WatchlistModel) Update(msg tea.Msg) (WatchlistModel, tea.Cmd) {
	switch msg := msg.(type) {
	case watchlistMsg:
		if msg.period != m.Period() {
			return m, nil
		}
		m.rows = msg.rows
		m.loading = false
		m.updated = time.Now()
		return m, nil

	case watchTickMsg:
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, m.fetchCmd()
		case key.Matches(msg, DefaultKeyMap.Period):
			m.periodIdx = (m.periodIdx + 1) % len(watchPeriods)
			m.loading = true
			return m, m.fetchCmd()
		}
	}
	return m, nil
}

func (m WatchlistModel) View() string {
	var lines []string
	lines = append(lines, HeaderStyle.Render(fmt.Sprintf("  RSI Watchlist (%d-day)", m.Period())))
	lines = append(lines, SubtextStyle.Render(fmt.Sprintf("  %-10s %8s  %-24s %s", "Asset", "RSI", "", "Zone")))
	lines = append(lines, SubtextStyle.Render("  "+strings.Repeat("─", 56)))

	switch {
	case m.services.Market == nil:
		lines = append(lines, SubtextStyle.Render("  Market data not available."))
	case len(m.services.Watchlist) == 0:
		lines = append(lines, SubtextStyle.Render("  Watchlist is empty. Set WARM_SYMBOLS to populate it."))
	case m.loading && len(m.rows) == 0:
		lines = append(lines, SubtextStyle.Render("  Loading RSI..."))
	default:
		for _, row := range m.rows {
			lines = append(lines, "  "+renderWatchRow(row))
		}
	}

	footer := fmt.Sprintf("  %s refresh  %s period", KeyStyle.Render("R"), KeyStyle.Render("p"))
	if !m.updated.IsZero() {
		footer += SubtextStyle.Render("  updated " + m.updated.Format("15:04:05"))
	}
	if m.loading && len(m.rows) > 0 {
		footer += SubtextStyle.Render("  refreshing...")
	}
	lines = append(lines, "", footer)

	width := m.width - 2
	if width < 40 {
		width = 40
	}
	return BorderStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *WatchlistModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Period returns the RSI period currently shown.
func (m WatchlistModel) Period() int { return watchPeriods[m.periodIdx] }

// Rows returns the last fetched rows (for testing).
func (m WatchlistModel) Rows() []watchRow { return m.rows }

func renderWatchRow(row watchRow) string {
	if row.Err != nil {
		return fmt.Sprintf("%-10s %8s  %s", row.Symbol, "-", ErrorStyle.Render(watchError(row.Err)))
	}
	zone := ZoneStyle(row.Classification)
	return fmt.Sprintf("%-10s %8s  %s %s",
		row.Symbol,
		indicator.FormatValue(row.Value),
		renderGauge(row.Value, 24),
		zone.Render(capitalizeZone(row.Classification)),
	)
}

// renderGauge draws value on a 0..100 bar with the 30/70 bands marked.
func renderGauge(value float64, width int) string {
	if width <= 0 {
		width = 20
	}
	pos := int(math.Round(value / 100 * float64(width-1)))
	if pos < 0 {
		pos = 0
	}
	if pos > width-1 {
		pos = width - 1
	}
	low := int(domain.RSIOversoldThreshold / 100 * float64(width))
	high := int(domain.RSIOverboughtThreshold / 100 * float64(width))

	var sb strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == pos:
			sb.WriteString("●")
		case i == low || i == high:
			sb.WriteString(SubtextStyle.Render("┊"))
		default:
			sb.WriteString(SubtextStyle.Render("─"))
		}
	}
	return sb.String()
}

func capitalizeZone(c domain.RSIClassification) string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func watchError(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		return "not enough data"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate limited"
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	default:
		return "unavailable"
	}
}

func (m WatchlistModel) fetchCmd() tea.Cmd {
	market := m.services.Market
	symbols := append([]string(nil), m.services.Watchlist...)
	period := m.Period()
	return func() tea.Msg {
		if market == nil {
			return watchlistMsg{period: period}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rows := make([]watchRow, 0, len(symbols))
		for _, symbol := range symbols {
			report, err := market.RSIReport(ctx, symbol+","+strconv.Itoa(period))
			if err != nil {
				rows = append(rows, watchRow{Symbol: symbol, Err: err})
				continue
			}
			rows = append(rows, watchRow{
				Symbol:         report.Asset.Label,
				Value:          report.Value,
				Classification: report.Classification,
			})
		}
		return watchlistMsg{period: period, rows: rows}
	}
}

func (m WatchlistModel) tickCmd() tea.Cmd {
	return tea.Tick(watchRefresh, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}
