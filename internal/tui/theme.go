package tui

import (
	"trading-assistant/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Tab bar styles
	TabStyle       = lipgloss.NewStyle().Padding(0, 2)
	ActiveTabStyle = TabStyle.Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))
	InactiveTabStyle = TabStyle.
				Foreground(lipgloss.Color("#888888"))

	// RSI zone colors
	OverboughtStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	OversoldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	NeutralStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))

	// General styles
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	SubtextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	BorderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	SpinnerColor = lipgloss.Color("#7D56F4")

	// Chat styles
	UserMsgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	AssistantMsgStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ToolMsgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AFFF"))
)

// ZoneStyle picks the color for an RSI classification.
func ZoneStyle(c domain.RSIClassification) lipgloss.Style {
	switch c {
	case domain.RSIOverbought:
		return OverboughtStyle
	case domain.RSIOversold:
		return OversoldStyle
	default:
		return NeutralStyle
	}
}
