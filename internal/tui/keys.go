package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings used across the TUI.
type KeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Refresh  key.Binding
	Help     key.Binding

	// Watchlist period cycling
	Period key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Refresh:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),

	Period: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "cycle RSI period")),
}

// Bindings lists the global and watchlist bindings for the help screen.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{k.Tab, k.ShiftTab, k.Refresh, k.Period, k.Help, k.Quit}
}
