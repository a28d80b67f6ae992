package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a screen tab in the TUI.
type Tab int

const (
	TabWatchlist Tab = iota
	TabChat
	TabHelp
)

var tabNames = []string{"1:Watchlist", "2:Chat", "3:Help"}

// AppModel is the root Bubble Tea model that manages tab navigation and child screens.
type AppModel struct {
	services  Services
	activeTab Tab
	watchlist WatchlistModel
	chat      ChatModel
	help      HelpModel
	width     int
	height    int
	quitting  bool
}

// NewAppModel creates the root application model with all child screens.
// Sessions open on the chat tab.
func NewAppModel(svc Services) AppModel {
	m := AppModel{
		services:  svc,
		activeTab: TabChat,
		watchlist: NewWatchlistModel(svc),
		chat:      NewChatModel(svc),
		help:      NewHelpModel(),
	}
	m.chat.Focus()
	return m
}

// Init initializes all child models.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.watchlist.Init(),
		m.chat.Init(),
	)
}

// Update handles incoming messages, routing to the active tab.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.propagateSize()
		return m, nil

	case tea.KeyMsg:
		// Global keys; in chat only tab, ctrl+c and digits on an empty input.
		if m.activeTab != TabChat || msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab ||
			msg.String() == "ctrl+c" || (m.chat.InputEmpty() && isTabDigit(msg.String())) {

			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				if m.activeTab == TabChat && msg.String() == "q" {
					break
				}
				m.quitting = true
				return m, tea.Quit

			case key.Matches(msg, DefaultKeyMap.Tab):
				m.switchTab(Tab((int(m.activeTab) + 1) % len(tabNames)))
				return m, nil

			case key.Matches(msg, DefaultKeyMap.ShiftTab):
				next := int(m.activeTab) - 1
				if next < 0 {
					next = len(tabNames) - 1
				}
				m.switchTab(Tab(next))
				return m, nil

			case key.Matches(msg, DefaultKeyMap.Help) && m.activeTab != TabChat:
				m.switchTab(TabHelp)
				return m, nil

			case isTabDigit(msg.String()):
				m.switchTab(Tab(msg.String()[0] - '1'))
				return m, nil
			}
		}
	}

	var cmds []tea.Cmd

	switch msg.(type) {
	case watchlistMsg, watchTickMsg:
		var cmd tea.Cmd
		m.watchlist, cmd = m.watchlist.Update(msg)
		cmds = append(cmds, cmd)

	case advisorReplyMsg, advisorErrMsg, commandReplyMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		cmds = append(cmds, cmd)

	default:
		switch m.activeTab {
		case TabWatchlist:
			var cmd tea.Cmd
			m.watchlist, cmd = m.watchlist.Update(msg)
			cmds = append(cmds, cmd)
		case TabChat:
			var cmd tea.Cmd
			m.chat, cmd = m.chat.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the tab bar and active screen.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var content string
	switch m.activeTab {
	case TabWatchlist:
		content = m.watchlist.View()
	case TabChat:
		content = m.chat.View()
	case TabHelp:
		content = m.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabBar(), content)
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.propagateSize()
}

// ActiveTab returns the currently active tab (for testing).
func (m AppModel) ActiveTab() Tab { return m.activeTab }

func isTabDigit(s string) bool {
	return len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(tabNames)
}

func (m *AppModel) switchTab(tab Tab) {
	if tab == TabChat && m.activeTab != TabChat {
		m.chat.Focus()
	} else if m.activeTab == TabChat && tab != TabChat {
		m.chat.Blur()
	}
	m.activeTab = tab
}

func (m *AppModel) propagateSize() {
	contentHeight := m.height - 2
	m.watchlist.SetSize(m.width, contentHeight)
	m.chat.SetSize(m.width, contentHeight)
	m.help.SetSize(m.width, contentHeight)
}

func (m AppModel) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.activeTab {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(name))
		}
	}
	tabs = append(tabs, SubtextStyle.Render("  "+m.greeting()))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m AppModel) greeting() string {
	if m.services.Username == "" {
		return ""
	}
	return "signed in as " + m.services.Username
}
