package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Chat message types.
type advisorReplyMsg string
type advisorErrMsg struct{ err error }
type commandReplyMsg string

const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleCommand   = "command"
)

// slashCommands maps chat commands to direct market lookups.
var slashCommands = map[string]func(MarketQuerier) func(context.Context, string) string{
	"/price": func(m MarketQuerier) func(context.Context, string) string { return m.CryptoPrice },
	"/fx":    func(m MarketQuerier) func(context.Context, string) string { return m.ForexRate },
	"/rsi":   func(m MarketQuerier) func(context.Context, string) string { return m.RSI },
	"/news":  func(m MarketQuerier) func(context.Context, string) string { return m.News },
}

type chatMessage struct {
	Role    string
	Content string
	Time    time.Time
}

// ChatModel is the Bubble Tea model for the advisor chat screen.
type ChatModel struct {
	services Services
	messages []chatMessage
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	waiting  bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewChatModel creates a new chat model.
func NewChatModel(svc Services) ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask the advisor, or try /rsi BTC, /price ETH, /fx EUR/USD, /news bitcoin"
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(SpinnerColor)

	return ChatModel{
		services: svc,
		input:    ti,
		spinner:  sp,
	}
}

// Init initializes the chat model.
func (m ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages.
func (m ChatModel) Update(msg tea.Msg) (ChatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case advisorReplyMsg:
		return m.appendReply(roleAssistant, string(msg)), nil

	case commandReplyMsg:
		return m.appendReply(roleCommand, string(msg)), nil

	case advisorErrMsg:
		m.waiting = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && !m.waiting {
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				m.messages = append(m.messages, chatMessage{
					Role:    roleUser,
					Content: text,
					Time:    time.Now(),
				})
				m.input.SetValue("")
				m.waiting = true
				m.viewport.SetContent(m.renderMessages())
				m.viewport.GotoBottom()
				return m, tea.Batch(
					m.sendCmd(text),
					m.spinner.Tick,
				)
			}
		}

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Update text input
	if !m.waiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update viewport
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the chat screen.
func (m ChatModel) View() string {
	if m.services.Advisor == nil && m.services.Market == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			"",
			HeaderStyle.Render("  Chat with Trading Advisor"),
			"",
			SubtextStyle.Render("  Advisor not available. Set OPENAI_API_KEY to enable."),
		)
	}

	var sections []string

	sections = append(sections, HeaderStyle.Render("  Chat with Trading Advisor"))
	if m.services.Advisor == nil {
		sections = append(sections, SubtextStyle.Render("  Advisor offline: only slash commands are available."))
	}
	sections = append(sections, SubtextStyle.Render(rule(m.width-2)))

	// Message viewport
	if !m.ready {
		m.initViewport()
	}
	sections = append(sections, m.viewport.View())

	sections = append(sections, SubtextStyle.Render(rule(m.width-2)))

	// Input bar
	if m.waiting {
		sections = append(sections, fmt.Sprintf("  %s Thinking...", m.spinner.View()))
	} else {
		if m.err != nil {
			sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		}
		sections = append(sections, "  "+m.input.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the model dimensions.
func (m *ChatModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = w - 6
	if m.ready {
		m.viewport.Width = w - 2
		m.viewport.Height = h - 6 // account for header, borders, input
	}
	m.ready = false // re-initialize viewport on next View
}

// Focus gives focus to the text input.
func (m *ChatModel) Focus() {
	m.input.Focus()
}

// Blur removes focus from the text input.
func (m *ChatModel) Blur() {
	m.input.Blur()
}

// IsWaiting returns whether the model is waiting for a response (for testing).
func (m ChatModel) IsWaiting() bool { return m.waiting }

// InputEmpty reports whether nothing has been typed yet.
func (m ChatModel) InputEmpty() bool { return m.input.Value() == "" }

// MessageCount returns the number of messages (for testing).
func (m ChatModel) MessageCount() int { return len(m.messages) }

func (m *ChatModel) initViewport() {
	vpHeight := m.height - 6
	if vpHeight < 3 {
		vpHeight = 3
	}
	vpWidth := m.width - 2
	if vpWidth < 10 {
		vpWidth = 10
	}
	m.viewport = viewport.New(vpWidth, vpHeight)
	m.viewport.SetContent(m.renderMessages())
	m.ready = true
}

func rule(width int) string {
	if width < 1 {
		width = 1
	}
	return strings.Repeat("─", width)
}

func (m ChatModel) renderMessages() string {
	if len(m.messages) == 0 {
		return SubtextStyle.Render("  Start a conversation by typing a question below.")
	}

	var lines []string
	for _, msg := range m.messages {
		timestamp := SubtextStyle.Render(msg.Time.Format("15:04"))
		switch msg.Role {
		case roleUser:
			lines = append(lines, fmt.Sprintf("  %s  %s %s",
				timestamp,
				UserMsgStyle.Render("You:"),
				msg.Content,
			))
		case roleAssistant, roleCommand:
			label := AssistantMsgStyle.Render("Advisor:")
			if msg.Role == roleCommand {
				label = ToolMsgStyle.Render("Market:")
			}
			lines = append(lines, fmt.Sprintf("  %s  %s", timestamp, label))
			for _, line := range strings.Split(msg.Content, "\n") {
				lines = append(lines, "         "+line)
			}
		}
		lines = append(lines, "")
	}

	if m.waiting {
		lines = append(lines, fmt.Sprintf("  %s  %s",
			SubtextStyle.Render(time.Now().Format("15:04")),
			SubtextStyle.Render("Working on it..."),
		))
	}

	return strings.Join(lines, "\n")
}

func (m ChatModel) appendReply(role, content string) ChatModel {
	m.messages = append(m.messages, chatMessage{
		Role:    role,
		Content: content,
		Time:    time.Now(),
	})
	m.waiting = false
	m.err = nil
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
	return m
}

// sendCmd runs slash commands against the market service and sends
// everything else to the advisor.
func (m ChatModel) sendCmd(text string) tea.Cmd {
	if strings.HasPrefix(text, "/") {
		return m.commandCmd(text)
	}
	return m.askAdvisorCmd(text)
}

func (m ChatModel) commandCmd(text string) tea.Cmd {
	market := m.services.Market
	name, payload, _ := strings.Cut(text, " ")
	name = strings.ToLower(name)
	payload = strings.TrimSpace(payload)
	return func() tea.Msg {
		pick, ok := slashCommands[name]
		if !ok {
			return commandReplyMsg(fmt.Sprintf("Unknown command %s. Try /price, /fx, /rsi or /news.", name))
		}
		if market == nil {
			return advisorErrMsg{err: fmt.Errorf("market data not available")}
		}
		if payload == "" {
			return commandReplyMsg(fmt.Sprintf("Usage: %s <query>", name))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return commandReplyMsg(pick(market)(ctx, payload))
	}
}

func (m ChatModel) askAdvisorCmd(question string) tea.Cmd {
	chatID := m.services.ChatID()
	return func() tea.Msg {
		if m.services.Advisor == nil {
			return advisorErrMsg{err: fmt.Errorf("advisor not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		reply, err := m.services.Advisor.Ask(ctx, chatID, question)
		if err != nil {
			return advisorErrMsg{err: err}
		}
		return advisorReplyMsg(reply)
	}
}
