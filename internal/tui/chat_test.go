package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestChatModelInitialState(t *testing.T) {
	m := NewChatModel(testServices())
	if m.IsWaiting() {
		t.Fatal("expected not waiting initially")
	}
	if m.MessageCount() != 0 {
		t.Fatalf("expected 0 messages, got %d", m.MessageCount())
	}
}

func TestChatModelSendMessage(t *testing.T) {
	m := NewChatModel(testServices())
	m.SetSize(120, 40)

	m.input.SetValue("What about BTC?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !updated.IsWaiting() {
		t.Fatal("expected waiting after sending message")
	}
	if updated.MessageCount() != 1 {
		t.Fatalf("expected 1 message, got %d", updated.MessageCount())
	}
	if cmd == nil {
		t.Fatal("expected non-nil cmd for advisor call")
	}
}

func TestChatModelReceiveReply(t *testing.T) {
	m := NewChatModel(testServices())
	m.SetSize(120, 40)
	m.waiting = true
	m.messages = append(m.messages, chatMessage{Role: roleUser, Content: "test"})

	updated, _ := m.Update(advisorReplyMsg("BTC looks bullish"))
	if updated.IsWaiting() {
		t.Fatal("expected not waiting after receiving reply")
	}
	if updated.MessageCount() != 2 {
		t.Fatalf("expected 2 messages, got %d", updated.MessageCount())
	}
}

func TestChatModelSlashCommandsBypassAdvisor(t *testing.T) {
	svc := testServices()
	m := NewChatModel(svc)

	cases := map[string]string{
		"/rsi BTC,7":    "rsi of BTC,7",
		"/FX EUR/USD":   "rate of EUR/USD",
		"/price eth":    "price of eth",
		"/news bitcoin": "news on bitcoin",
		"/news":         "Usage: /news <query>",
	}
	for input, want := range cases {
		msg := m.sendCmd(input)()
		reply, ok := msg.(commandReplyMsg)
		if !ok {
			t.Fatalf("%s: expected commandReplyMsg, got %T", input, msg)
		}
		if string(reply) != want {
			t.Fatalf("%s: expected %q, got %q", input, want, reply)
		}
	}

	msg := m.sendCmd("/chart BTC")()
	if reply, ok := msg.(commandReplyMsg); !ok || !strings.HasPrefix(string(reply), "Unknown command") {
		t.Fatalf("expected unknown command reply, got %v", msg)
	}
}

func TestChatModelFreeTextGoesToAdvisor(t *testing.T) {
	m := NewChatModel(testServices())
	msg := m.sendCmd("is it a good time to buy?")()
	if reply, ok := msg.(advisorReplyMsg); !ok || string(reply) != "test reply" {
		t.Fatalf("expected advisor reply, got %v", msg)
	}
}

func TestChatModelCommandReplyRendered(t *testing.T) {
	m := NewChatModel(testServices())
	m.SetSize(120, 40)
	m.waiting = true

	updated, _ := m.Update(commandReplyMsg("The 14-day RSI for BTC is 71.43 (overbought)."))
	if updated.IsWaiting() || updated.MessageCount() != 1 {
		t.Fatalf("unexpected state waiting=%v count=%d", updated.IsWaiting(), updated.MessageCount())
	}
	if !strings.Contains(updated.renderMessages(), "Market:") {
		t.Fatal("expected market label in transcript")
	}
}

func TestChatModelAdvisorDisabled(t *testing.T) {
	svc := testServices()
	svc.Advisor = nil
	m := NewChatModel(svc)
	m.SetSize(120, 40)

	view := m.View()
	if !strings.Contains(view, "only slash commands") {
		t.Fatalf("expected slash-command hint, got:\n%s", view)
	}

	msg := m.sendCmd("hello")()
	if _, ok := msg.(advisorErrMsg); !ok {
		t.Fatalf("expected advisorErrMsg, got %T", msg)
	}
}

func TestChatModelEmptyMessageIgnored(t *testing.T) {
	m := NewChatModel(testServices())
	m.SetSize(120, 40)
	m.input.SetValue("")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if updated.IsWaiting() {
		t.Fatal("expected not waiting for empty message")
	}
	if updated.MessageCount() != 0 {
		t.Fatalf("expected 0 messages, got %d", updated.MessageCount())
	}
}

func TestChatModelViewBeforeWindowSize(t *testing.T) {
	m := NewChatModel(testServices())
	if view := m.View(); !strings.Contains(view, "Chat with Trading Advisor") {
		t.Fatalf("unexpected view before sizing:\n%s", view)
	}
}
