package bot

import (
	"context"
	"strings"
	"time"

	"trading-assistant/pkg/logger"

	tele "gopkg.in/telebot.v3"
)

const (
	maxReplyLen  = 4000
	replyTimeout = 45 * time.Second
)

// Assistant answers the market commands with ready-to-send text.
type Assistant interface {
	CryptoPrice(ctx context.Context, query string) string
	ForexRate(ctx context.Context, query string) string
	RSI(ctx context.Context, query string) string
	News(ctx context.Context, query string) string
}

type Advisor interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, payload string) string
}

// Bot routes Telegram commands to the assistant and free text to the advisor.
type Bot struct {
	tele      *tele.Bot
	assistant Assistant
	advisor   Advisor
	commands  []command
	log       *logger.Logger
}

func newBot(assistant Assistant, advisor Advisor) *Bot {
	b := &Bot{
		assistant: assistant,
		advisor:   advisor,
		log:       logger.Get().With("component", "telegram"),
	}
	if assistant != nil {
		b.commands = []command{
			{name: "/price", usage: "Usage: /price BTC [in EUR]", run: assistant.CryptoPrice},
			{name: "/fx", usage: "Usage: /fx EUR/USD", run: assistant.ForexRate},
			{name: "/rsi", usage: "Usage: /rsi BTC or /rsi EUR/USD,14", run: assistant.RSI},
			{name: "/news", usage: "Usage: /news bitcoin", run: assistant.News},
		}
	}
	return b
}

// StartTelegramBot starts long polling in the background. It returns nil when
// token is empty or the bot cannot be created.
func StartTelegramBot(token string, assistant Assistant, advisor Advisor) *Bot {
	b := newBot(assistant, advisor)
	if token == "" {
		b.log.Infow("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		b.log.Errorw("failed to create Telegram bot", "error", err)
		return nil
	}
	b.tele = tb

	tb.Handle("/start", func(c tele.Context) error { return c.Send(b.helpText()) })
	tb.Handle("/help", func(c tele.Context) error { return c.Send(b.helpText()) })
	tb.Handle("/ping", func(c tele.Context) error { return c.Send("pong") })

	for _, cmd := range b.commands {
		cmd := cmd
		tb.Handle(cmd.name, func(c tele.Context) error {
			return c.Send(b.runCommand(cmd, c.Message().Payload))
		})
	}

	tb.Handle("/ask", func(c tele.Context) error {
		question := strings.TrimSpace(c.Message().Payload)
		if question == "" && b.advisor != nil {
			return c.Send("Usage: /ask <question>\nExample: /ask Is BTC overbought?")
		}
		return b.handleAdvisorQuery(c, question)
	})

	tb.Handle(tele.OnText, func(c tele.Context) error {
		text := strings.TrimSpace(c.Text())
		if text == "" || b.advisor == nil {
			return nil
		}
		return b.handleAdvisorQuery(c, text)
	})

	b.log.Infow("Telegram bot started")
	go tb.Start()
	return b
}

func (b *Bot) Stop() {
	if b != nil && b.tele != nil {
		b.tele.Stop()
	}
}

func (b *Bot) runCommand(cmd command, payload string) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return cmd.usage
	}
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()
	return truncate(cmd.run(ctx, payload))
}

func (b *Bot) handleAdvisorQuery(c tele.Context, question string) error {
	_ = c.Notify(tele.Typing)
	return c.Send(b.advise(c.Chat().ID, question))
}

func (b *Bot) advise(chatID int64, question string) string {
	if b.advisor == nil {
		return "Advisor not configured. Set OPENAI_API_KEY to enable."
	}
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	reply, err := b.advisor.Ask(ctx, chatID, question)
	if err != nil {
		b.log.Warnw("advisor error", "chat_id", chatID, "error", err)
		return "Sorry, I'm having trouble right now. Try /price or /rsi for raw data."
	}
	return truncate(reply)
}

func (b *Bot) helpText() string {
	var sb strings.Builder
	sb.WriteString("Trading assistant commands:\n")
	for _, cmd := range b.commands {
		sb.WriteString(strings.TrimPrefix(cmd.usage, "Usage: "))
		sb.WriteString("\n")
	}
	sb.WriteString("/ask <question>\n")
	if b.advisor != nil {
		sb.WriteString("Or just send a message to chat with the advisor.")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(reply string) string {
	if len(reply) > maxReplyLen {
		return reply[:maxReplyLen] + "\n\n[truncated]"
	}
	return reply
}
