package tui

import (
	"context"

	"trading-assistant/internal/service"
)

// MarketQuerier answers market lookups for the TUI.
type MarketQuerier interface {
	CryptoPrice(ctx context.Context, query string) string
	ForexRate(ctx context.Context, query string) string
	RSI(ctx context.Context, query string) string
	News(ctx context.Context, query string) string
	RSIReport(ctx context.Context, query string) (*service.RSIReport, error)
}

// AdvisorQuerier provides LLM advisor access to the TUI.
type AdvisorQuerier interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
}

// SSHChatIDOffset is the base offset for generating synthetic chat IDs
// for SSH users. The final chat ID is SSHChatIDOffset - user.ID.
// This avoids collisions with Telegram chat IDs.
const SSHChatIDOffset int64 = -1_000_000

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Market    MarketQuerier
	Advisor   AdvisorQuerier
	Watchlist []string
	UserID    int64
	Username  string
}

// ChatID returns the synthetic chat ID for this session.
func (s Services) ChatID() int64 {
	return SSHChatIDOffset - s.UserID
}
