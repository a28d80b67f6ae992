package mcp

import (
	"context"

	"trading-assistant/internal/service"
)

// MarketAssistant exposes the market lookups served over MCP.
type MarketAssistant interface {
	CryptoPrice(ctx context.Context, query string) string
	ForexRate(ctx context.Context, query string) string
	News(ctx context.Context, query string) string
	RSIReport(ctx context.Context, query string) (*service.RSIReport, error)
}
