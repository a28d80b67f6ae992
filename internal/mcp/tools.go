package mcp

import (
	"context"
	"fmt"

	"trading-assistant/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type textTool struct {
	name        string
	description string
	answer      func(MarketAssistant) func(context.Context, string) string
}

var textTools = []textTool{
	{
		name:        "crypto_price",
		description: "Get the current price of a cryptocurrency, e.g. 'BTC' or 'ETH in EUR'",
		answer:      func(a MarketAssistant) func(context.Context, string) string { return a.CryptoPrice },
	},
	{
		name:        "forex_rate",
		description: "Get the current exchange rate for a currency pair, e.g. 'EUR/USD'",
		answer:      func(a MarketAssistant) func(context.Context, string) string { return a.ForexRate },
	},
	{
		name:        "news",
		description: "Get the latest financial news headlines for a topic or ticker",
		answer:      func(a MarketAssistant) func(context.Context, string) string { return a.News },
	},
}

func registerTools(server *mcp.Server, assistant MarketAssistant) {
	for _, tool := range textTools {
		tool := tool
		mcp.AddTool(server, &mcp.Tool{
			Name:        tool.name,
			Description: tool.description,
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in queryInput) (*mcp.CallToolResult, textOutput, error) {
			if assistant == nil {
				return nil, textOutput{}, fmt.Errorf("assistant unavailable")
			}
			query, err := normalizeQuery(in.Query)
			if err != nil {
				return nil, textOutput{}, err
			}
			return nil, textOutput{Query: query, Answer: tool.answer(assistant)(ctx, query)}, nil
		})
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rsi",
		Description: "Calculate the daily Relative Strength Index for a crypto symbol or currency pair",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in rsiInput) (*mcp.CallToolResult, service.RSIReport, error) {
		if assistant == nil {
			return nil, service.RSIReport{}, fmt.Errorf("assistant unavailable")
		}
		query, err := rsiQuery(in.Asset, in.Period)
		if err != nil {
			return nil, service.RSIReport{}, err
		}
		report, err := assistant.RSIReport(ctx, query)
		if err != nil {
			return nil, service.RSIReport{}, err
		}
		return nil, *report, nil
	})
}
