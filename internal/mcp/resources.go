package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"trading-assistant/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, assistant MarketAssistant, symbols domain.SymbolTable) {
	server.AddResource(&mcp.Resource{
		URI:         "market://supported-symbols",
		Name:        "supported-symbols",
		Description: "Crypto symbols with a known CoinGecko id",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, supportedSymbols(symbols))
	})

	server.AddResource(&mcp.Resource{
		URI:         "market://rsi-thresholds",
		Name:        "rsi-thresholds",
		Description: "Overbought/oversold boundaries and the default RSI period",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, defaultThresholds())
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "rsi://{asset}{?period}",
		Name:        "rsi-by-asset",
		Description: "RSI for a crypto symbol (rsi://BTC) or pair (rsi://EUR-USD); optional period query param",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if assistant == nil {
			return nil, fmt.Errorf("assistant unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil || parsed.Scheme != "rsi" || parsed.Host == "" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		period := 0
		if raw := strings.TrimSpace(parsed.Query().Get("period")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid period: %s", raw)
			}
			period = n
		}

		query, err := rsiQuery(uriAsset(parsed.Host), period)
		if err != nil {
			return nil, err
		}
		report, err := assistant.RSIReport(ctx, query)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, report)
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
