package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

const (
	ToolCryptoPrice = "get_crypto_price"
	ToolForexRate   = "get_forex_rate"
	ToolRSI         = "get_rsi"
	ToolNews        = "get_news"
)

// Toolbox answers each market tool with a ready-to-read string.
type Toolbox interface {
	CryptoPrice(ctx context.Context, query string) string
	ForexRate(ctx context.Context, query string) string
	RSI(ctx context.Context, query string) string
	News(ctx context.Context, query string) string
}

type toolSpec struct {
	name        string
	description string
	run         func(Toolbox, context.Context, string) string
}

var toolSpecs = []toolSpec{
	{
		name: ToolCryptoPrice,
		description: "Fetch the current price of a cryptocurrency. " +
			"Input format: '<COIN> [,<CURRENCY>]' for example 'BTC' or 'ETH,EUR'. " +
			"By default, uses USD as the currency.",
		run: Toolbox.CryptoPrice,
	},
	{
		name: ToolForexRate,
		description: "Get the exchange rate for a currency pair. " +
			"Input format: 'BASE/QUOTE', e.g. 'EUR/USD' to get the rate of 1 EUR in USD.",
		run: Toolbox.ForexRate,
	},
	{
		name: ToolRSI,
		description: "Calculate the Relative Strength Index for an asset. " +
			"Input format: '<ASSET> [,<PERIOD>]' where ASSET can be a crypto symbol or forex pair. " +
			"Examples: 'BTC' (14-day RSI for Bitcoin/USD) or 'EUR/USD,14' for 14-day RSI on EUR/USD.",
		run: Toolbox.RSI,
	},
	{
		name: ToolNews,
		description: "Fetch recent news headlines related to a given asset or topic. " +
			"Input: an asset symbol or name (e.g. 'BTC' or 'Bitcoin' or 'EUR/USD'). " +
			"Returns a brief list of latest news headlines.",
		run: Toolbox.News,
	},
}

func toolDefinitions() []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(toolSpecs))
	for _, spec := range toolSpecs {
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        spec.name,
				Description: openai.String(spec.description),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "The tool input as described above.",
						},
					},
					"required": []string{"query"},
				},
			},
		})
	}
	return tools
}

type toolArgs struct {
	Query string `json:"query"`
}

// RunTool executes a named tool with its JSON arguments. Failures come back
// as text so the model can recover.
func RunTool(ctx context.Context, box Toolbox, name, arguments string) string {
	var args toolArgs
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err)
		}
	}

	for _, spec := range toolSpecs {
		if spec.name == name {
			return spec.run(box, ctx, args.Query)
		}
	}
	return fmt.Sprintf("Error: unknown tool %q.", name)
}
