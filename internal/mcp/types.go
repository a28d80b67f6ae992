package mcp

import (
	"fmt"
	"strconv"
	"strings"

	"trading-assistant/internal/domain"
)

const maxRSIPeriod = 365

type queryInput struct {
	Query string `json:"query" jsonschema:"free-form query, e.g. BTC, ETH in EUR, EUR/USD, bitcoin"`
}

type textOutput struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

type rsiInput struct {
	Asset  string `json:"asset" jsonschema:"crypto symbol (BTC) or currency pair (EUR/USD)"`
	Period int    `json:"period,omitempty" jsonschema:"look-back period in days, default 14"`
}

type symbolEntry struct {
	Symbol string `json:"symbol"`
	CoinID string `json:"coin_id"`
}

type rsiThresholds struct {
	Overbought    float64 `json:"overbought"`
	Oversold      float64 `json:"oversold"`
	DefaultPeriod int     `json:"default_period"`
}

func normalizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	return query, nil
}

// rsiQuery renders an asset and optional period into the resolver's
// "<asset>,<period>" form.
func rsiQuery(asset string, period int) (string, error) {
	asset = strings.TrimSpace(asset)
	if asset == "" {
		return "", fmt.Errorf("asset is required")
	}
	if strings.Contains(asset, ",") {
		return "", fmt.Errorf("asset must not contain a comma; pass period separately")
	}
	if period < 0 || period > maxRSIPeriod {
		return "", fmt.Errorf("period must be between 1 and %d", maxRSIPeriod)
	}
	if period == 0 {
		return asset, nil
	}
	return asset + "," + strconv.Itoa(period), nil
}

// uriAsset turns the host of an rsi:// URI back into an asset query.
// EUR-USD and EUR_USD are accepted for pairs since "/" cannot appear there.
func uriAsset(host string) string {
	host = strings.TrimSpace(host)
	for _, sep := range []string{"-", "_"} {
		base, quote, ok := strings.Cut(host, sep)
		if ok && len(base) == 3 && len(quote) == 3 {
			return strings.ToUpper(base) + "/" + strings.ToUpper(quote)
		}
	}
	return host
}

func supportedSymbols(table domain.SymbolTable) []symbolEntry {
	symbols := table.Symbols()
	out := make([]symbolEntry, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, symbolEntry{Symbol: symbol, CoinID: table.Lookup(symbol)})
	}
	return out
}

func defaultThresholds() rsiThresholds {
	return rsiThresholds{
		Overbought:    domain.RSIOverboughtThreshold,
		Oversold:      domain.RSIOversoldThreshold,
		DefaultPeriod: domain.DefaultRSIPeriod,
	}
}
