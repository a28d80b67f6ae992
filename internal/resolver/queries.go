package resolver

import (
	"regexp"
	"strings"

	"trading-assistant/internal/domain"
)

type PriceQuery struct {
	Symbol   string
	CoinID   string
	Currency string
}

// ParsePriceQuery accepts "BTC", "BTC,EUR" or "bitcoin usd".
func (r *Resolver) ParsePriceQuery(query string) (PriceQuery, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return PriceQuery{}, domain.ErrEmptyQuery
	}

	var parts []string
	if left, right, ok := strings.Cut(query, ","); ok {
		parts = []string{strings.TrimSpace(left), strings.TrimSpace(right)}
	} else {
		parts = strings.Fields(query)
	}

	coin := strings.ToLower(strings.TrimSpace(parts[0]))
	if coin == "" {
		return PriceQuery{}, domain.ErrEmptyQuery
	}
	currency := domain.DefaultCryptoCurrency
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		currency = strings.ToLower(strings.TrimSpace(parts[1]))
	}

	return PriceQuery{Symbol: coin, CoinID: r.symbols.Lookup(coin), Currency: currency}, nil
}

// ParseForexQuery accepts "EUR/USD", "EUR,USD" or "EUR USD".
func ParseForexQuery(query string) (string, string, error) {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return "", "", domain.ErrEmptyQuery
	}

	var base, quote string
	switch {
	case strings.Contains(query, "/"):
		base, quote, _ = strings.Cut(query, "/")
	case strings.Contains(query, ","):
		base, quote, _ = strings.Cut(query, ",")
	case strings.Contains(query, " "):
		fields := strings.Fields(query)
		base = fields[0]
		if len(fields) > 1 {
			quote = fields[1]
		}
	default:
		return "", "", ErrNotAPair
	}

	base = strings.TrimSpace(base)
	quote = strings.TrimSpace(quote)
	if base == "" || quote == "" {
		return "", "", ErrIncompletePair
	}
	return base, quote, nil
}

var (
	fiatCodes = map[string]struct{}{
		"USD": {}, "EUR": {}, "JPY": {}, "GBP": {}, "AUD": {}, "CAD": {}, "CHF": {}, "CNY": {}, "HKD": {},
	}
	newsCryptoSymbols = map[string]struct{}{
		"BTC": {}, "ETH": {}, "XRP": {}, "LTC": {}, "DOGE": {},
	}
	newsNameToTicker = map[string]string{
		"BITCOIN":  "CRYPTO:BTC",
		"ETHEREUM": "CRYPTO:ETH",
	}
	pairSeparators = regexp.MustCompile(`[ /]+`)
)

// NewsTickers maps a news topic onto the Alpha Vantage tickers parameter.
func (r *Resolver) NewsTickers(query string) (string, error) {
	topic := strings.ToUpper(strings.TrimSpace(query))
	if topic == "" {
		return "", domain.ErrEmptyQuery
	}

	if strings.ContainsAny(topic, "/ ") {
		var parts []string
		for _, p := range pairSeparators.Split(topic, -1) {
			if p != "" {
				parts = append(parts, p)
			}
		}
		switch {
		case len(parts) == 0:
			return "", domain.ErrEmptyQuery
		case len(parts) == 1:
			return "FOREX:" + parts[0], nil
		}
		return "FOREX:" + parts[0] + ",FOREX:" + parts[1], nil
	}

	if _, ok := fiatCodes[topic]; ok {
		return "FOREX:" + topic, nil
	}
	if len(topic) <= 5 && isAlpha(topic) {
		if _, ok := newsCryptoSymbols[topic]; ok || r.symbols.Contains(topic) {
			return "CRYPTO:" + topic, nil
		}
		return topic, nil
	}
	if ticker, ok := newsNameToTicker[topic]; ok {
		return ticker, nil
	}
	return topic, nil
}

func isAlpha(s string) bool {
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return s != ""
}
