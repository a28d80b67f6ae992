// Package resolver turns free-form tool queries such as "BTC,14", "EUR/USD"
// or "eth eur" into normalized asset descriptors.
package resolver

import (
	"errors"
	"strconv"
	"strings"

	"trading-assistant/internal/domain"
)

var (
	ErrNotAPair       = errors.New("not a currency pair")
	ErrIncompletePair = errors.New("both currencies are required")
)

type Resolver struct {
	symbols domain.SymbolTable
}

func New(symbols domain.SymbolTable) *Resolver {
	return &Resolver{symbols: symbols}
}

func NewDefault() *Resolver {
	return New(domain.DefaultSymbolTable())
}

func (r *Resolver) Symbols() domain.SymbolTable {
	return r.symbols
}

// Resolve parses an RSI query into an asset and a lookback period. A missing
// or malformed period silently becomes domain.DefaultRSIPeriod.
//
// A multi-word token without a slash ("EUR USD 7") takes the crypto path and
// yields coin "eur" quoted in "usd"; callers rely on that behaviour.
func (r *Resolver) Resolve(query string) (domain.AssetDescriptor, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.AssetDescriptor{}, 0, domain.ErrEmptyQuery
	}

	token, period := splitPeriod(query)
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.AssetDescriptor{}, 0, domain.ErrEmptyQuery
	}

	return r.classify(token), period, nil
}

func splitPeriod(query string) (string, int) {
	if left, right, ok := strings.Cut(query, ","); ok {
		return left, parsePeriod(right)
	}

	if strings.Contains(query, " ") {
		fields := strings.Fields(query)
		last := fields[len(fields)-1]
		if len(fields) > 1 && isDigits(last) {
			return strings.Join(fields[:len(fields)-1], " "), parsePeriod(last)
		}
	}
	return query, domain.DefaultRSIPeriod
}

func parsePeriod(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return domain.DefaultRSIPeriod
	}
	return n
}

func (r *Resolver) classify(token string) domain.AssetDescriptor {
	if base, quote, ok := strings.Cut(token, "/"); ok {
		return domain.NewPairDescriptor(
			strings.ToUpper(strings.TrimSpace(base)),
			strings.ToUpper(strings.TrimSpace(quote)),
		)
	}

	label := strings.ToUpper(token)
	coin := strings.ToLower(token)
	quote := domain.DefaultCryptoCurrency
	if strings.Contains(token, " ") {
		fields := strings.Fields(coin)
		coin = fields[0]
		if len(fields) > 1 {
			quote = fields[1]
		}
	}
	return domain.NewCryptoDescriptor(label, r.symbols.Lookup(coin), quote)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
