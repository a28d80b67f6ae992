package domain

import (
	"sort"
	"strings"
)

// SymbolTable maps lowercase ticker symbols to CoinGecko ids. Values are
// copied in and never mutated afterwards.
type SymbolTable struct {
	ids map[string]string
}

var defaultSymbols = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"ada":  "cardano",
	"xrp":  "ripple",
	"ltc":  "litecoin",
	"doge": "dogecoin",
}

func NewSymbolTable(entries map[string]string) SymbolTable {
	ids := make(map[string]string, len(entries))
	for symbol, id := range entries {
		ids[strings.ToLower(strings.TrimSpace(symbol))] = strings.ToLower(strings.TrimSpace(id))
	}
	return SymbolTable{ids: ids}
}

func DefaultSymbolTable() SymbolTable {
	return NewSymbolTable(defaultSymbols)
}

// Lookup returns the canonical id for symbol, or symbol itself lowercased on a miss.
func (t SymbolTable) Lookup(symbol string) string {
	symbol = strings.ToLower(symbol)
	if id, ok := t.ids[symbol]; ok {
		return id
	}
	return symbol
}

func (t SymbolTable) Contains(symbol string) bool {
	_, ok := t.ids[strings.ToLower(symbol)]
	return ok
}

// Symbols returns the known symbols upper-cased and sorted.
func (t SymbolTable) Symbols() []string {
	out := make([]string, 0, len(t.ids))
	for symbol := range t.ids {
		out = append(out, strings.ToUpper(symbol))
	}
	sort.Strings(out)
	return out
}
