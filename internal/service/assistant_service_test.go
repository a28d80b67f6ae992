package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"trading-assistant/internal/domain"
	"trading-assistant/internal/provider"
	"trading-assistant/internal/resolver"

	"go.opentelemetry.io/otel/trace"
)

var textbookCloses = []float64{44, 44.25, 44.5, 43.75, 44.5, 45, 45.5, 45.75, 45.5, 46, 46.5, 46.25, 46, 46.5}

type stubPrices struct {
	quote *domain.PriceQuote
	err   error
	calls int
}

func (s *stubPrices) SpotPrice(_ context.Context, coinID, currency string) (*domain.PriceQuote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	q := *s.quote
	q.CoinID, q.Currency = coinID, currency
	return &q, nil
}

type stubRates struct {
	rate *domain.ExchangeRate
	err  error
}

func (s *stubRates) ExchangeRate(_ context.Context, base, quote string) (*domain.ExchangeRate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rate, nil
}

type stubHistory struct {
	closes    []float64
	err       error
	calls     int
	lastAsset domain.AssetDescriptor
	lastCount int
}

func (s *stubHistory) Closes(_ context.Context, asset domain.AssetDescriptor, count int) ([]float64, error) {
	s.calls++
	s.lastAsset, s.lastCount = asset, count
	if s.err != nil {
		return nil, s.err
	}
	return s.closes, nil
}

type stubNews struct {
	headlines   []domain.NewsHeadline
	err         error
	lastTickers string
}

func (s *stubNews) News(_ context.Context, tickers string, _ int) ([]domain.NewsHeadline, error) {
	s.lastTickers = tickers
	return s.headlines, s.err
}

type memCache struct {
	values map[string]any
}

func (m *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := m.values[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.PriceQuote:
		*d = v.(domain.PriceQuote)
	case *[]float64:
		*d = append([]float64(nil), v.([]float64)...)
	}
	return true, nil
}

func (m *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	if m.values == nil {
		m.values = map[string]any{}
	}
	switch val := v.(type) {
	case *domain.PriceQuote:
		m.values[key] = *val
	default:
		m.values[key] = val
	}
	return nil
}

func newTestService(prices PriceProvider, rates RateProvider, history HistoryProvider, news NewsProvider) *AssistantService {
	return NewAssistantService(trace.NewNoopTracerProvider().Tracer("test"), resolver.NewDefault(), prices, rates, history, news)
}

func TestCryptoPrice(t *testing.T) {
	asOf := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		query string
		price float64
		err   error
		want  string
	}{
		{name: "large price", query: "BTC", price: 50000, want: "The current price of Btc is 50,000.00 USD (as of 2024-03-01 12:30:00)."},
		{name: "sub-unit price", query: "doge, eur", price: 0.12345, want: "The current price of Doge is 0.1235 EUR (as of 2024-03-01 12:30:00)."},
		{name: "empty", query: "  ", want: "Error: No cryptocurrency specified."},
		{name: "not found", query: "nocoin", err: domain.ErrNotFound, want: "Sorry, I couldn't find price data for 'nocoin'."},
		{name: "null price", query: "btc", err: provider.ErrEmptyValue, want: "Price data for BTC is not available."},
		{name: "rate limited", query: "btc", err: domain.ErrRateLimited, want: msgRateLimited},
		{name: "upstream failure", query: "eth", err: &provider.StatusError{Provider: "coingecko", StatusCode: 500}, want: "Error: Failed to fetch price for ETH."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := &stubPrices{quote: &domain.PriceQuote{Price: tt.price, AsOf: asOf}, err: tt.err}
			svc := newTestService(prices, nil, nil, nil)

			if got := svc.CryptoPrice(context.Background(), tt.query); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCryptoPriceUsesCache(t *testing.T) {
	prices := &stubPrices{quote: &domain.PriceQuote{Price: 2500, AsOf: time.Unix(0, 0).UTC()}}
	cache := &memCache{}
	svc := NewAssistantServiceWithCache(trace.NewNoopTracerProvider().Tracer("test"), nil, prices, nil, nil, nil, cache, time.Minute, time.Hour)

	first := svc.CryptoPrice(context.Background(), "ETH")
	second := svc.CryptoPrice(context.Background(), "eth")
	if first != second {
		t.Fatalf("expected identical answers, got %q and %q", first, second)
	}
	if prices.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", prices.calls)
	}

	if _, err := svc.RefreshQuote(context.Background(), "ETH"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if prices.calls != 2 {
		t.Fatalf("expected refresh to bypass cache, got %d calls", prices.calls)
	}
}

func TestForexRate(t *testing.T) {
	tests := []struct {
		name  string
		query string
		rate  *domain.ExchangeRate
		err   error
		want  string
	}{
		{
			name:  "with refresh time",
			query: "eur/usd",
			rate:  &domain.ExchangeRate{RawRate: "1.08340000", LastRefreshed: "2024-01-02 10:00:01"},
			want:  "1 EUR = 1.083400 USD (Last updated: 2024-01-02 10:00:01 UTC).",
		},
		{
			name:  "large rate without refresh time",
			query: "USD JPY",
			rate:  &domain.ExchangeRate{RawRate: "1451.5"},
			want:  "1 USD = 1,451.500000 JPY (Realtime from Alpha Vantage).",
		},
		{
			name:  "unparseable rate kept raw",
			query: "EUR,GBP",
			rate:  &domain.ExchangeRate{RawRate: "n/a"},
			want:  "1 EUR = n/a GBP (Realtime from Alpha Vantage).",
		},
		{name: "empty", query: "", want: "Error: No currency pair specified."},
		{name: "single code", query: "EUR", want: "Please provide a currency pair (e.g. EUR/USD)."},
		{name: "incomplete", query: "EUR/", want: "Please provide both currencies for the forex pair."},
		{name: "throttled", query: "EUR/USD", err: domain.ErrRateLimited, want: msgRateLimited},
		{name: "missing block", query: "EUR/XXX", err: domain.ErrNotFound, want: "Could not retrieve exchange rate for EUR/XXX."},
		{name: "empty rate", query: "EUR/USD", err: provider.ErrEmptyValue, want: "Exchange rate for EUR/USD not found."},
		{name: "failure", query: "EUR/USD", err: errors.New("boom"), want: "Error: Failed to fetch forex rate."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil, &stubRates{rate: tt.rate, err: tt.err}, nil, nil)
			if got := svc.ForexRate(context.Background(), tt.query); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRSIReportTextbookSeries(t *testing.T) {
	history := &stubHistory{closes: textbookCloses}
	svc := newTestService(nil, nil, history, nil)

	report, err := svc.RSIReport(context.Background(), "BTC, 13")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history.lastCount != 14 {
		t.Fatalf("expected period+1 closes requested, got %d", history.lastCount)
	}
	if history.lastAsset.Crypto == nil || history.lastAsset.Crypto.ID != "bitcoin" {
		t.Fatalf("unexpected asset: %+v", history.lastAsset)
	}
	if report.Value != 71.43 || report.Classification != domain.RSIOverbought {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Message != "The 13-day RSI for BTC is 71.43 (overbought)." {
		t.Fatalf("unexpected message: %q", report.Message)
	}
}

func TestRSIMessages(t *testing.T) {
	flat := make([]float64, 15)
	for i := range flat {
		flat[i] = 10
	}

	tests := []struct {
		name    string
		query   string
		closes  []float64
		histErr error
		want    string
	}{
		{name: "flat series", query: "ETH", closes: flat, want: "The 14-day RSI for ETH is 100.0 (overbought)."},
		{name: "pair", query: "eur/usd,5", closes: []float64{1, 0.9, 0.8, 0.7, 0.6, 0.5}, want: "The 5-day RSI for EUR/USD is 0.0 (oversold)."},
		{name: "empty", query: " ", want: "Error: No asset provided for RSI calculation."},
		{name: "empty asset", query: ",14", want: "Error: Asset symbol or pair is required for RSI."},
		{name: "insufficient", query: "BTC", closes: []float64{1, 2, 3}, want: "Not enough data to compute 14-day RSI for BTC."},
		{name: "throttled", query: "BTC", histErr: domain.ErrRateLimited, want: msgRateLimited},
		{name: "pair missing", query: "EUR/XXX", histErr: domain.ErrNotFound, want: "Could not retrieve historical prices for EUR/XXX."},
		{name: "pair failure", query: "EUR/USD", histErr: errors.New("boom"), want: "Error: Failed to fetch historical FX data."},
		{name: "crypto no series", query: "BTC", histErr: fmt.Errorf("%w: no price history for bitcoin", domain.ErrInsufficientData), want: "Not enough data to compute 14-day RSI for BTC."},
		{name: "crypto unknown", query: "BTC", histErr: domain.ErrNotFound, want: "Error: Failed to fetch historical data for BTC."},
		{name: "crypto failure", query: "btc 7", histErr: errors.New("boom"), want: "Error: Failed to fetch historical data for BTC."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil, nil, &stubHistory{closes: tt.closes, err: tt.histErr}, nil)
			if got := svc.RSI(context.Background(), tt.query); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRSIReportErrorCarriesAsset(t *testing.T) {
	svc := newTestService(nil, nil, &stubHistory{closes: []float64{1}}, nil)

	_, err := svc.RSIReport(context.Background(), "EUR USD 7")
	var rsiErr *RSIError
	if !errors.As(err, &rsiErr) {
		t.Fatalf("expected RSIError, got %v", err)
	}
	if rsiErr.Period != 7 || rsiErr.Asset.Kind != domain.AssetCrypto || rsiErr.Asset.Crypto.ID != "eur" {
		t.Fatalf("unexpected error payload: %+v", rsiErr)
	}
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
}

func TestRSIHistoryCache(t *testing.T) {
	history := &stubHistory{closes: textbookCloses}
	cache := &memCache{}
	svc := NewAssistantServiceWithCache(trace.NewNoopTracerProvider().Tracer("test"), nil, nil, nil, history, nil, cache, time.Minute, time.Hour)

	for i := 0; i < 3; i++ {
		if got := svc.RSI(context.Background(), "btc,13"); !strings.Contains(got, "71.43") {
			t.Fatalf("unexpected answer: %q", got)
		}
	}
	if history.calls != 1 {
		t.Fatalf("expected a single history fetch, got %d", history.calls)
	}
}

func TestNews(t *testing.T) {
	headlines := []domain.NewsHeadline{
		{Title: "One", Source: "Reuters", Published: "2024-01-03"},
		{Title: "Two", Published: "2024-01-02"},
		{Title: "Three", Source: "FT", Published: "2024-01-01"},
		{Title: "Four", Source: "WSJ", Published: "2023-12-31"},
	}

	news := &stubNews{headlines: headlines}
	svc := newTestService(nil, nil, nil, news)
	got := svc.News(context.Background(), "Bitcoin")
	want := "Latest news:\n1. One - Reuters (2024-01-03)\n2. Two (2024-01-02)\n3. Three - FT (2024-01-01)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if news.lastTickers != "CRYPTO:BTC" {
		t.Fatalf("unexpected tickers: %s", news.lastTickers)
	}
}

func TestNewsMessages(t *testing.T) {
	tests := []struct {
		query string
		err   error
		want  string
	}{
		{query: "", want: "Error: No topic provided for news."},
		{query: " / ", want: "Error: No topic provided for news."},
		{query: "AAPL", want: "No recent news for that topic."},
		{query: "AAPL", err: domain.ErrRateLimited, want: msgNewsRateLimited},
		{query: "AAPL", err: domain.ErrNotFound, want: "No news found for the given query."},
		{query: "AAPL", err: fmt.Errorf("wrapped: %w", errors.New("boom")), want: "Error: Failed to retrieve news."},
	}

	for _, tt := range tests {
		svc := newTestService(nil, nil, nil, &stubNews{err: tt.err})
		if got := svc.News(context.Background(), tt.query); got != tt.want {
			t.Fatalf("query %q: got %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{v: 0.5, decimals: 4, want: "0.5000"},
		{v: 999.999, decimals: 2, want: "1,000.00"},
		{v: 1234567.891, decimals: 2, want: "1,234,567.89"},
		{v: -1234.5, decimals: 2, want: "-1,234.50"},
		{v: 100, decimals: 6, want: "100.000000"},
	}
	for _, tt := range tests {
		if got := formatThousands(tt.v, tt.decimals); got != tt.want {
			t.Fatalf("formatThousands(%v, %d) = %q, want %q", tt.v, tt.decimals, got, tt.want)
		}
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"BTC":     "Btc",
		"bitcoin": "Bitcoin",
		"éther":   "Éther",
		"ÉTHER":   "Éther",
	}
	for in, want := range tests {
		got := capitalize(in)
		if got != want {
			t.Errorf("capitalize(%q) = %q, want %q", in, got, want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("capitalize(%q) produced invalid UTF-8 %q", in, got)
		}
	}
}
