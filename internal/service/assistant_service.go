package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trading-assistant/internal/domain"
	"trading-assistant/internal/indicator"
	"trading-assistant/internal/provider"
	"trading-assistant/internal/resolver"
	"trading-assistant/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	newsRequestLimit = 5
	newsShownLimit   = 3

	msgRateLimited     = "API limit reached or service unavailable. Please try again later."
	msgNewsRateLimited = "News API limit reached. Please try again later."
	timestampLayout    = "2006-01-02 15:04:05"
)

type PriceProvider interface {
	SpotPrice(ctx context.Context, coinID, currency string) (*domain.PriceQuote, error)
}

type RateProvider interface {
	ExchangeRate(ctx context.Context, base, quote string) (*domain.ExchangeRate, error)
}

type HistoryProvider interface {
	Closes(ctx context.Context, asset domain.AssetDescriptor, count int) ([]float64, error)
}

type NewsProvider interface {
	News(ctx context.Context, tickers string, limit int) ([]domain.NewsHeadline, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// RSIReport is the typed result of an RSI lookup.
type RSIReport struct {
	Asset          domain.AssetDescriptor   `json:"asset"`
	Period         int                      `json:"period"`
	Value          float64                  `json:"value"`
	Classification domain.RSIClassification `json:"classification"`
	Message        string                   `json:"message"`
}

// AssistantService answers the four market tools with user-facing text.
// Every string method swallows its errors into a readable message.
type AssistantService struct {
	tracer     trace.Tracer
	resolver   *resolver.Resolver
	prices     PriceProvider
	rates      RateProvider
	history    HistoryProvider
	news       NewsProvider
	cache      Cache
	quoteTTL   time.Duration
	historyTTL time.Duration
	log        *logger.Logger
}

func NewAssistantService(
	tracer trace.Tracer,
	res *resolver.Resolver,
	prices PriceProvider,
	rates RateProvider,
	history HistoryProvider,
	news NewsProvider,
) *AssistantService {
	return NewAssistantServiceWithCache(tracer, res, prices, rates, history, news, nil, 0, 0)
}

func NewAssistantServiceWithCache(
	tracer trace.Tracer,
	res *resolver.Resolver,
	prices PriceProvider,
	rates RateProvider,
	history HistoryProvider,
	news NewsProvider,
	cache Cache,
	quoteTTL, historyTTL time.Duration,
) *AssistantService {
	if res == nil {
		res = resolver.NewDefault()
	}
	return &AssistantService{
		tracer:     tracer,
		resolver:   res,
		prices:     prices,
		rates:      rates,
		history:    history,
		news:       news,
		cache:      cache,
		quoteTTL:   quoteTTL,
		historyTTL: historyTTL,
		log:        logger.Get().With("component", "assistant-service"),
	}
}

func (s *AssistantService) Resolver() *resolver.Resolver {
	return s.resolver
}

// CryptoPrice answers queries like "BTC", "BTC,EUR" or "bitcoin usd".
func (s *AssistantService) CryptoPrice(ctx context.Context, query string) string {
	ctx, span := s.tracer.Start(ctx, "assistant-service.crypto-price")
	defer span.End()

	pq, err := s.resolver.ParsePriceQuery(query)
	if err != nil {
		return "Error: No cryptocurrency specified."
	}
	span.SetAttributes(attribute.String("coin.id", pq.CoinID), attribute.String("coin.currency", pq.Currency))

	quote, err := s.spotPrice(ctx, pq, true)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, provider.ErrEmptyValue):
		return fmt.Sprintf("Price data for %s is not available.", strings.ToUpper(pq.Symbol))
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("Sorry, I couldn't find price data for '%s'.", pq.Symbol)
	default:
		s.log.Warnw("crypto price lookup failed", "coin", pq.CoinID, "error", err)
		return fmt.Sprintf("Error: Failed to fetch price for %s.", strings.ToUpper(pq.Symbol))
	}

	return fmt.Sprintf("The current price of %s is %s %s (as of %s).",
		capitalize(pq.Symbol),
		formatPrice(quote.Price),
		strings.ToUpper(pq.Currency),
		quote.AsOf.Format(timestampLayout),
	)
}

// RefreshQuote fetches a spot price upstream and overwrites the cached copy.
func (s *AssistantService) RefreshQuote(ctx context.Context, query string) (*domain.PriceQuote, error) {
	ctx, span := s.tracer.Start(ctx, "assistant-service.refresh-quote")
	defer span.End()

	pq, err := s.resolver.ParsePriceQuery(query)
	if err != nil {
		return nil, err
	}
	return s.spotPrice(ctx, pq, false)
}

func (s *AssistantService) spotPrice(ctx context.Context, pq resolver.PriceQuery, useCache bool) (*domain.PriceQuote, error) {
	if s.prices == nil {
		return nil, errors.New("price provider is not configured")
	}

	key := "quote:" + pq.CoinID + ":" + pq.Currency
	if useCache && s.cache != nil {
		var cached domain.PriceQuote
		if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.log.Warnw("quote cache read failed", "key", key, "error", err)
		} else if ok {
			cached.Symbol = pq.Symbol
			return &cached, nil
		}
	}

	quote, err := s.prices.SpotPrice(ctx, pq.CoinID, pq.Currency)
	if err != nil {
		return nil, err
	}
	quote.Symbol = pq.Symbol

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, quote, s.quoteTTL); err != nil {
			s.log.Warnw("quote cache write failed", "key", key, "error", err)
		}
	}
	return quote, nil
}

// ForexRate answers queries like "EUR/USD", "EUR,USD" or "EUR USD".
func (s *AssistantService) ForexRate(ctx context.Context, query string) string {
	ctx, span := s.tracer.Start(ctx, "assistant-service.forex-rate")
	defer span.End()

	base, quote, err := resolver.ParseForexQuery(query)
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return "Error: No currency pair specified."
	case errors.Is(err, resolver.ErrNotAPair):
		return "Please provide a currency pair (e.g. EUR/USD)."
	case err != nil:
		return "Please provide both currencies for the forex pair."
	}
	span.SetAttributes(attribute.String("fx.pair", base+"/"+quote))

	if s.rates == nil {
		return "Error: Failed to fetch forex rate."
	}
	rate, err := s.rates.ExchangeRate(ctx, base, quote)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, provider.ErrEmptyValue):
		return fmt.Sprintf("Exchange rate for %s/%s not found.", base, quote)
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("Could not retrieve exchange rate for %s/%s.", base, quote)
	default:
		s.log.Warnw("forex lookup failed", "pair", base+"/"+quote, "error", err)
		return "Error: Failed to fetch forex rate."
	}

	rateStr := rate.RawRate
	if v, err := strconv.ParseFloat(rate.RawRate, 64); err == nil {
		rateStr = formatThousands(v, 6)
	}
	if rate.LastRefreshed != "" {
		return fmt.Sprintf("1 %s = %s %s (Last updated: %s UTC).", base, rateStr, quote, rate.LastRefreshed)
	}
	return fmt.Sprintf("1 %s = %s %s (Realtime from Alpha Vantage).", base, rateStr, quote)
}

// RSI answers queries like "BTC", "BTC,14", "EUR/USD,14" or "ETH 7".
func (s *AssistantService) RSI(ctx context.Context, query string) string {
	report, err := s.RSIReport(ctx, query)
	if err == nil {
		return report.Message
	}

	if strings.TrimSpace(query) == "" {
		return "Error: No asset provided for RSI calculation."
	}
	if errors.Is(err, domain.ErrEmptyQuery) {
		return "Error: Asset symbol or pair is required for RSI."
	}

	var rsiErr *RSIError
	if !errors.As(err, &rsiErr) {
		return fmt.Sprintf("Error calculating RSI: %v", err)
	}
	asset := rsiErr.Asset
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		return fmt.Sprintf("Not enough data to compute %d-day RSI for %s.", rsiErr.Period, asset.Label)
	case errors.Is(err, domain.ErrRateLimited):
		return msgRateLimited
	case asset.Kind == domain.AssetCurrencyPair && errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("Could not retrieve historical prices for %s.", asset.Label)
	case asset.Kind == domain.AssetCurrencyPair:
		return "Error: Failed to fetch historical FX data."
	default:
		return fmt.Sprintf("Error: Failed to fetch historical data for %s.", asset.Label)
	}
}

// RSIError carries the resolved request alongside a lookup failure.
type RSIError struct {
	Asset  domain.AssetDescriptor
	Period int
	Err    error
}

func (e *RSIError) Error() string {
	return fmt.Sprintf("rsi %s (%d): %v", e.Asset.Label, e.Period, e.Err)
}

func (e *RSIError) Unwrap() error {
	return e.Err
}

// RSIReport resolves query, fetches period+1 closes and runs the engine.
func (s *AssistantService) RSIReport(ctx context.Context, query string) (*RSIReport, error) {
	ctx, span := s.tracer.Start(ctx, "assistant-service.rsi")
	defer span.End()

	asset, period, err := s.resolver.Resolve(query)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("asset.label", asset.Label), attribute.Int("rsi.period", period))

	closes, err := s.closes(ctx, asset, period+1)
	if err != nil {
		s.log.Warnw("rsi history lookup failed", "asset", asset.Label, "period", period, "error", err)
		return nil, &RSIError{Asset: asset, Period: period, Err: err}
	}

	result, err := indicator.ComputeRSI(closes, period)
	if err != nil {
		return nil, &RSIError{Asset: asset, Period: period, Err: err}
	}

	return &RSIReport{
		Asset:          asset,
		Period:         period,
		Value:          result.Value,
		Classification: result.Classification,
		Message:        indicator.FormatRSI(period, asset.Label, result),
	}, nil
}

func (s *AssistantService) closes(ctx context.Context, asset domain.AssetDescriptor, count int) ([]float64, error) {
	if s.history == nil {
		return nil, errors.New("history provider is not configured")
	}

	key := fmt.Sprintf("closes:%s:%d", asset.CacheKey(), count)
	if s.cache != nil {
		var cached []float64
		if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.log.Warnw("history cache read failed", "key", key, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	closes, err := s.history.Closes(ctx, asset, count)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(closes) >= count {
		if err := s.cache.Set(ctx, key, closes, s.historyTTL); err != nil {
			s.log.Warnw("history cache write failed", "key", key, "error", err)
		}
	}
	return closes, nil
}

// News answers queries like "BTC", "Bitcoin" or "EUR/USD" with up to three headlines.
func (s *AssistantService) News(ctx context.Context, query string) string {
	ctx, span := s.tracer.Start(ctx, "assistant-service.news")
	defer span.End()

	tickers, err := s.resolver.NewsTickers(query)
	if err != nil {
		return "Error: No topic provided for news."
	}
	span.SetAttributes(attribute.String("news.tickers", tickers))

	if s.news == nil {
		return "Error: Failed to retrieve news."
	}
	headlines, err := s.news.News(ctx, tickers, newsRequestLimit)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRateLimited):
		return msgNewsRateLimited
	case errors.Is(err, domain.ErrNotFound):
		return "No news found for the given query."
	default:
		s.log.Warnw("news lookup failed", "tickers", tickers, "error", err)
		return "Error: Failed to retrieve news."
	}
	if len(headlines) == 0 {
		return "No recent news for that topic."
	}
	if len(headlines) > newsShownLimit {
		headlines = headlines[:newsShownLimit]
	}

	var b strings.Builder
	b.WriteString("Latest news:")
	for i, h := range headlines {
		if h.Source != "" {
			fmt.Fprintf(&b, "\n%d. %s - %s (%s)", i+1, h.Title, h.Source, h.Published)
		} else {
			fmt.Fprintf(&b, "\n%d. %s (%s)", i+1, h.Title, h.Published)
		}
	}
	return b.String()
}
