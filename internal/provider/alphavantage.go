package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"trading-assistant/internal/domain"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	alphaVantageName       = "alphavantage"
	alphaVantageDefaultURL = "https://www.alphavantage.co"

	exchangeRateKey = "Realtime Currency Exchange Rate"
	fxDailyKey      = "Time Series FX (Daily)"
	newsTimeLayout  = "20060102T150405"
)

type AlphaVantageProvider struct {
	tracer  trace.Tracer
	opts    Options
	http    *http.Client
	limiter *Limiter
}

func NewAlphaVantageProvider(tracer trace.Tracer, opts Options) *AlphaVantageProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = alphaVantageDefaultURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.RatePerMinute == 0 {
		opts.RatePerMinute = 5
	}

	return &AlphaVantageProvider{
		tracer:  tracer,
		opts:    opts,
		http:    opts.httpClient(),
		limiter: NewLimiter(alphaVantageName, opts.RatePerMinute),
	}
}

// ExchangeRate returns the realtime rate for 1 base in quote.
func (p *AlphaVantageProvider) ExchangeRate(ctx context.Context, base, quote string) (*domain.ExchangeRate, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.exchange-rate")
	defer span.End()
	span.SetAttributes(attribute.String("fx.base", base), attribute.String("fx.quote", quote))

	root, err := p.query(ctx, "CURRENCY_EXCHANGE_RATE", url.Values{
		"from_currency": {base},
		"to_currency":   {quote},
	})
	if err != nil {
		return nil, fail(span, err)
	}

	block := root.Get(exchangeRateKey)
	if !block.Exists() {
		return nil, fail(span, missingPayload(root, fmt.Sprintf("exchange rate %s/%s", base, quote)))
	}

	raw := strings.TrimSpace(block.Get(`5\. Exchange Rate`).String())
	if raw == "" {
		return nil, fail(span, fmt.Errorf("%w: exchange rate %s/%s", ErrEmptyValue, base, quote))
	}
	rate, _ := strconv.ParseFloat(raw, 64)

	return &domain.ExchangeRate{
		Base:          base,
		Quote:         quote,
		Rate:          rate,
		RawRate:       raw,
		LastRefreshed: strings.TrimSpace(block.Get(`6\. Last Refreshed`).String()),
	}, nil
}

// FXDailyCloses returns up to count daily closes for the pair, oldest first.
func (p *AlphaVantageProvider) FXDailyCloses(ctx context.Context, base, quote string, count int) ([]float64, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.fx-daily-closes")
	defer span.End()
	span.SetAttributes(attribute.String("fx.base", base), attribute.String("fx.quote", quote), attribute.Int("count", count))

	root, err := p.query(ctx, "FX_DAILY", url.Values{
		"from_symbol": {base},
		"to_symbol":   {quote},
		"outputsize":  {"compact"},
	})
	if err != nil {
		return nil, fail(span, err)
	}

	series, ok := root.Map()[fxDailyKey]
	if !ok {
		return nil, fail(span, missingPayload(root, fmt.Sprintf("fx history %s/%s", base, quote)))
	}

	byDate := series.Map()
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if count > 0 && len(dates) > count {
		dates = dates[len(dates)-count:]
	}

	closes := make([]float64, 0, len(dates))
	for _, date := range dates {
		closes = append(closes, byDate[date].Get(`4\. close`).Float())
	}
	return closes, nil
}

// News returns up to limit headlines for an Alpha Vantage tickers expression.
func (p *AlphaVantageProvider) News(ctx context.Context, tickers string, limit int) ([]domain.NewsHeadline, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.news")
	defer span.End()
	span.SetAttributes(attribute.String("news.tickers", tickers))

	params := url.Values{"tickers": {tickers}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	root, err := p.query(ctx, "NEWS_SENTIMENT", params)
	if err != nil {
		return nil, fail(span, err)
	}

	articles := root.Get("feed")
	if !articles.Exists() {
		articles = root.Get("items")
	}
	if !articles.Exists() {
		return nil, fail(span, missingPayload(root, "news for "+tickers))
	}

	var headlines []domain.NewsHeadline
	articles.ForEach(func(_, item gjson.Result) bool {
		if limit > 0 && len(headlines) >= limit {
			return false
		}
		title := item.Get("title").String()
		if title == "" {
			title = "No title"
		}
		source := item.Get("source").String()
		if source == "" {
			source = item.Get("source_title").String()
		}
		headlines = append(headlines, domain.NewsHeadline{
			Title:     title,
			Source:    source,
			Published: publishedDate(item.Get("time_published").String()),
		})
		return true
	})
	return headlines, nil
}

func (p *AlphaVantageProvider) query(ctx context.Context, function string, params url.Values) (gjson.Result, error) {
	params.Set("function", function)
	params.Set("apikey", p.opts.APIKey)

	body, err := fetch(ctx, p.http, p.limiter, alphaVantageName, p.opts.BaseURL+"/query?"+params.Encode())
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s %s: invalid json", alphaVantageName, function)
	}
	return gjson.ParseBytes(body), nil
}

// Alpha Vantage answers throttled calls with 200 and a "Note" or
// "Information" message instead of the payload.
func missingPayload(root gjson.Result, what string) error {
	for _, key := range []string{"Note", "Information"} {
		if msg := root.Get(key); msg.Exists() {
			return fmt.Errorf("%w: %s", domain.ErrRateLimited, msg.String())
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
}

func publishedDate(raw string) string {
	if t, err := time.Parse(newsTimeLayout, raw); err == nil {
		return t.Format("2006-01-02")
	}
	if len(raw) > 10 {
		return raw[:10]
	}
	return raw
}
