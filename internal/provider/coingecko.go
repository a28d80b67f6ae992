package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trading-assistant/internal/domain"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	coinGeckoName       = "coingecko"
	coinGeckoDefaultURL = "https://api.coingecko.com/api/v3"
)

type CoinGeckoProvider struct {
	tracer  trace.Tracer
	opts    Options
	http    *http.Client
	limiter *Limiter
	now     func() time.Time
}

func NewCoinGeckoProvider(tracer trace.Tracer, opts Options) *CoinGeckoProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = coinGeckoDefaultURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.RatePerMinute == 0 {
		opts.RatePerMinute = 30
	}

	return &CoinGeckoProvider{
		tracer:  tracer,
		opts:    opts,
		http:    opts.httpClient(),
		limiter: NewLimiter(coinGeckoName, opts.RatePerMinute),
		now:     time.Now,
	}
}

// SpotPrice returns the current price of coinID quoted in currency.
func (p *CoinGeckoProvider) SpotPrice(ctx context.Context, coinID, currency string) (*domain.PriceQuote, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.spot-price")
	defer span.End()
	span.SetAttributes(attribute.String("coin.id", coinID), attribute.String("coin.currency", currency))

	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", currency)
	p.withKey(params)

	body, err := p.get(ctx, p.opts.BaseURL+"/simple/price?"+params.Encode())
	if err != nil {
		return nil, fail(span, err)
	}

	coin, ok := gjson.ParseBytes(body).Map()[coinID]
	if !ok {
		return nil, fail(span, fmt.Errorf("%w: coin %s", domain.ErrNotFound, coinID))
	}
	value, ok := coin.Map()[currency]
	if !ok {
		return nil, fail(span, fmt.Errorf("%w: %s in %s", domain.ErrNotFound, coinID, currency))
	}
	if value.Type != gjson.Number {
		return nil, fail(span, fmt.Errorf("%w: price of %s", ErrEmptyValue, coinID))
	}

	return &domain.PriceQuote{
		CoinID:   coinID,
		Currency: currency,
		Price:    value.Float(),
		AsOf:     p.now(),
	}, nil
}

// DailyCloses returns up to days daily closing prices, oldest first.
func (p *CoinGeckoProvider) DailyCloses(ctx context.Context, coinID, currency string, days int) ([]float64, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.daily-closes")
	defer span.End()
	span.SetAttributes(attribute.String("coin.id", coinID), attribute.Int("days", days))

	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("days", strconv.Itoa(days))
	params.Set("interval", "daily")
	p.withKey(params)

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?%s", p.opts.BaseURL, url.PathEscape(coinID), params.Encode())
	body, err := p.get(ctx, endpoint)
	if err != nil {
		return nil, fail(span, err)
	}

	root := gjson.ParseBytes(body)
	if !root.Get("prices").IsArray() {
		return nil, fail(span, fmt.Errorf("%w: no price history for %s", domain.ErrInsufficientData, coinID))
	}

	points := root.Get("prices.#.1").Array()
	closes := make([]float64, 0, len(points))
	for _, point := range points {
		closes = append(closes, point.Float())
	}
	return tail(closes, days), nil
}

func (p *CoinGeckoProvider) get(ctx context.Context, rawURL string) ([]byte, error) {
	return fetch(ctx, p.http, p.limiter, coinGeckoName, rawURL)
}

func (p *CoinGeckoProvider) withKey(params url.Values) {
	if p.opts.APIKey != "" {
		params.Set("x_cg_pro_api_key", p.opts.APIKey)
	}
}

func tail(values []float64, n int) []float64 {
	if n > 0 && len(values) > n {
		return values[len(values)-n:]
	}
	return values
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
