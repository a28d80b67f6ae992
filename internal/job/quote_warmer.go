package job

import (
	"context"
	"time"

	"trading-assistant/internal/domain"
	"trading-assistant/internal/service"
	"trading-assistant/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const historyEvery = 15

// QuoteWarmer keeps the cache hot for commonly requested assets.
type QuoteWarmer struct {
	tracer   trace.Tracer
	warmer   Warmer
	symbols  []string
	interval time.Duration
	log      *logger.Logger
}

type Warmer interface {
	RefreshQuote(ctx context.Context, query string) (*domain.PriceQuote, error)
	RSIReport(ctx context.Context, query string) (*service.RSIReport, error)
}

func NewQuoteWarmer(tracer trace.Tracer, warmer Warmer, symbols []string, interval time.Duration) *QuoteWarmer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &QuoteWarmer{
		tracer:   tracer,
		warmer:   warmer,
		symbols:  append([]string(nil), symbols...),
		interval: interval,
		log:      logger.Get().With("component", "quote-warmer"),
	}
}

// Start refreshes quotes every interval and daily history every
// historyEvery intervals. Blocks until ctx is cancelled.
func (w *QuoteWarmer) Start(ctx context.Context) {
	if w.warmer == nil || len(w.symbols) == 0 {
		w.log.Infow("quote warmer disabled")
		<-ctx.Done()
		return
	}

	w.log.Infow("quote warmer starting", "symbols", w.symbols, "interval", w.interval)
	w.warmQuotes(ctx)
	w.warmHistory(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			w.log.Infow("quote warmer stopped")
			return
		case <-ticker.C:
			ticks++
			w.warmQuotes(ctx)
			if ticks%historyEvery == 0 {
				w.warmHistory(ctx)
			}
		}
	}
}

func (w *QuoteWarmer) warmQuotes(ctx context.Context) int {
	ctx, span := w.tracer.Start(ctx, "quote-warmer.quotes")
	defer span.End()

	warmed := 0
	for _, symbol := range w.symbols {
		if ctx.Err() != nil {
			break
		}
		if _, err := w.warmer.RefreshQuote(ctx, symbol); err != nil {
			w.log.Warnw("quote refresh failed", "symbol", symbol, "error", err)
			continue
		}
		warmed++
	}
	span.SetAttributes(attribute.Int("warmed", warmed))
	return warmed
}

func (w *QuoteWarmer) warmHistory(ctx context.Context) int {
	ctx, span := w.tracer.Start(ctx, "quote-warmer.history")
	defer span.End()

	warmed := 0
	for _, symbol := range w.symbols {
		if ctx.Err() != nil {
			break
		}
		if _, err := w.warmer.RSIReport(ctx, symbol); err != nil {
			w.log.Warnw("history warm failed", "symbol", symbol, "error", err)
			continue
		}
		warmed++
	}
	span.SetAttributes(attribute.Int("warmed", warmed))
	return warmed
}
