// Package bootstrap assembles the service graph shared by every binary.
package bootstrap

import (
	"context"
	"time"

	"trading-assistant/internal/advisor"
	"trading-assistant/internal/cache"
	"trading-assistant/internal/config"
	"trading-assistant/internal/db"
	"trading-assistant/internal/provider"
	"trading-assistant/internal/repository"
	"trading-assistant/internal/resolver"
	"trading-assistant/internal/service"
	"trading-assistant/pkg/logger"

	"go.opentelemetry.io/otel/trace"
)

const cachePrefix = "trading-assistant:"

// Advisor is satisfied by *advisor.AdvisorService. A nil Advisor means the
// LLM is not configured.
type Advisor interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
}

// NewAssistant wires the CoinGecko and Alpha Vantage providers and the
// optional Redis cache into an AssistantService.
func NewAssistant(tracer trace.Tracer, cfg *config.Config) *service.AssistantService {
	timeout := seconds(cfg.ProviderTimeoutSecs)
	coingecko := provider.NewCoinGeckoProvider(tracer, provider.Options{
		BaseURL:       cfg.CoinGeckoBaseURL,
		APIKey:        cfg.CoinGeckoAPIKey,
		Timeout:       timeout,
		RatePerMinute: cfg.CoinGeckoRatePerMin,
	})
	alphaVantage := provider.NewAlphaVantageProvider(tracer, provider.Options{
		BaseURL:       cfg.AlphaVantageBaseURL,
		APIKey:        cfg.AlphaVantageAPIKey,
		Timeout:       timeout,
		RatePerMinute: cfg.AlphaVantageRatePerMin,
	})

	var quoteCache service.Cache
	if cache.Client != nil {
		quoteCache = cache.NewJSONCache(cache.Client, cachePrefix)
	}

	return service.NewAssistantServiceWithCache(
		tracer,
		resolver.NewDefault(),
		coingecko,
		alphaVantage,
		provider.NewHistoryProvider(coingecko, alphaVantage),
		alphaVantage,
		quoteCache,
		seconds(cfg.QuoteCacheTTLSecs),
		seconds(cfg.HistoryCacheTTLSecs),
	)
}

// NewConversationStore returns the Postgres store when a pool is open and
// migrated, otherwise an in-process store.
func NewConversationStore(ctx context.Context, tracer trace.Tracer, cfg *config.Config) advisor.ConversationStore {
	if db.Pool != nil {
		repo := repository.NewConversationRepository(db.Pool, tracer)
		err := repo.RunMigrations(ctx)
		if err == nil {
			return repo
		}
		logger.Get().Warnw("conversation migrations failed, using in-memory history", "error", err)
	}
	return advisor.NewInMemoryConversationStore(cfg.AdvisorMaxHistory * 2)
}

// NewAdvisor returns nil when OPENAI_API_KEY is unset.
func NewAdvisor(ctx context.Context, tracer trace.Tracer, cfg *config.Config, tools advisor.Toolbox) Advisor {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	llm := advisor.NewOpenAIClient(cfg.OpenAIAPIKey)
	store := NewConversationStore(ctx, tracer, cfg)
	return advisor.NewAdvisorService(tracer, llm, tools, store, cfg.OpenAIModel, cfg.AdvisorMaxHistory).
		WithMaxToolRounds(cfg.AdvisorMaxToolRounds)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
