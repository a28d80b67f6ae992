package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string

	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string

	OpenAIAPIKey         string
	OpenAIModel          string
	AdvisorMaxHistory    int
	AdvisorMaxToolRounds int

	CoinGeckoAPIKey        string
	CoinGeckoBaseURL       string
	CoinGeckoRatePerMin    int
	AlphaVantageAPIKey     string
	AlphaVantageBaseURL    string
	AlphaVantageRatePerMin int
	ProviderTimeoutSecs    int

	QuoteCacheTTLSecs   int
	HistoryCacheTTLSecs int
	WarmSymbols         []string
	WarmPollSecs        int

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	SSHAddr        string
	SSHHostKeyPath string
}

func Load() *Config {
	cfg := &Config{
		AppEnv:             strings.TrimSpace(os.Getenv("APP_ENV")),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		CoinGeckoAPIKey:    strings.TrimSpace(os.Getenv("COINGECKO_API_KEY")),
		AlphaVantageAPIKey: strings.TrimSpace(os.Getenv("ALPHA_VANTAGE_API_KEY")),
		MCPAuthToken:       os.Getenv("MCP_AUTH_TOKEN"),
	}

	cfg.LogLevel = stringOr("LOG_LEVEL", "info")
	cfg.HTTPAddr = stringOr("HTTP_ADDR", ":8080")

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, conversation memory will be kept in process")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, advisor will be disabled")
	}
	if cfg.AlphaVantageAPIKey == "" {
		log.Println("Warning: ALPHA_VANTAGE_API_KEY not set, forex and news lookups will fail")
	}

	cfg.OpenAIModel = stringOr("OPENAI_MODEL", "gpt-4o-mini")
	cfg.AdvisorMaxHistory = positiveInt("ADVISOR_MAX_HISTORY", 20)
	cfg.AdvisorMaxToolRounds = positiveInt("ADVISOR_MAX_TOOL_ROUNDS", 4)

	cfg.CoinGeckoBaseURL = stringOr("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3")
	cfg.CoinGeckoRatePerMin = positiveInt("COINGECKO_RATE_PER_MIN", 30)
	cfg.AlphaVantageBaseURL = stringOr("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co")
	cfg.AlphaVantageRatePerMin = positiveInt("ALPHA_VANTAGE_RATE_PER_MIN", 5)
	cfg.ProviderTimeoutSecs = positiveInt("PROVIDER_TIMEOUT_SECS", 10)

	cfg.QuoteCacheTTLSecs = positiveInt("QUOTE_CACHE_TTL_SECS", 30)
	cfg.HistoryCacheTTLSecs = positiveInt("HISTORY_CACHE_TTL_SECS", 900)
	cfg.WarmSymbols = parseSymbols(os.Getenv("WARM_SYMBOLS"), []string{"BTC", "ETH"})
	cfg.WarmPollSecs = positiveInt("WARM_POLL_SECS", 60)

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")
	cfg.MCPHTTPBind = stringOr("MCP_HTTP_BIND", "127.0.0.1")
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 15)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)

	cfg.SSHAddr = stringOr("SSH_ADDR", ":2222")
	cfg.SSHHostKeyPath = stringOr("SSH_HOST_KEY_PATH", ".ssh/id_ed25519")

	return cfg
}

func stringOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseSymbols(raw string, fallback []string) []string {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), fallback...)
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol == "" {
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
