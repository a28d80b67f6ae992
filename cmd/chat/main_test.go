package main

import (
	"context"
	"errors"
	"os/user"
	"testing"

	"trading-assistant/internal/config"
	"trading-assistant/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainRunsTerminalSession(t *testing.T) {
	restore := stubChatDeps()
	defer restore()

	var got tea.Model
	runProgramFunc = func(m tea.Model) error {
		got = m
		return nil
	}
	currentUserFunc = func() (*user.User, error) { return &user.User{Username: "trader"}, nil }

	main()

	app, ok := got.(tui.AppModel)
	if !ok {
		t.Fatalf("expected tui.AppModel, got %T", got)
	}
	if app.ActiveTab() != tui.TabChat {
		t.Fatalf("expected chat tab first, got %v", app.ActiveTab())
	}
}

func TestLocalUsernameFallsBackToEnv(t *testing.T) {
	orig := currentUserFunc
	defer func() { currentUserFunc = orig }()

	currentUserFunc = func() (*user.User, error) { return nil, errors.New("no passwd entry") }
	t.Setenv("USER", "fallback")
	if got := localUsername(); got != "fallback" {
		t.Fatalf("expected env username, got %q", got)
	}
}

func stubChatDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitLogger := initLoggerFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origRun := runProgramFunc
	origUser := currentUserFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			CoinGeckoBaseURL:       "http://127.0.0.1:0",
			CoinGeckoRatePerMin:    60,
			AlphaVantageBaseURL:    "http://127.0.0.1:0",
			AlphaVantageRatePerMin: 60,
			ProviderTimeoutSecs:    1,
			WarmSymbols:            []string{"BTC"},
		}
	}
	initLoggerFunc = func(string, string) error { return nil }
	initPostgresFunc = func(context.Context, string) error { return nil }
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initLoggerFunc = origInitLogger
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		runProgramFunc = origRun
		currentUserFunc = origUser
	}
}
