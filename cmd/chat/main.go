package main

import (
	"context"
	"os"
	"os/user"

	"trading-assistant/internal/bootstrap"
	"trading-assistant/internal/cache"
	"trading-assistant/internal/config"
	"trading-assistant/internal/db"
	"trading-assistant/internal/tui"
	"trading-assistant/pkg/logger"
	"trading-assistant/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initLoggerFunc   = logger.Init
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newAssistantFunc = bootstrap.NewAssistant
	newAdvisorFunc   = bootstrap.NewAdvisor
	runProgramFunc   = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
	currentUserFunc = user.Current
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	// Console output would corrupt the alt screen, so only errors are logged.
	if err := initLoggerFunc("error", cfg.AppEnv); err != nil {
		logger.Get().Warnw("logger init failed, using development logger", "error", err)
	}
	log := logger.Get().With("component", "chat")
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		log.Debugw("postgres unavailable", "error", err)
	}
	defer db.Close()
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalw("failed to initialize tracer", "error", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	assistant := newAssistantFunc(tracer, cfg)
	adv := newAdvisorFunc(ctx, tracer, cfg, assistant)

	model := tui.NewAppModel(tui.Services{
		Market:    assistant,
		Advisor:   adv,
		Watchlist: cfg.WarmSymbols,
		Username:  localUsername(),
	})
	if err := runProgramFunc(model); err != nil {
		log.Errorw("terminal session failed", "error", err)
		os.Exit(1)
	}
}

func localUsername() string {
	if u, err := currentUserFunc(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
