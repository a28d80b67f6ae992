package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"trading-assistant/internal/bootstrap"
	"trading-assistant/internal/cache"
	"trading-assistant/internal/config"
	"trading-assistant/internal/db"
	"trading-assistant/internal/repository"
	"trading-assistant/internal/sshserver"
	"trading-assistant/pkg/logger"
	"trading-assistant/pkg/tracing"

	"github.com/charmbracelet/ssh"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	initLoggerFunc     = logger.Init
	initPostgresFunc   = db.InitPostgres
	initRedisFunc      = cache.InitRedis
	initTracerFunc     = tracing.InitTracer
	newAssistantFunc   = bootstrap.NewAssistant
	newAdvisorFunc     = bootstrap.NewAdvisor
	newUserStoreFunc   = newUserStore
	newWishServerFunc  = sshserver.NewWishServer
	startSSHServerFunc = func(srv *ssh.Server) error { return srv.ListenAndServe() }
	shutdownSSHFunc    = func(srv *ssh.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify  = ossignal.Notify
	waitForSignalFunc  = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	if err := initLoggerFunc(cfg.LogLevel, cfg.AppEnv); err != nil {
		logger.Get().Warnw("logger init failed, using development logger", "error", err)
	}
	log := logger.Get().With("component", "ssh")
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		log.Warnw("postgres unavailable, accepting any key", "error", err)
	}
	defer db.Close()
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalw("failed to initialize tracer", "error", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warnw("error shutting down tracer provider", "error", err)
		}
	}()

	assistant := newAssistantFunc(tracer, cfg)
	adv := newAdvisorFunc(ctx, tracer, cfg, assistant)

	sessions := sshserver.New(newUserStoreFunc(ctx, tracer), assistant, adv, cfg.WarmSymbols)
	srv, err := newWishServerFunc(sshserver.Config{
		Addr:        cfg.SSHAddr,
		HostKeyPath: cfg.SSHHostKeyPath,
		Watchlist:   cfg.WarmSymbols,
	}, sessions)
	if err != nil {
		log.Fatalw("failed to create ssh server", "error", err)
	}

	go func() {
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Fatalw("ssh server failed", "addr", cfg.SSHAddr, "error", err)
		}
	}()
	log.Infow("ssh server started", "addr", cfg.SSHAddr)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Infow("shutting down ssh server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := shutdownSSHFunc(srv, shutdownCtx); err != nil {
		log.Errorw("ssh server forced to shutdown", "error", err)
	}
}

// newUserStore returns nil unless Postgres is reachable and the users
// table is migrated.
func newUserStore(ctx context.Context, tracer trace.Tracer) sshserver.UserStore {
	if db.Pool == nil {
		return nil
	}
	repo := repository.NewSSHUserRepository(db.Pool, tracer)
	if err := repo.RunMigrations(ctx); err != nil {
		logger.Get().Warnw("ssh user migrations failed, accepting any key", "error", err)
		return nil
	}
	return repo
}
