package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"trading-assistant/internal/bootstrap"
	"trading-assistant/internal/bot"
	"trading-assistant/internal/cache"
	"trading-assistant/internal/config"
	"trading-assistant/internal/db"
	"trading-assistant/internal/handler"
	"trading-assistant/internal/job"
	"trading-assistant/internal/service"
	"trading-assistant/pkg/logger"
	"trading-assistant/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initLoggerFunc       = logger.Init
	initPostgresFunc     = db.InitPostgres
	initRedisFunc        = cache.InitRedis
	initTracerFunc       = tracing.InitTracer
	newAssistantFunc     = bootstrap.NewAssistant
	newAdvisorFunc       = bootstrap.NewAdvisor
	newQuoteWarmerFunc   = job.NewQuoteWarmer
	startWarmerFunc      = func(w *job.QuoteWarmer, ctx context.Context) { go w.Start(ctx) }
	startTelegramBotFunc = func(token string, assistant bot.Assistant, adv bot.Advisor) *bot.Bot {
		return bot.StartTelegramBot(token, assistant, adv)
	}
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	if err := initLoggerFunc(cfg.LogLevel, cfg.AppEnv); err != nil {
		logger.Get().Warnw("logger init failed, using development logger", "error", err)
	}
	log := logger.Get()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		log.Warnw("postgres unavailable, conversation memory kept in process", "error", err)
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

	warmer := newQuoteWarmerFunc(tracer, assistant, cfg.WarmSymbols, time.Duration(cfg.WarmPollSecs)*time.Second)
	startWarmerFunc(warmer, ctx)

	telegram := startTelegramBotFunc(cfg.TelegramBotToken, assistant, adv)
	defer telegram.Stop()

	r := newRouter(tracer, assistant, adv)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("listen failed", "addr", srv.Addr, "error", err)
		}
	}()
	log.Infow("http server started", "addr", srv.Addr)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Infow("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Infow("server exiting")
}

func newRouter(tracer trace.Tracer, assistant *service.AssistantService, adv bootstrap.Advisor) *gin.Engine {
	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	newHandlerFunc(tracer, assistant, adv).RegisterRoutes(r)
	return r
}
