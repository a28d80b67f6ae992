package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"trading-assistant/internal/bootstrap"
	"trading-assistant/internal/cache"
	"trading-assistant/internal/config"
	mcpserver "trading-assistant/internal/mcp"
	"trading-assistant/pkg/logger"
	"trading-assistant/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20 // 1MiB

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initLoggerFunc    = logger.Init
	initRedisFunc     = cache.InitRedis
	initTracerFunc    = tracing.InitTracer
	newAssistantFunc  = bootstrap.NewAssistant
	newMCPServerFunc  = mcpserver.NewServer
	newMCPHandlerFunc = mcpserver.NewHTTPTransportHandler
	runStdioFunc      = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	if err := initLoggerFunc(cfg.LogLevel, cfg.AppEnv); err != nil {
		logger.Get().Warnw("logger init failed, using development logger", "error", err)
	}
	log := logger.Get().With("component", "mcp")
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	mcpSrv := newMCPServerFunc(tracer, assistant, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
		Symbols:        assistant.Resolver().Symbols(),
	})

	switch strings.ToLower(strings.TrimSpace(cfg.MCPTransport)) {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatalw("mcp stdio server failed", "error", err)
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv); err != nil {
			log.Fatalw("mcp http server failed", "error", err)
		}
	default:
		log.Fatalw("unsupported MCP_TRANSPORT", "transport", cfg.MCPTransport)
	}
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, strconv.Itoa(cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	log := logger.Get().With("component", "mcp")

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("mcp http server failed", "addr", addr, "error", err)
		}
	}()
	log.Infow("mcp http server started", "addr", addr)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case <-waitChan(quit):
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}

func waitChan(quit <-chan os.Signal) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		waitForSignalFunc(quit)
		close(done)
	}()
	return done
}
