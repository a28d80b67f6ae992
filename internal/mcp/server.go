package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trading-assistant/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	serverName          = "trading-assistant-mcp"
	serverVersion       = "1.0.0"
	serverInstructions  = "Use these tools and resources for crypto prices, forex rates, RSI readings and market news."
	defaultToolDeadline = 5 * time.Second
)

type ServerConfig struct {
	RequestTimeout time.Duration
	// Symbols backs market://supported-symbols. Defaults to the built-in table.
	Symbols domain.SymbolTable
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultToolDeadline
	}
	if len(c.Symbols.Symbols()) == 0 {
		c.Symbols = domain.DefaultSymbolTable()
	}
	return c
}

// NewServer exposes the assistant's market lookups as MCP tools and
// resources. A nil tracer disables request spans.
func NewServer(tracer trace.Tracer, assistant MarketAssistant, cfg ServerConfig) *sdkmcp.Server {
	cfg = cfg.withDefaults()

	srv := sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: serverName, Version: serverVersion},
		&sdkmcp.ServerOptions{Instructions: serverInstructions, Logger: slog.Default()},
	)
	middleware := []sdkmcp.Middleware{requestDeadline(cfg.RequestTimeout)}
	if tracer != nil {
		middleware = append(middleware, marketSpans(tracer))
	}
	srv.AddReceivingMiddleware(middleware...)

	registerTools(srv, assistant)
	registerResources(srv, assistant, cfg.Symbols)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

// requestDeadline caps how long a single MCP request may wait on upstream
// market providers.
func requestDeadline(limit time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		if limit <= 0 {
			return next
		}
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, cancel := context.WithTimeout(ctx, limit)
			defer cancel()
			return next(ctx, method, req)
		}
	}
}

// marketSpans opens one span per request, named after the tool or resource
// asked for. Tool results flagged IsError mark the span failed too.
func marketSpans(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			name, attrs := describeRequest(method, req)
			ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
			defer span.End()

			res, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else if toolFailed(res) {
				span.SetStatus(codes.Error, "tool returned an error result")
			}
			return res, err
		}
	}
}

func describeRequest(method string, req sdkmcp.Request) (string, []attribute.KeyValue) {
	attrs := []attribute.KeyValue{attribute.String("mcp.method", method)}
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		tool := strings.TrimSpace(r.Params.Name)
		if tool == "" {
			return "mcp.tools.call", attrs
		}
		return "mcp.tool." + tool, append(attrs, attribute.String("mcp.tool", tool))
	case *sdkmcp.ReadResourceRequest:
		uri := strings.TrimSpace(r.Params.URI)
		return "mcp.resource." + resourceName(uri), append(attrs, attribute.String("mcp.resource.uri", uri))
	}
	return "mcp." + strings.ReplaceAll(method, "/", "."), attrs
}

// resourceName maps market://<name> to its host and templated URIs such as
// rsi://BTC to their scheme.
func resourceName(uri string) string {
	u, err := url.Parse(uri)
	switch {
	case err != nil || u.Scheme == "":
		return "unknown"
	case u.Scheme == "market" && u.Host != "":
		return u.Host
	default:
		return u.Scheme
	}
}

func toolFailed(res sdkmcp.Result) bool {
	out, ok := res.(*sdkmcp.CallToolResult)
	return ok && out != nil && out.IsError
}
