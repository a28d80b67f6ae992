package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"trading-assistant/internal/domain"
	"trading-assistant/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubAssistant struct {
	mu        sync.Mutex
	queries   []string
	reportErr error
}

func (s *stubAssistant) record(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
}

func (s *stubAssistant) lastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return ""
	}
	return s.queries[len(s.queries)-1]
}

func (s *stubAssistant) CryptoPrice(_ context.Context, q string) string {
	s.record(q)
	return "The current price of Bitcoin is 50,000.00 USD (as of 2024-01-01 00:00:00)."
}

func (s *stubAssistant) ForexRate(_ context.Context, q string) string {
	s.record(q)
	return "1 EUR = 1.1000 USD (Last updated: 2024-01-01 00:00:00 UTC)."
}

func (s *stubAssistant) News(_ context.Context, q string) string {
	s.record(q)
	return "Latest news:\n1. Bitcoin rallies - Reuters (2024-01-01)"
}

func (s *stubAssistant) RSIReport(_ context.Context, q string) (*service.RSIReport, error) {
	s.record(q)
	if s.reportErr != nil {
		return nil, s.reportErr
	}
	return &service.RSIReport{
		Asset:          domain.NewCryptoDescriptor("BTC", "bitcoin", "usd"),
		Period:         14,
		Value:          71.43,
		Classification: domain.RSIOverbought,
		Message:        "14-day RSI for BTC is 71.43, which indicates overbought conditions.",
	}, nil
}

func testServer() (*sdkmcp.Server, *stubAssistant) {
	assistant := &stubAssistant{}
	srv := NewServer(nil, assistant, ServerConfig{RequestTimeout: time.Second})
	return srv, assistant
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
