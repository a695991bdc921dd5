package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"binance-mcp/internal/domain"
	"binance-mcp/internal/tools"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// stubDispatcher serves the real catalogue and answers calls from results.
type stubDispatcher struct {
	mu       sync.Mutex
	results  map[string]tools.Result
	lastName string
	lastArgs json.RawMessage
}

func (s *stubDispatcher) Descriptors() []tools.Descriptor {
	return tools.AllTools()
}

func (s *stubDispatcher) Dispatch(ctx context.Context, name string, raw json.RawMessage) tools.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastName = name
	s.lastArgs = append(json.RawMessage(nil), raw...)
	if res, ok := s.results[name]; ok {
		return res
	}
	return tools.Result{Error: "unknown tool: " + name, Kind: tools.KindUnknownTool}
}

type stubStatus struct {
	status domain.ConnectivityStatus
}

func (s *stubStatus) Status() domain.ConnectivityStatus { return s.status }

type stubInvocations struct {
	list      []domain.ToolInvocation
	lastLimit int
}

func (s *stubInvocations) ListRecent(ctx context.Context, limit int) ([]domain.ToolInvocation, error) {
	s.lastLimit = limit
	if len(s.list) > limit {
		return s.list[:limit], nil
	}
	return append([]domain.ToolInvocation(nil), s.list...), nil
}

func testServer() (*sdkmcp.Server, *stubDispatcher, *stubInvocations) {
	dispatcher := &stubDispatcher{results: map[string]tools.Result{
		"binance_spot_price":          {Success: true, Data: map[string]any{"symbol": "BTCUSDT", "price": 50000.5}},
		"binance_spot_balances":       {Success: true, Data: "💰 Spot balances\n\nBTC: 0.1"},
		"binance_spot_place_order":    {Error: "❌ Parameter validation failed:\n\nprice: Price is required.", Kind: tools.KindValidation},
		"binance_futures_open_orders": {Success: true, Data: []map[string]any{{"orderId": 1}}},
		"binance_account_info":        {Error: "API error 401: Invalid API-key", Kind: tools.KindExchange},
	}}
	status := &stubStatus{status: domain.ConnectivityStatus{Connected: true, Testnet: true, ClockDriftMs: 12, CheckedAt: time.Unix(0, 0).UTC()}}
	invocations := &stubInvocations{list: []domain.ToolInvocation{
		{ID: "a", Tool: "binance_spot_price", Domain: "market", Success: true},
		{ID: "b", Tool: "binance_spot_place_order", Domain: "spot", ErrorKind: "validation"},
	}}

	srv := NewServer(nil, dispatcher, status, invocations, ServerConfig{RequestTimeout: time.Second})
	return srv, dispatcher, invocations
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
	token   string
	headers map[string]string
	base    http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	for k, v := range t.headers {
		clone.Header.Set(k, v)
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

func textOf(res *sdkmcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return ""
	}
	if tc, ok := res.Content[0].(*sdkmcp.TextContent); ok {
		return tc.Text
	}
	return ""
}
