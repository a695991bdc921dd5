package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"binance-mcp/internal/domain"
	"binance-mcp/internal/tools"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthReportsConnectivity(t *testing.T) {
	h := New(trace.NewNoopTracerProvider().Tracer("test"), &stubDispatcher{}, &stubStatus{
		status: domain.ConnectivityStatus{Connected: false, Error: "timeout"},
	}, nil, testToken)

	w := serve(h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Status  string                    `json:"status"`
		Binance domain.ConnectivityStatus `json:"binance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Status != "degraded" || body.Binance.Error != "timeout" {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestHealthWithoutMonitor(t *testing.T) {
	h := New(trace.NewNoopTracerProvider().Tracer("test"), &stubDispatcher{}, nil, nil, testToken)
	w := serve(h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"ok"`)) {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestListToolsFiltersByDomain(t *testing.T) {
	h := New(trace.NewNoopTracerProvider().Tracer("test"), &stubDispatcher{}, nil, nil, testToken)

	w := serve(h, http.MethodGet, "/api/tools", nil)
	var all struct {
		Count int                `json:"count"`
		Tools []tools.Descriptor `json:"tools"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if all.Count != len(tools.AllTools()) {
		t.Fatalf("expected %d tools, got %d", len(tools.AllTools()), all.Count)
	}

	w = serve(h, http.MethodGet, "/api/tools?domain=ANALYTICS", nil)
	var analytics struct {
		Count int                `json:"count"`
		Tools []tools.Descriptor `json:"tools"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &analytics); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if analytics.Count != 6 {
		t.Fatalf("expected 6 analytics tools, got %d", analytics.Count)
	}
	for _, d := range analytics.Tools {
		if d.Domain != tools.DomainAnalytics {
			t.Fatalf("unexpected domain %s for %s", d.Domain, d.Name)
		}
	}
}

func TestCallToolForwardsBody(t *testing.T) {
	d := &stubDispatcher{results: map[string]tools.Result{
		"binance_spot_price": {Success: true, Data: map[string]any{"symbol": "BTCUSDT", "price": 50000.5}},
	}}
	h := New(trace.NewNoopTracerProvider().Tracer("test"), d, nil, nil, testToken)

	w := serve(h, http.MethodPost, "/api/tools/binance_spot_price", []byte(`{"symbol":"btcusdt"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if d.lastName != "binance_spot_price" || string(d.lastArgs) != `{"symbol":"btcusdt"}` {
		t.Fatalf("unexpected dispatch: %s %s", d.lastName, d.lastArgs)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["success"] != true || body["data"].(map[string]any)["price"] != 50000.5 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCallToolEmptyBody(t *testing.T) {
	d := &stubDispatcher{results: map[string]tools.Result{
		"binance_server_time": {Success: true, Data: map[string]any{"serverTime": 1}},
	}}
	h := New(trace.NewNoopTracerProvider().Tracer("test"), d, nil, nil, testToken)

	w := serve(h, http.MethodPost, "/api/tools/binance_server_time", nil)
	if w.Code != http.StatusOK || d.lastArgs != nil {
		t.Fatalf("expected nil args and 200, got %d args=%q", w.Code, d.lastArgs)
	}
}

func TestCallToolStatusByKind(t *testing.T) {
	d := &stubDispatcher{results: map[string]tools.Result{
		"binance_spot_place_order": {Error: "❌ Parameter validation failed", Kind: tools.KindValidation},
		"binance_account_info":     {Error: "API error 401: Invalid API-key", Kind: tools.KindExchange},
		"binance_spot_balances":    {Error: "dial tcp: timeout", Kind: tools.KindGateway},
		"binance_exchange_info":    {Error: "internal error", Kind: tools.KindUnexpected},
	}}
	h := New(trace.NewNoopTracerProvider().Tracer("test"), d, nil, nil, testToken)

	cases := map[string]int{
		"binance_spot_place_order": http.StatusBadRequest,
		"binance_account_info":     http.StatusBadGateway,
		"binance_spot_balances":    http.StatusServiceUnavailable,
		"binance_exchange_info":    http.StatusInternalServerError,
		"binance_make_coffee":      http.StatusNotFound,
	}
	for name, want := range cases {
		w := serve(h, http.MethodPost, "/api/tools/"+name, []byte(`{}`))
		if w.Code != want {
			t.Fatalf("%s: expected %d, got %d", name, want, w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if body["success"] != false || body["error"] == "" || body["kind"] == "" {
			t.Fatalf("%s: unexpected body %v", name, body)
		}
	}
}

func TestListInvocations(t *testing.T) {
	inv := &stubInvocations{list: []domain.ToolInvocation{
		{ID: "a", Tool: "binance_spot_price", Success: true, CreatedAt: time.Unix(0, 0).UTC()},
	}}
	h := New(trace.NewNoopTracerProvider().Tracer("test"), &stubDispatcher{}, nil, inv, testToken)

	w := serve(h, http.MethodGet, "/api/invocations?limit=10", nil)
	if w.Code != http.StatusOK || inv.lastLimit != 10 {
		t.Fatalf("expected 200 with limit 10, got %d limit=%d", w.Code, inv.lastLimit)
	}

	w = serve(h, http.MethodGet, "/api/invocations", nil)
	if w.Code != http.StatusOK || inv.lastLimit != defaultInvocationLimit {
		t.Fatalf("expected default limit, got %d", inv.lastLimit)
	}

	w = serve(h, http.MethodGet, "/api/invocations?limit=501", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", w.Code)
	}

	inv.err = errors.New("connection reset")
	w = serve(h, http.MethodGet, "/api/invocations", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store error, got %d", w.Code)
	}
}

func TestListInvocationsDisabled(t *testing.T) {
	h := New(trace.NewNoopTracerProvider().Tracer("test"), &stubDispatcher{}, nil, nil, testToken)
	w := serve(h, http.MethodGet, "/api/invocations", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

const testToken = "rest-token"

func TestAPIRequiresBearerToken(t *testing.T) {
	d := &stubDispatcher{results: map[string]tools.Result{
		"binance_futures_close_position": {Success: true, Data: map[string]any{"total": 1}},
	}}
	h := New(trace.NewNoopTracerProvider().Tracer("test"), d, nil, nil, testToken)
	body := []byte(`{"symbol":"BTCUSDT"}`)

	w := serveWithToken(h, http.MethodPost, "/api/tools/binance_futures_close_position", body, "")
	if w.Code != http.StatusUnauthorized || d.lastName != "" {
		t.Fatalf("expected 401 without dispatch, got %d dispatched=%q", w.Code, d.lastName)
	}

	w = serveWithToken(h, http.MethodPost, "/api/tools/binance_futures_close_position", body, "wrong")
	if w.Code != http.StatusForbidden || d.lastName != "" {
		t.Fatalf("expected 403 without dispatch, got %d dispatched=%q", w.Code, d.lastName)
	}

	w = serveWithToken(h, http.MethodGet, "/api/invocations", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invocations, got %d", w.Code)
	}

	w = serveWithToken(h, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected public health, got %d", w.Code)
	}

	w = serve(h, http.MethodPost, "/api/tools/binance_futures_close_position", body)
	if w.Code != http.StatusOK || d.lastName != "binance_futures_close_position" {
		t.Fatalf("expected authorised dispatch, got %d %q", w.Code, d.lastName)
	}
}

func TestAPIRejectsEverythingWithoutConfiguredToken(t *testing.T) {
	h := New(trace.NewNoopTracerProvider().Tracer("test"), &stubDispatcher{}, nil, nil, "")
	w := serveWithToken(h, http.MethodGet, "/api/tools", nil, "anything")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when no token is configured, got %d", w.Code)
	}
}

func serve(h *Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	return serveWithToken(h, method, path, body, testToken)
}

func serveWithToken(h *Handler, method, path string, body []byte, token string) *httptest.ResponseRecorder {
	router := gin.New()
	h.RegisterRoutes(router)

	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type stubDispatcher struct {
	results  map[string]tools.Result
	lastName string
	lastArgs json.RawMessage
}

func (s *stubDispatcher) Descriptors() []tools.Descriptor {
	return tools.AllTools()
}

func (s *stubDispatcher) Dispatch(ctx context.Context, name string, raw json.RawMessage) tools.Result {
	s.lastName = name
	s.lastArgs = raw
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
	err       error
}

func (s *stubInvocations) ListRecent(ctx context.Context, limit int) ([]domain.ToolInvocation, error) {
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}
