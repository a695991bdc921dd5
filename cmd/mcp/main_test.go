package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"

	"binance-mcp/internal/bot"
	"binance-mcp/internal/config"
	"binance-mcp/internal/domain"
	"binance-mcp/internal/job"
	mcpserver "binance-mcp/internal/mcp"
	"binance-mcp/internal/repository"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainMCPStdio(t *testing.T) {
	restore := stubMCPDeps(t, "stdio")
	defer restore()

	called := false
	origRunStdio := runStdioFunc
	runStdioFunc = func(ctx context.Context, server *sdkmcp.Server) error {
		called = true
		return nil
	}
	defer func() { runStdioFunc = origRunStdio }()

	main()

	if !called {
		t.Fatal("expected stdio transport to run")
	}
}

func TestMainMCPHTTP(t *testing.T) {
	restore := stubMCPDeps(t, "http")
	defer restore()

	httpStarted := false
	started := make(chan struct{})
	origStartHTTP := startHTTPServerFunc
	origNotify := setupSignalNotify
	origWait := waitForSignalFunc
	origShutdown := shutdownHTTPServerFn

	startHTTPServerFunc = func(*http.Server) error {
		httpStarted = true
		close(started)
		return http.ErrServerClosed
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) { <-started }
	shutdownHTTPServerFn = func(*http.Server, context.Context) error { return nil }

	defer func() {
		startHTTPServerFunc = origStartHTTP
		setupSignalNotify = origNotify
		waitForSignalFunc = origWait
		shutdownHTTPServerFn = origShutdown
	}()

	main()

	if !httpStarted {
		t.Fatal("expected http transport to start")
	}
}

func TestMainMCPHTTPRequiresToken(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{
		MCPHTTPEnabled: true,
		MCPHTTPBind:    "127.0.0.1",
		MCPHTTPPort:    8090,
	}
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test"}, nil)

	err := runHTTPMode(ctx, cancel, cfg, srv, nil)
	if err == nil {
		t.Fatal("expected missing token error")
	}
	if !strings.Contains(err.Error(), "MCP_AUTH_TOKEN is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMainMCPHTTPRequiresEnabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{MCPAuthToken: "secret"}
	err := runHTTPMode(ctx, cancel, cfg, sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test"}, nil), nil)
	if err == nil || !strings.Contains(err.Error(), "MCP_HTTP_ENABLED") {
		t.Fatalf("expected MCP_HTTP_ENABLED error, got %v", err)
	}
}

func TestStdioPreflight(t *testing.T) {
	origCheck := checkConnectivityFunc
	defer func() { checkConnectivityFunc = origCheck }()

	status := domain.ConnectivityStatus{Connected: true, Testnet: true}
	checkConnectivityFunc = func(context.Context, *job.ConnectivityMonitor) domain.ConnectivityStatus {
		return status
	}

	err := stdioPreflight(context.Background(), &config.Config{BinanceAPIKey: "key"}, nil)
	if err == nil || !strings.Contains(err.Error(), "BINANCE_SECRET_KEY") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}

	cfg := &config.Config{BinanceAPIKey: "key", BinanceSecretKey: "secret"}
	if err := stdioPreflight(context.Background(), cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status = domain.ConnectivityStatus{Error: "API error 451: restricted location"}
	err = stdioPreflight(context.Background(), cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "restricted location") {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}

func TestAccountScope(t *testing.T) {
	operator := domain.AccountKey("operator-key")
	tenant := domain.AccountKey("tenant-key")

	bare := accountScope{operator: operator}
	opts, invocations := bare.forAccount(tenant)
	if len(opts) != 1 || invocations != nil {
		t.Fatalf("expected account option only and no audit reader, got %d options, %v", len(opts), invocations)
	}

	scope := accountScope{
		repo:     repository.NewInvocationRepository(nil, trace.NewNoopTracerProvider().Tracer("test")),
		notifier: bot.NewTradeNotifier(nil, 1),
		operator: operator,
	}
	opts, invocations = scope.forAccount(operator)
	if len(opts) != 3 {
		t.Fatalf("expected account, audit and notifier options for the operator, got %d", len(opts))
	}
	if _, ok := invocations.(*repository.AccountInvocations); !ok {
		t.Fatalf("expected account-scoped audit reader, got %T", invocations)
	}

	opts, invocations = scope.forAccount(tenant)
	if len(opts) != 2 {
		t.Fatalf("expected tenant sessions to skip the notifier, got %d options", len(opts))
	}
	if invocations == nil {
		t.Fatal("expected tenant audit reader")
	}
}

func TestGatewayConfigFromEnv(t *testing.T) {
	cfg := &config.Config{BinanceTestnet: true, BinanceRecvWindowMs: 7000, BinanceHTTPTimeoutSecs: 4}
	gw := gatewayConfig(cfg, "k", "s")
	if gw.APIKey != "k" || gw.SecretKey != "s" || !gw.Testnet || gw.RecvWindowMs != 7000 || gw.HTTPTimeout.Seconds() != 4 {
		t.Fatalf("unexpected gateway config: %+v", gw)
	}
}

func stubMCPDeps(t *testing.T, transport string) func() {
	t.Helper()

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origStartBot := startTelegramBotFunc
	origCheck := checkConnectivityFunc
	origStartMonitor := startMonitorFunc
	origNewMCPServer := newMCPServerFunc
	origNewMCPHandler := newMCPHandlerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			BinanceAPIKey:         "key",
			BinanceSecretKey:      "secret",
			BinanceTestnet:        true,
			LogLevel:              "error",
			MCPTransport:          transport,
			MCPHTTPEnabled:        true,
			MCPHTTPBind:           "127.0.0.1",
			MCPHTTPPort:           8090,
			MCPAuthToken:          "secret",
			MCPRequestTimeoutSecs: 1,
			MCPRateLimitPerMin:    60,
			HealthPollSecs:        60,
		}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	startTelegramBotFunc = origStartBot
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	checkConnectivityFunc = func(context.Context, *job.ConnectivityMonitor) domain.ConnectivityStatus {
		return domain.ConnectivityStatus{Connected: true, Testnet: true}
	}
	startMonitorFunc = func(*job.ConnectivityMonitor, context.Context) {}
	newMCPServerFunc = func(trace.Tracer, mcpserver.Dispatcher, mcpserver.StatusReader, mcpserver.InvocationLister, mcpserver.ServerConfig) *sdkmcp.Server {
		return sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test-mcp"}, nil)
	}
	newMCPHandlerFunc = func(server *sdkmcp.Server, sessions mcpserver.SessionFactory, cfg mcpserver.HTTPHandlerConfig) http.Handler {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		startTelegramBotFunc = origStartBot
		checkConnectivityFunc = origCheck
		startMonitorFunc = origStartMonitor
		newMCPServerFunc = origNewMCPServer
		newMCPHandlerFunc = origNewMCPHandler
	}
}
