package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"binance-mcp/internal/bot"
	"binance-mcp/internal/cache"
	"binance-mcp/internal/config"
	"binance-mcp/internal/db"
	"binance-mcp/internal/domain"
	"binance-mcp/internal/gateway"
	"binance-mcp/internal/job"
	mcpserver "binance-mcp/internal/mcp"
	"binance-mcp/internal/repository"
	"binance-mcp/internal/tools"
	"binance-mcp/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverVersion = "1.0.0"

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20 // 1MiB

var (
	loadEnvFunc           = godotenv.Load
	loadConfigFunc        = config.Load
	initPostgresFunc      = db.InitPostgres
	initRedisFunc         = cache.InitRedis
	initTracerFunc        = tracing.InitTracer
	newGatewayFunc        = gateway.NewClient
	newInvocationRepoFunc = repository.NewInvocationRepository
	startTelegramBotFunc  = bot.StartTelegramBot
	newMCPServerFunc      = mcpserver.NewServer
	newMCPHandlerFunc     = mcpserver.NewHTTPTransportHandler
	checkConnectivityFunc = func(ctx context.Context, m *job.ConnectivityMonitor) domain.ConnectivityStatus {
		return m.Check(ctx)
	}
	startMonitorFunc = func(m *job.ConnectivityMonitor, ctx context.Context) { go m.Start(ctx) }
	runStdioFunc     = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()
	setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var infoCache gateway.InfoCache
	if cache.Client != nil {
		infoCache = cache.NewExchangeInfoStore(cache.Client, cfg.ExchangeInfoTTL())
	}
	newClient := func(apiKey, secretKey string) *gateway.Client {
		client := newGatewayFunc(tracer, gatewayConfig(cfg, apiKey, secretKey))
		if infoCache != nil {
			client.WithInfoCache(infoCache)
		}
		return client
	}
	client := newClient(cfg.BinanceAPIKey, cfg.BinanceSecretKey)
	monitor := job.NewConnectivityMonitor(tracer, client, cfg.BinanceTestnet, cfg.HealthPollSecs)

	baseOpts := []tools.Option{tools.WithTracer(tracer), tools.WithLogger(slog.Default())}
	scope := accountScope{operator: domain.AccountKey(cfg.BinanceAPIKey)}
	if db.Pool != nil {
		invocationRepo := newInvocationRepoFunc(db.Pool, tracer)
		if err := invocationRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run invocation migrations: %v", err)
		}
		scope.repo = invocationRepo
	}

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	if notifier := startTelegramBotFunc(ctx, monitor, cfg.TelegramChatIDs); notifier != nil {
		notifier.SetAccount(scope.operator)
		monitor.OnChange(notifier.NotifyConnectivity)
		scope.notifier = notifier
	}

	srvCfg := mcpserver.ServerConfig{
		Name:           tracing.ServiceName,
		Version:        serverVersion,
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	}
	newServer := func(c *gateway.Client, apiKey string) *sdkmcp.Server {
		opts, invocations := scope.forAccount(domain.AccountKey(apiKey))
		registry := tools.NewRegistry(c, append(opts, baseOpts...)...)
		return newMCPServerFunc(tracer, registry, monitor, invocations, srvCfg)
	}
	mcpSrv := newServer(client, cfg.BinanceAPIKey)

	transport := strings.ToLower(strings.TrimSpace(cfg.MCPTransport))
	switch transport {
	case "", "stdio":
		if err := stdioPreflight(ctx, cfg, monitor); err != nil {
			log.Fatalf("mcp stdio server cannot start: %v", err)
		}
		startMonitorFunc(monitor, ctx)
		slog.Info("binance mcp server ready", "transport", "stdio", "testnet", cfg.BinanceTestnet)
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatalf("mcp stdio server failed: %v", err)
		}
	case "http":
		startMonitorFunc(monitor, ctx)
		sessions := func(apiKey, secretKey string) *sdkmcp.Server {
			return newServer(newClient(apiKey, secretKey), apiKey)
		}
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv, sessions); err != nil {
			log.Fatalf("mcp http server failed: %v", err)
		}
	default:
		log.Fatalf("unsupported MCP_TRANSPORT: %s", cfg.MCPTransport)
	}
}

// accountScope hands each MCP server the audit and notification sinks of the
// Binance account it trades with.
type accountScope struct {
	repo     *repository.InvocationRepository
	notifier *bot.TradeNotifier
	operator string
}

// forAccount returns registry options and an audit reader limited to
// account. Only the operator's own account reaches the Telegram notifier.
func (s accountScope) forAccount(account string) ([]tools.Option, mcpserver.InvocationLister) {
	opts := []tools.Option{tools.WithAccount(account)}
	var invocations mcpserver.InvocationLister
	if s.repo != nil {
		opts = append(opts, tools.WithObserver(s.repo))
		invocations = s.repo.ForAccount(account)
	}
	if s.notifier != nil && account == s.operator {
		opts = append(opts, tools.WithObserver(s.notifier))
	}
	return opts, invocations
}

// setupLogging sends structured logs to stderr; stdout belongs to the stdio
// transport.
func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))
}

func gatewayConfig(cfg *config.Config, apiKey, secretKey string) gateway.Config {
	return gateway.Config{
		APIKey:       apiKey,
		SecretKey:    secretKey,
		Testnet:      cfg.BinanceTestnet,
		RecvWindowMs: int64(cfg.BinanceRecvWindowMs),
		HTTPTimeout:  cfg.BinanceHTTPTimeout(),
	}
}

// stdioPreflight refuses to start without credentials or without a working
// connection to the exchange.
func stdioPreflight(ctx context.Context, cfg *config.Config, monitor *job.ConnectivityMonitor) error {
	if cfg.BinanceAPIKey == "" || cfg.BinanceSecretKey == "" {
		return errors.New("BINANCE_API_KEY and BINANCE_SECRET_KEY are required in stdio mode")
	}
	st := checkConnectivityFunc(ctx, monitor)
	if !st.Connected {
		return fmt.Errorf("binance connectivity check failed: %s", st.Error)
	}
	network := "mainnet"
	if st.Testnet {
		network = "testnet"
	}
	log.Printf("Connected to Binance %s (clock drift %dms)", network, st.ClockDriftMs)
	return nil
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server, sessions mcpserver.SessionFactory) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, sessions, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		log.Printf("MCP HTTP server listening on %s", addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Printf("mcp http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
