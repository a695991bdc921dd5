package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"binance-mcp/internal/bot"
	"binance-mcp/internal/cache"
	"binance-mcp/internal/config"
	"binance-mcp/internal/db"
	"binance-mcp/internal/domain"
	"binance-mcp/internal/gateway"
	"binance-mcp/internal/handler"
	"binance-mcp/internal/job"
	"binance-mcp/internal/repository"
	"binance-mcp/internal/tools"
	"binance-mcp/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "binance-mcp/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newGatewayFunc         = gateway.NewClient
	newInvocationRepoFunc  = repository.NewInvocationRepository
	startMonitorFunc       = func(m *job.ConnectivityMonitor, ctx context.Context) { go m.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Binance MCP API
// @version         1.0
// @description     REST access to the Binance tool catalogue served over MCP.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := requireAuthToken(cfg); err != nil {
		log.Fatalf("REST server cannot start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	client := newGatewayFunc(tracer, gateway.Config{
		APIKey:       cfg.BinanceAPIKey,
		SecretKey:    cfg.BinanceSecretKey,
		Testnet:      cfg.BinanceTestnet,
		RecvWindowMs: int64(cfg.BinanceRecvWindowMs),
		HTTPTimeout:  cfg.BinanceHTTPTimeout(),
	})
	if cache.Client != nil {
		client.WithInfoCache(cache.NewExchangeInfoStore(cache.Client, cfg.ExchangeInfoTTL()))
	}

	// Connectivity monitor (stopped by ctx cancel)
	monitor := job.NewConnectivityMonitor(tracer, client, cfg.BinanceTestnet, cfg.HealthPollSecs)
	startMonitorFunc(monitor, ctx)

	account := domain.AccountKey(cfg.BinanceAPIKey)
	registryOpts := []tools.Option{tools.WithTracer(tracer), tools.WithLogger(slog.Default()), tools.WithAccount(account)}
	var invocations handler.InvocationLister
	if db.Pool != nil {
		invocationRepo := newInvocationRepoFunc(db.Pool, tracer)
		if err := invocationRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run invocation migrations: %v", err)
		}
		invocations = invocationRepo.ForAccount(account)
		registryOpts = append(registryOpts, tools.WithObserver(invocationRepo))
	}

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	if notifier := startTelegramBotFunc(ctx, monitor, cfg.TelegramChatIDs); notifier != nil {
		notifier.SetAccount(account)
		monitor.OnChange(notifier.NotifyConnectivity)
		registryOpts = append(registryOpts, tools.WithObserver(notifier))
	}

	registry := tools.NewRegistry(client, registryOpts...)
	h := newHandlerFunc(tracer, registry, monitor, invocations, cfg.RESTAuthToken)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	if len(cfg.RESTCORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.RESTCORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddr(cfg.RESTBind, cfg.Port),
		Handler: r,
	}

	go func() {
		log.Printf("REST server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// requireAuthToken refuses an unauthenticated REST API; its tools trade with
// the server's own Binance credentials.
func requireAuthToken(cfg *config.Config) error {
	if strings.TrimSpace(cfg.RESTAuthToken) == "" {
		return errors.New("REST_AUTH_TOKEN or MCP_AUTH_TOKEN is required")
	}
	return nil
}

func httpAddr(bind string, port int) string {
	if strings.TrimSpace(bind) == "" {
		bind = "127.0.0.1"
	}
	if port <= 0 {
		port = 8080
	}
	return net.JoinHostPort(strings.TrimSpace(bind), strconv.Itoa(port))
}
