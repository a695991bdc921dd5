package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"
)

var allKeys = []string{
	"BINANCE_API_KEY", "BINANCE_SECRET_KEY", "BINANCE_TESTNET", "BINANCE_RECV_WINDOW_MS", "BINANCE_HTTP_TIMEOUT_SECS",
	"LOG_LEVEL", "MCP_TRANSPORT", "SERVER_MODE", "MCP_HTTP_ENABLED", "MCP_HTTP_BIND", "HOST", "MCP_HTTP_PORT",
	"MCP_AUTH_TOKEN", "MCP_REQUEST_TIMEOUT_SECS", "MCP_RATE_LIMIT_PER_MIN", "EXCHANGE_INFO_CACHE_SECS",
	"REDIS_URL", "DATABASE_URL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_IDS", "HEALTH_POLL_SECS", "PORT",
	"REST_BIND", "REST_AUTH_TOKEN", "REST_CORS_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.RedisURL != "" || cfg.DatabaseURL != "" {
		t.Fatalf("expected optional stores disabled, got %+v", cfg)
	}
	if cfg.BinanceTestnet || cfg.BinanceRecvWindowMs != 5000 || cfg.BinanceHTTPTimeoutSecs != 10 {
		t.Fatalf("unexpected binance defaults: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info log level, got %s", cfg.LogLevel)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected default MCP transport stdio, got %s", cfg.MCPTransport)
	}
	if cfg.MCPHTTPBind != "127.0.0.1" || cfg.MCPHTTPPort != 8090 {
		t.Fatalf("unexpected MCP http defaults: %s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
	}
	if cfg.MCPRequestTimeoutSecs != 15 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("unexpected MCP defaults: timeout=%d rate=%d", cfg.MCPRequestTimeoutSecs, cfg.MCPRateLimitPerMin)
	}
	if cfg.ExchangeInfoTTL() != 5*time.Minute || cfg.HealthPollSecs != 60 || cfg.Port != 8080 {
		t.Fatalf("unexpected service defaults: %+v", cfg)
	}
	if cfg.TelegramChatIDs != nil {
		t.Fatalf("expected no chat ids, got %v", cfg.TelegramChatIDs)
	}
	if cfg.RESTBind != "127.0.0.1" || cfg.RESTAuthToken != "" || cfg.RESTCORSOrigins != nil {
		t.Fatalf("unexpected REST defaults: bind=%s token=%q origins=%v", cfg.RESTBind, cfg.RESTAuthToken, cfg.RESTCORSOrigins)
	}
}

func TestLoadRESTSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("MCP_AUTH_TOKEN", "shared")
	t.Setenv("REST_CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.RESTAuthToken != "shared" {
		t.Fatalf("expected REST token to fall back to MCP_AUTH_TOKEN, got %q", cfg.RESTAuthToken)
	}
	if !reflect.DeepEqual(cfg.RESTCORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("unexpected origins: %v", cfg.RESTCORSOrigins)
	}

	t.Setenv("REST_AUTH_TOKEN", "rest-only")
	t.Setenv("REST_BIND", "0.0.0.0")
	cfg = Load()
	if cfg.RESTAuthToken != "rest-only" || cfg.RESTBind != "0.0.0.0" {
		t.Fatalf("expected explicit REST settings, got token=%q bind=%s", cfg.RESTAuthToken, cfg.RESTBind)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BINANCE_API_KEY", " key ")
	t.Setenv("BINANCE_SECRET_KEY", "secret")
	t.Setenv("BINANCE_TESTNET", "TRUE")
	t.Setenv("BINANCE_RECV_WINDOW_MS", "10000")
	t.Setenv("BINANCE_HTTP_TIMEOUT_SECS", "3")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("MCP_HTTP_ENABLED", "true")
	t.Setenv("MCP_HTTP_BIND", "0.0.0.0")
	t.Setenv("MCP_HTTP_PORT", "9191")
	t.Setenv("MCP_AUTH_TOKEN", "secret")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "9")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "75")
	t.Setenv("EXCHANGE_INFO_CACHE_SECS", "60")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_IDS", "42, -100123,bad,42")
	t.Setenv("HEALTH_POLL_SECS", "30")
	t.Setenv("PORT", "9000")

	cfg := Load()
	if cfg.BinanceAPIKey != "key" || cfg.BinanceSecretKey != "secret" || !cfg.BinanceTestnet {
		t.Fatalf("unexpected binance config: %+v", cfg)
	}
	if cfg.BinanceRecvWindowMs != 10000 || cfg.BinanceHTTPTimeout() != 3*time.Second {
		t.Fatalf("unexpected binance timings: %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.MCPTransport != "http" || !cfg.MCPHTTPEnabled || cfg.MCPHTTPBind != "0.0.0.0" || cfg.MCPHTTPPort != 9191 || cfg.MCPAuthToken != "secret" {
		t.Fatalf("unexpected MCP config: %+v", cfg)
	}
	if cfg.MCPRequestTimeoutSecs != 9 || cfg.MCPRateLimitPerMin != 75 {
		t.Fatalf("unexpected MCP timeout/rate: %+v", cfg)
	}
	if cfg.ExchangeInfoCacheSecs != 60 || cfg.RedisURL != "redis:6379" || cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("unexpected store config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.TelegramChatIDs, []int64{42, -100123}) {
		t.Fatalf("unexpected chat ids: %v", cfg.TelegramChatIDs)
	}
	if cfg.HealthPollSecs != 30 || cfg.Port != 9000 {
		t.Fatalf("unexpected service config: %+v", cfg)
	}

	t.Setenv("BINANCE_RECV_WINDOW_MS", "bad")
	t.Setenv("MCP_HTTP_PORT", "bad")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "-1")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "bad")
	t.Setenv("EXCHANGE_INFO_CACHE_SECS", "0")
	t.Setenv("LOG_LEVEL", "verbose")
	cfg = Load()
	if cfg.BinanceRecvWindowMs != 5000 || cfg.MCPHTTPPort != 8090 || cfg.MCPRequestTimeoutSecs != 15 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("invalid numeric values should fall back to defaults: %+v", cfg)
	}
	if cfg.ExchangeInfoCacheSecs != 300 || cfg.LogLevel != "info" {
		t.Fatalf("invalid cache ttl or log level should fall back: %+v", cfg)
	}
}

func TestLoadLegacyFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_MODE", "HTTP")
	t.Setenv("HOST", "10.0.0.5")

	cfg := Load()
	if cfg.MCPTransport != "http" || cfg.MCPHTTPBind != "10.0.0.5" {
		t.Fatalf("expected SERVER_MODE and HOST fallbacks, got %+v", cfg)
	}

	t.Setenv("MCP_TRANSPORT", "grpc")
	cfg = Load()
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("unsupported transport should fall back to stdio, got %s", cfg.MCPTransport)
	}
}
