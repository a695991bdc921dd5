package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BinanceAPIKey          string
	BinanceSecretKey       string
	BinanceTestnet         bool
	BinanceRecvWindowMs    int
	BinanceHTTPTimeoutSecs int

	LogLevel string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	ExchangeInfoCacheSecs int
	RedisURL              string
	DatabaseURL           string

	TelegramBotToken string
	TelegramChatIDs  []int64

	HealthPollSecs int

	RESTBind        string
	Port            int
	RESTAuthToken   string
	RESTCORSOrigins []string
}

func Load() *Config {
	cfg := &Config{
		BinanceAPIKey:    strings.TrimSpace(os.Getenv("BINANCE_API_KEY")),
		BinanceSecretKey: strings.TrimSpace(os.Getenv("BINANCE_SECRET_KEY")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	if cfg.BinanceAPIKey == "" || cfg.BinanceSecretKey == "" {
		log.Println("Warning: BINANCE_API_KEY or BINANCE_SECRET_KEY not set, signed tools will fail")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, invocation audit log disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, exchange info cache disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, trade notifications disabled")
	}

	cfg.BinanceTestnet = strings.EqualFold(strings.TrimSpace(os.Getenv("BINANCE_TESTNET")), "true")
	cfg.BinanceRecvWindowMs = positiveInt("BINANCE_RECV_WINDOW_MS", 5000)
	cfg.BinanceHTTPTimeoutSecs = positiveInt("BINANCE_HTTP_TIMEOUT_SECS", 10)

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	case "":
		cfg.LogLevel = "info"
	default:
		log.Printf("Warning: unsupported LOG_LEVEL=%q, defaulting to info", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("SERVER_MODE")))
	}
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("HOST"))
	}
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 15)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)
	cfg.ExchangeInfoCacheSecs = positiveInt("EXCHANGE_INFO_CACHE_SECS", 300)
	cfg.TelegramChatIDs = parseChatIDs(os.Getenv("TELEGRAM_CHAT_IDS"))
	cfg.HealthPollSecs = positiveInt("HEALTH_POLL_SECS", 60)
	cfg.Port = positiveInt("PORT", 8080)

	cfg.RESTBind = strings.TrimSpace(os.Getenv("REST_BIND"))
	if cfg.RESTBind == "" {
		cfg.RESTBind = "127.0.0.1"
	}
	cfg.RESTAuthToken = strings.TrimSpace(os.Getenv("REST_AUTH_TOKEN"))
	if cfg.RESTAuthToken == "" {
		cfg.RESTAuthToken = strings.TrimSpace(cfg.MCPAuthToken)
	}
	cfg.RESTCORSOrigins = splitList(os.Getenv("REST_CORS_ORIGINS"))

	return cfg
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) BinanceHTTPTimeout() time.Duration {
	return time.Duration(c.BinanceHTTPTimeoutSecs) * time.Second
}

func (c *Config) ExchangeInfoTTL() time.Duration {
	return time.Duration(c.ExchangeInfoCacheSecs) * time.Second
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func parseChatIDs(raw string) []int64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
