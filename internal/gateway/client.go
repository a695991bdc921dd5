// Package gateway is the Binance REST client used by the tool handlers. It
// signs private requests, decodes typed responses and classifies failures
// into APIError and TransportError.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"binance-mcp/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	SpotBaseURL           = "https://api.binance.com"
	SpotTestnetURL        = "https://testnet.binance.vision"
	FuturesBaseURL        = "https://fapi.binance.com"
	FuturesTestnetURL     = "https://testnet.binancefuture.com"
	defaultRecvWindow     = 5000
	defaultRequestTimeout = 10 * time.Second
	apiKeyHeader          = "X-MBX-APIKEY"
)

type Config struct {
	APIKey       string
	SecretKey    string
	Testnet      bool
	RecvWindowMs int64
	HTTPTimeout  time.Duration

	// Base URL overrides, mostly for tests.
	SpotBaseURL    string
	FuturesBaseURL string
}

// InfoCache stores exchange info between requests. Implementations must be
// safe for concurrent use.
type InfoCache interface {
	Load(ctx context.Context, market domain.Market) (*domain.ExchangeInfo, bool)
	Store(ctx context.Context, market domain.Market, info *domain.ExchangeInfo)
}

type Client struct {
	tracer         trace.Tracer
	httpClient     *http.Client
	apiKey         string
	secretKey      string
	testnet        bool
	recvWindow     int64
	spotBaseURL    string
	futuresBaseURL string
	infoCache      InfoCache
	now            func() time.Time
}

func NewClient(tracer trace.Tracer, cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	recvWindow := cfg.RecvWindowMs
	if recvWindow <= 0 {
		recvWindow = defaultRecvWindow
	}

	spot, futures := SpotBaseURL, FuturesBaseURL
	if cfg.Testnet {
		spot, futures = SpotTestnetURL, FuturesTestnetURL
	}
	if cfg.SpotBaseURL != "" {
		spot = cfg.SpotBaseURL
	}
	if cfg.FuturesBaseURL != "" {
		futures = cfg.FuturesBaseURL
	}

	return &Client{
		tracer:         tracer,
		httpClient:     &http.Client{Timeout: timeout},
		apiKey:         strings.TrimSpace(cfg.APIKey),
		secretKey:      strings.TrimSpace(cfg.SecretKey),
		testnet:        cfg.Testnet,
		recvWindow:     recvWindow,
		spotBaseURL:    strings.TrimSuffix(spot, "/"),
		futuresBaseURL: strings.TrimSuffix(futures, "/"),
		now:            time.Now,
	}
}

// WithInfoCache attaches an exchange info cache and returns the client.
func (c *Client) WithInfoCache(cache InfoCache) *Client {
	c.infoCache = cache
	return c
}

func (c *Client) IsTestnet() bool { return c.testnet }

func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.secretKey != ""
}

func (c *Client) baseURL(market domain.Market) string {
	if market == domain.MarketFutures {
		return c.futuresBaseURL
	}
	return c.spotBaseURL
}

func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func newClientOrderID() string {
	return uuid.NewString()
}

// request describes a single REST call.
type request struct {
	op     string
	market domain.Market
	method string
	path   string
	params url.Values
	signed bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, span := c.tracer.Start(ctx, "gateway."+r.op)
	defer span.End()
	span.SetAttributes(
		attribute.String("binance.market", string(r.market)),
		attribute.String("http.method", r.method),
		attribute.String("http.path", r.path),
	)

	err := c.send(ctx, r, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) send(ctx context.Context, r request, out any) error {
	params := r.params
	if params == nil {
		params = url.Values{}
	}

	query := params.Encode()
	if r.signed {
		if !c.HasCredentials() {
			return ErrMissingCredentials
		}
		params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
		params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
		query = params.Encode()
		query += "&signature=" + c.sign(query)
	}

	reqURL := c.baseURL(r.market) + r.path
	if query != "" {
		reqURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: r.method + " " + r.path, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read " + r.path, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: "decode " + r.path, Err: err}
	}
	return nil
}

func decodeAPIError(status int, body []byte) *APIError {
	var payload struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	apiErr := &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Msg != "" {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Msg
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func setInt(params url.Values, key string, v int64) {
	if v != 0 {
		params.Set(key, strconv.FormatInt(v, 10))
	}
}

func historyParams(q domain.HistoryQuery) url.Values {
	params := url.Values{}
	if q.Symbol != "" {
		params.Set("symbol", q.Symbol)
	}
	setInt(params, "orderId", q.OrderID)
	setInt(params, "fromId", q.FromID)
	setInt(params, "startTime", q.StartTime)
	setInt(params, "endTime", q.EndTime)
	setInt(params, "limit", int64(q.Limit))
	return params
}

// Ping checks spot connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, request{op: "ping", market: domain.MarketSpot, method: http.MethodGet, path: "/api/v3/ping"}, nil)
}

func (c *Client) ServerTime(ctx context.Context) (int64, error) {
	var out struct {
		ServerTime int64 `json:"serverTime"`
	}
	err := c.do(ctx, request{op: "server-time", market: domain.MarketSpot, method: http.MethodGet, path: "/api/v3/time"}, &out)
	return out.ServerTime, err
}

// ExchangeInfo returns trading rules for all symbols of a market, from the
// cache when one is attached.
func (c *Client) ExchangeInfo(ctx context.Context, market domain.Market) (*domain.ExchangeInfo, error) {
	if c.infoCache != nil {
		if info, ok := c.infoCache.Load(ctx, market); ok {
			return info, nil
		}
	}

	path := "/api/v3/exchangeInfo"
	if market == domain.MarketFutures {
		path = "/fapi/v1/exchangeInfo"
	}
	var info domain.ExchangeInfo
	if err := c.do(ctx, request{op: "exchange-info", market: market, method: http.MethodGet, path: path}, &info); err != nil {
		return nil, err
	}
	if c.infoCache != nil {
		c.infoCache.Store(ctx, market, &info)
	}
	return &info, nil
}
