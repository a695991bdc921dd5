package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"binance-mcp/internal/domain"
)

func marketPath(market domain.Market, spotPath, futuresPath string) string {
	if market == domain.MarketFutures {
		return futuresPath
	}
	return spotPath
}

func (c *Client) Price(ctx context.Context, market domain.Market, symbol string) (*domain.PriceTicker, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	var out domain.PriceTicker
	path := marketPath(market, "/api/v3/ticker/price", "/fapi/v1/ticker/price")
	if err := c.do(ctx, request{op: "price", market: market, method: http.MethodGet, path: path, params: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Prices(ctx context.Context, market domain.Market) ([]domain.PriceTicker, error) {
	var out []domain.PriceTicker
	path := marketPath(market, "/api/v3/ticker/price", "/fapi/v1/ticker/price")
	err := c.do(ctx, request{op: "prices", market: market, method: http.MethodGet, path: path}, &out)
	return out, err
}

func (c *Client) SpotOrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out domain.OrderBook
	if err := c.do(ctx, request{op: "order-book", market: domain.MarketSpot, method: http.MethodGet, path: "/api/v3/depth", params: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Klines(ctx context.Context, market domain.Market, q domain.KlineQuery) ([]domain.Kline, error) {
	params := url.Values{}
	params.Set("symbol", q.Symbol)
	params.Set("interval", q.Interval)
	setInt(params, "startTime", q.StartTime)
	setInt(params, "endTime", q.EndTime)
	setInt(params, "limit", int64(q.Limit))

	var out []domain.Kline
	path := marketPath(market, "/api/v3/klines", "/fapi/v1/klines")
	err := c.do(ctx, request{op: "klines", market: market, method: http.MethodGet, path: path, params: params}, &out)
	return out, err
}

func (c *Client) Ticker24h(ctx context.Context, market domain.Market, symbol string) (*domain.Ticker24h, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	var out domain.Ticker24h
	path := marketPath(market, "/api/v3/ticker/24hr", "/fapi/v1/ticker/24hr")
	if err := c.do(ctx, request{op: "ticker-24h", market: market, method: http.MethodGet, path: path, params: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Tickers24h(ctx context.Context, market domain.Market) ([]domain.Ticker24h, error) {
	var out []domain.Ticker24h
	path := marketPath(market, "/api/v3/ticker/24hr", "/fapi/v1/ticker/24hr")
	err := c.do(ctx, request{op: "tickers-24h", market: market, method: http.MethodGet, path: path}, &out)
	return out, err
}
