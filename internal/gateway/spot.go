package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"binance-mcp/internal/domain"
)

func (c *Client) AccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	var out domain.AccountInfo
	err := c.do(ctx, request{op: "account-info", market: domain.MarketSpot, method: http.MethodGet, path: "/api/v3/account", signed: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PlaceSpotOrder(ctx context.Context, req domain.SpotOrderRequest) (*domain.Order, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", req.Side)
	params.Set("type", req.Type)
	params.Set("quantity", req.Quantity.String())
	if req.Price.Valid {
		params.Set("price", req.Price.Decimal.String())
	}
	if req.StopPrice.Valid {
		params.Set("stopPrice", req.StopPrice.Decimal.String())
	}
	if req.TimeInForce != "" {
		params.Set("timeInForce", req.TimeInForce)
	}
	clientID := req.NewClientOrderID
	if clientID == "" {
		clientID = newClientOrderID()
	}
	params.Set("newClientOrderId", clientID)
	params.Set("newOrderRespType", "RESULT")

	var out domain.Order
	err := c.do(ctx, request{op: "place-spot-order", market: domain.MarketSpot, method: http.MethodPost, path: "/api/v3/order", params: params, signed: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelSpotOrder(ctx context.Context, symbol string, orderID int64) (*domain.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	var out domain.Order
	err := c.do(ctx, request{op: "cancel-spot-order", market: domain.MarketSpot, method: http.MethodDelete, path: "/api/v3/order", params: params, signed: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SpotOpenOrders lists open orders, for every symbol when symbol is empty.
func (c *Client) SpotOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var out []domain.Order
	err := c.do(ctx, request{op: "spot-open-orders", market: domain.MarketSpot, method: http.MethodGet, path: "/api/v3/openOrders", params: params, signed: true}, &out)
	return out, err
}

func (c *Client) SpotOrderHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.Order, error) {
	q.FromID = 0
	var out []domain.Order
	err := c.do(ctx, request{op: "spot-order-history", market: domain.MarketSpot, method: http.MethodGet, path: "/api/v3/allOrders", params: historyParams(q), signed: true}, &out)
	return out, err
}

func (c *Client) SpotTrades(ctx context.Context, q domain.HistoryQuery) ([]domain.Trade, error) {
	var out []domain.Trade
	err := c.do(ctx, request{op: "spot-trades", market: domain.MarketSpot, method: http.MethodGet, path: "/api/v3/myTrades", params: historyParams(q), signed: true}, &out)
	return out, err
}
