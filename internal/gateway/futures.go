package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"binance-mcp/internal/domain"
)

func (c *Client) FuturesAccount(ctx context.Context) (*domain.FuturesAccount, error) {
	var out domain.FuturesAccount
	err := c.do(ctx, request{op: "futures-account", market: domain.MarketFutures, method: http.MethodGet, path: "/fapi/v2/account", signed: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FuturesPositions returns position risk rows, including flat ones.
func (c *Client) FuturesPositions(ctx context.Context, symbol string) ([]domain.Position, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var out []domain.Position
	err := c.do(ctx, request{op: "futures-positions", market: domain.MarketFutures, method: http.MethodGet, path: "/fapi/v2/positionRisk", params: params, signed: true}, &out)
	return out, err
}

func (c *Client) PlaceFuturesOrder(ctx context.Context, req domain.FuturesOrderRequest) (*domain.Order, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", req.Side)
	params.Set("type", req.Type)
	if req.PositionSide != "" {
		params.Set("positionSide", req.PositionSide)
	}
	if !req.Quantity.IsZero() {
		params.Set("quantity", req.Quantity.String())
	}
	if req.Price.Valid {
		params.Set("price", req.Price.Decimal.String())
	}
	if req.StopPrice.Valid {
		params.Set("stopPrice", req.StopPrice.Decimal.String())
	}
	if req.CallbackRate.Valid {
		params.Set("callbackRate", req.CallbackRate.Decimal.String())
	}
	if req.TimeInForce != "" {
		params.Set("timeInForce", req.TimeInForce)
	}
	if req.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	if req.ClosePosition {
		params.Set("closePosition", "true")
	}
	clientID := req.NewClientOrderID
	if clientID == "" {
		clientID = newClientOrderID()
	}
	params.Set("newClientOrderId", clientID)
	params.Set("newOrderRespType", "RESULT")

	var out domain.Order
	err := c.do(ctx, request{op: "place-futures-order", market: domain.MarketFutures, method: http.MethodPost, path: "/fapi/v1/order", params: params, signed: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelFuturesOrder(ctx context.Context, symbol string, orderID int64) (*domain.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	var out domain.Order
	err := c.do(ctx, request{op: "cancel-futures-order", market: domain.MarketFutures, method: http.MethodDelete, path: "/fapi/v1/order", params: params, signed: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FuturesOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var out []domain.Order
	err := c.do(ctx, request{op: "futures-open-orders", market: domain.MarketFutures, method: http.MethodGet, path: "/fapi/v1/openOrders", params: params, signed: true}, &out)
	return out, err
}

func (c *Client) FuturesOrderHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.Order, error) {
	q.FromID = 0
	var out []domain.Order
	err := c.do(ctx, request{op: "futures-order-history", market: domain.MarketFutures, method: http.MethodGet, path: "/fapi/v1/allOrders", params: historyParams(q), signed: true}, &out)
	return out, err
}

func (c *Client) FuturesTrades(ctx context.Context, q domain.HistoryQuery) ([]domain.Trade, error) {
	q.OrderID = 0
	var out []domain.Trade
	err := c.do(ctx, request{op: "futures-trades", market: domain.MarketFutures, method: http.MethodGet, path: "/fapi/v1/userTrades", params: historyParams(q), signed: true}, &out)
	return out, err
}

func (c *Client) ChangeLeverage(ctx context.Context, symbol string, leverage int) (*domain.LeverageChange, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))

	var out domain.LeverageChange
	err := c.do(ctx, request{op: "change-leverage", market: domain.MarketFutures, method: http.MethodPost, path: "/fapi/v1/leverage", params: params, signed: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetMarginType(ctx context.Context, symbol, marginType string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("marginType", marginType)
	return c.do(ctx, request{op: "set-margin-type", market: domain.MarketFutures, method: http.MethodPost, path: "/fapi/v1/marginType", params: params, signed: true}, nil)
}

func (c *Client) PremiumIndex(ctx context.Context, symbol string) (*domain.PremiumIndex, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	var out domain.PremiumIndex
	err := c.do(ctx, request{op: "premium-index", market: domain.MarketFutures, method: http.MethodGet, path: "/fapi/v1/premiumIndex", params: params}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
