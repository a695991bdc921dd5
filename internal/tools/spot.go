package tools

import (
	"context"
	"fmt"

	"binance-mcp/internal/domain"
	"binance-mcp/internal/format"
	"binance-mcp/internal/gateway"
	"binance-mcp/internal/validation"

	"github.com/shopspring/decimal"
)

const orderFailureTips = `

💡 Common fixes:
• Check that the account balance is sufficient
• Check that price and quantity match the symbol's precision
• Confirm the symbol exists and is trading
• Check network connectivity and API permissions`

var spotTimeInForceTypes = map[string]bool{
	"LIMIT":             true,
	"STOP_LOSS_LIMIT":   true,
	"TAKE_PROFIT_LIMIT": true,
}

func SpotTools() []Descriptor {
	return []Descriptor{
		{
			Name:   "binance_spot_place_order",
			Domain: DomainSpot,
			Description: "Place a spot order. MARKET orders fill at the best available price; limit-type orders need a price. " +
				"Parameters are validated before anything is sent to the exchange.",
			InputSchema: object(props{
				"symbol":      symbolProp(),
				"side":        enumProp("BUY to buy the base asset, SELL to sell it", domain.SideBuy, domain.SideSell),
				"type":        enumProp("Order type (default MARKET)", "MARKET", "LIMIT", "STOP_LOSS", "STOP_LOSS_LIMIT", "TAKE_PROFIT", "TAKE_PROFIT_LIMIT"),
				"quantity":    atLeast(numberProp("Order quantity in the base asset"), 0.00000001),
				"price":       atLeast(numberProp("Limit price in the quote asset. Required for every type except MARKET."), 0.00000001),
				"timeInForce": enumProp("Time in force for limit-type orders (default GTC)", "GTC", "IOC", "FOK"),
				"stopPrice":   atLeast(numberProp("Trigger price for stop-loss and take-profit orders"), 0.00000001),
			}, "symbol", "side", "quantity"),
			Example: map[string]any{"symbol": "BTCUSDT", "side": "BUY", "type": "LIMIT", "quantity": 0.001, "price": 50000},
		},
		{
			Name:        "binance_spot_cancel_order",
			Domain:      DomainSpot,
			Description: "Cancel an open spot order by order ID.",
			InputSchema: object(props{
				"symbol":  symbolProp(),
				"orderId": atLeast(integerProp(orderIDDescription), 1),
			}, "symbol", "orderId"),
			Example: map[string]any{"symbol": "BTCUSDT", "orderId": 12345678},
		},
		{
			Name:        "binance_spot_open_orders",
			Domain:      DomainSpot,
			Description: "List open spot orders, for one symbol or for the whole account.",
			InputSchema: object(props{"symbol": symbolProp()}),
			Example:     map[string]any{"symbol": "BTCUSDT"},
		},
		{
			Name:        "binance_spot_order_history",
			Domain:      DomainSpot,
			Description: "List spot orders of a symbol in every state, newest last.",
			InputSchema: object(historyProps(), "symbol"),
			Example:     map[string]any{"symbol": "BTCUSDT", "limit": 50},
		},
		{
			Name:        "binance_spot_trade_history",
			Domain:      DomainSpot,
			Description: "List executed spot trades of a symbol with price, quantity and commission.",
			InputSchema: object(tradeHistoryProps(), "symbol"),
			Example:     map[string]any{"symbol": "BTCUSDT", "limit": 50},
		},
		{
			Name:        "binance_spot_cancel_all_orders",
			Domain:      DomainSpot,
			Description: "Cancel every open spot order of a symbol one by one and report the outcome of each.",
			InputSchema: object(props{"symbol": symbolProp()}, "symbol"),
			Example:     map[string]any{"symbol": "BTCUSDT"},
		},
	}
}

func (h *Handlers) HandleSpotTool(ctx context.Context, name string, a Args) Result {
	switch name {
	case "binance_spot_place_order":
		return h.placeSpotOrder(ctx, a)

	case "binance_spot_cancel_order":
		symbol, res, valid := symbolArg(a, true)
		if !valid {
			return res
		}
		orderID, res, valid := orderIDArg(a)
		if !valid {
			return res
		}
		order, err := h.gw.CancelSpotOrder(ctx, symbol, orderID)
		if err != nil {
			return fromError(err)
		}
		return ok(orderView(*order))

	case "binance_spot_open_orders":
		symbol, res, valid := symbolArg(a, false)
		if !valid {
			return res
		}
		orders, err := h.gw.SpotOpenOrders(ctx, symbol)
		if err != nil {
			return fromError(err)
		}
		return ok(orderViews(orders))

	case "binance_spot_order_history":
		q, res, valid := historyArgs(a)
		if !valid {
			return res
		}
		orders, err := h.gw.SpotOrderHistory(ctx, q)
		if err != nil {
			return fromError(err)
		}
		return ok(orderViews(orders))

	case "binance_spot_trade_history":
		q, res, valid := historyArgs(a)
		if !valid {
			return res
		}
		q.OrderID = 0
		trades, err := h.gw.SpotTrades(ctx, q)
		if err != nil {
			return fromError(err)
		}
		return ok(tradeViews(trades))

	case "binance_spot_cancel_all_orders":
		symbol, res, valid := symbolArg(a, true)
		if !valid {
			return res
		}
		orders, err := h.gw.SpotOpenOrders(ctx, symbol)
		if err != nil {
			return fromError(err)
		}
		return ok(runBulk(orders, func(o domain.Order) (BulkItem, error) {
			cancelled, err := h.gw.CancelSpotOrder(ctx, symbol, o.OrderID)
			if err != nil {
				return BulkItem{}, err
			}
			return BulkItem{OrderID: cancelled.OrderID, Symbol: symbol, Status: "CANCELED"}, nil
		}, func(o domain.Order, _ error) BulkItem {
			return BulkItem{OrderID: o.OrderID, Symbol: symbol, Status: "FAILED"}
		}))

	default:
		return unknownInDomain(DomainSpot, name)
	}
}

func (h *Handlers) placeSpotOrder(ctx context.Context, a Args) Result {
	typeOutcome := validation.OrderType(a.str("type"))
	priceRequired := !typeOutcome.Valid || typeOutcome.Text() != domain.OrderTypeMarket

	checked := validation.All(
		validation.Check("symbol", validation.Symbol(a.str("symbol"), true)),
		validation.Check("side", validation.Side(a.str("side"), true)),
		validation.Check("type", typeOutcome),
		validation.Check("quantity", numeric(a, "quantity", true, validation.Quantity)),
		validation.Check("price", numeric(a, "price", priceRequired, validation.Price)),
	)
	if !checked.Valid {
		return invalid(checked)
	}
	stopPrice, err := a.optionalDecimal("stopPrice")
	if err != nil {
		return invalidf(err.Error())
	}

	v := checked.Values()
	orderType := v["type"].(string)
	req := domain.SpotOrderRequest{
		Symbol:    v["symbol"].(string),
		Side:      v["side"].(string),
		Type:      orderType,
		Quantity:  decimal.NewFromFloat(v["quantity"].(float64)),
		StopPrice: stopPrice,
	}
	if p, isSet := v["price"].(float64); isSet && orderType != domain.OrderTypeMarket {
		req.Price = decimal.NewNullDecimal(decimal.NewFromFloat(p))
	}
	if spotTimeInForceTypes[orderType] {
		req.TimeInForce = a.upper("timeInForce")
		if req.TimeInForce == "" {
			req.TimeInForce = domain.TimeInForceGTC
		}
	}

	order, err := h.gw.PlaceSpotOrder(ctx, req)
	if err != nil {
		res := fromError(err)
		res.Error = fmt.Sprintf("Order placement failed: %s%s", gateway.FormatError(err), orderFailureTips)
		return res
	}
	return ok(withWarnings(checked.Warnings, format.SpotOrder(*order)))
}
