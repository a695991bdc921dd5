package tools

import (
	"context"
	"errors"
	"fmt"

	"binance-mcp/internal/domain"
	"binance-mcp/internal/format"
	"binance-mcp/internal/gateway"
	"binance-mcp/internal/validation"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/shopspring/decimal"
)

// codeMarginTypeUnchanged is returned when the requested margin type is
// already active.
const codeMarginTypeUnchanged = -4046

var (
	futuresPriceTypes    = map[string]bool{"LIMIT": true, "STOP": true, "TAKE_PROFIT": true}
	futuresTriggerTypes  = map[string]bool{"STOP": true, "STOP_MARKET": true, "TAKE_PROFIT": true, "TAKE_PROFIT_MARKET": true}
	futuresTimeInForces  = map[string]bool{"GTC": true, "IOC": true, "FOK": true, "GTX": true}
	futuresPositionSides = map[string]bool{domain.PositionSideBoth: true, domain.PositionSideLong: true, domain.PositionSideShort: true}
)

func positionSideProp(desc string) *jsonschema.Schema {
	return enumProp(desc, domain.PositionSideBoth, domain.PositionSideLong, domain.PositionSideShort)
}

func FuturesTools() []Descriptor {
	return []Descriptor{
		{
			Name:   "binance_futures_place_order",
			Domain: DomainFutures,
			Description: "Place a USD-M futures order at the symbol's current leverage and margin type " +
				"(change those with binance_futures_change_leverage and binance_futures_set_margin_type). " +
				"LIMIT, STOP and TAKE_PROFIT need a price; stop and take-profit types need a stopPrice.",
			InputSchema: object(props{
				"symbol":        symbolProp(),
				"side":          enumProp("BUY to open long or close short, SELL to open short or close long", domain.SideBuy, domain.SideSell),
				"positionSide":  positionSideProp("Position side (default BOTH for one-way mode)"),
				"type":          enumProp("Order type (default MARKET)", "MARKET", "LIMIT", "STOP", "STOP_MARKET", "TAKE_PROFIT", "TAKE_PROFIT_MARKET", "TRAILING_STOP_MARKET"),
				"quantity":      atLeast(numberProp("Contract quantity in the base asset"), 0.001),
				"price":         atLeast(numberProp("Limit price in USDT"), 0.01),
				"timeInForce":   enumProp("Time in force for LIMIT orders (default GTC)", "GTC", "IOC", "FOK", "GTX"),
				"reduceOnly":    boolProp("Only reduce an existing position (default false)"),
				"stopPrice":     atLeast(numberProp("Trigger price for stop and take-profit orders"), 0.01),
				"callbackRate":  between(numberProp("Callback rate in percent for TRAILING_STOP_MARKET"), 0.1, 5),
				"closePosition": boolProp("Close the whole position when triggered (STOP_MARKET and TAKE_PROFIT_MARKET only)"),
			}, "symbol", "side", "quantity"),
			Example: map[string]any{"symbol": "BTCUSDT", "side": "BUY", "type": "LIMIT", "quantity": 0.01, "price": 50000},
		},
		{
			Name:        "binance_futures_cancel_order",
			Domain:      DomainFutures,
			Description: "Cancel an open futures order by order ID.",
			InputSchema: object(props{
				"symbol":  symbolProp(),
				"orderId": atLeast(integerProp(orderIDDescription), 1),
			}, "symbol", "orderId"),
			Example: map[string]any{"symbol": "BTCUSDT", "orderId": 12345678},
		},
		{
			Name:        "binance_futures_open_orders",
			Domain:      DomainFutures,
			Description: "List open futures orders, for one symbol or for the whole account.",
			InputSchema: object(props{"symbol": symbolProp()}),
			Example:     map[string]any{},
		},
		{
			Name:        "binance_futures_order_history",
			Domain:      DomainFutures,
			Description: "List futures orders of a symbol in every state.",
			InputSchema: object(historyProps(), "symbol"),
			Example:     map[string]any{"symbol": "ETHUSDT", "limit": 100},
		},
		{
			Name:        "binance_futures_change_leverage",
			Domain:      DomainFutures,
			Description: "Change the initial leverage of a futures symbol (1-125). Leverage above 10x returns a risk warning.",
			InputSchema: object(props{
				"symbol":   symbolProp(),
				"leverage": between(integerProp("Target leverage"), 1, 125),
			}, "symbol", "leverage"),
			Example: map[string]any{"symbol": "BTCUSDT", "leverage": 10},
		},
		{
			Name:        "binance_futures_set_margin_type",
			Domain:      DomainFutures,
			Description: "Switch a futures symbol between isolated and cross margin.",
			InputSchema: object(props{
				"symbol":     symbolProp(),
				"marginType": enumProp("ISOLATED limits the loss to the position margin, CROSSED shares the account balance", domain.MarginIsolated, domain.MarginCrossed),
			}, "symbol", "marginType"),
			Example: map[string]any{"symbol": "BTCUSDT", "marginType": "ISOLATED"},
		},
		{
			Name:        "binance_futures_trade_history",
			Domain:      DomainFutures,
			Description: "List executed futures trades of a symbol with realized PnL and commission.",
			InputSchema: object(tradeHistoryProps(), "symbol"),
			Example:     map[string]any{"symbol": "BTCUSDT", "limit": 50},
		},
		{
			Name:        "binance_futures_cancel_all_orders",
			Domain:      DomainFutures,
			Description: "Cancel every open futures order of a symbol one by one and report the outcome of each.",
			InputSchema: object(props{"symbol": symbolProp()}, "symbol"),
			Example:     map[string]any{"symbol": "BTCUSDT"},
		},
		{
			Name:        "binance_futures_close_position",
			Domain:      DomainFutures,
			Description: "Close open positions of a symbol with MARKET orders, optionally only the LONG or SHORT side.",
			InputSchema: object(props{
				"symbol":       symbolProp(),
				"positionSide": positionSideProp("Only close this side (default: every side)"),
			}, "symbol"),
			Example: map[string]any{"symbol": "BTCUSDT", "positionSide": "LONG"},
		},
	}
}

func (h *Handlers) HandleFuturesTool(ctx context.Context, name string, a Args) Result {
	switch name {
	case "binance_futures_place_order":
		return h.placeFuturesOrder(ctx, a)

	case "binance_futures_cancel_order":
		symbol, res, valid := symbolArg(a, true)
		if !valid {
			return res
		}
		orderID, res, valid := orderIDArg(a)
		if !valid {
			return res
		}
		order, err := h.gw.CancelFuturesOrder(ctx, symbol, orderID)
		if err != nil {
			return fromError(err)
		}
		return ok(orderView(*order))

	case "binance_futures_open_orders":
		symbol, res, valid := symbolArg(a, false)
		if !valid {
			return res
		}
		orders, err := h.gw.FuturesOpenOrders(ctx, symbol)
		if err != nil {
			return fromError(err)
		}
		return ok(orderViews(orders))

	case "binance_futures_order_history":
		q, res, valid := historyArgs(a)
		if !valid {
			return res
		}
		orders, err := h.gw.FuturesOrderHistory(ctx, q)
		if err != nil {
			return fromError(err)
		}
		return ok(orderViews(orders))

	case "binance_futures_change_leverage":
		return h.changeLeverage(ctx, a)

	case "binance_futures_set_margin_type":
		symbol, res, valid := symbolArg(a, true)
		if !valid {
			return res
		}
		marginType, res, valid := marginTypeArg(a, true)
		if !valid {
			return res
		}
		changed, err := h.setMarginType(ctx, symbol, marginType)
		if err != nil {
			return fromError(err)
		}
		return ok(map[string]any{"symbol": symbol, "marginType": marginType, "changed": changed})

	case "binance_futures_trade_history":
		q, res, valid := historyArgs(a)
		if !valid {
			return res
		}
		q.OrderID = 0
		trades, err := h.gw.FuturesTrades(ctx, q)
		if err != nil {
			return fromError(err)
		}
		return ok(tradeViews(trades))

	case "binance_futures_cancel_all_orders":
		symbol, res, valid := symbolArg(a, true)
		if !valid {
			return res
		}
		orders, err := h.gw.FuturesOpenOrders(ctx, symbol)
		if err != nil {
			return fromError(err)
		}
		return ok(runBulk(orders, func(o domain.Order) (BulkItem, error) {
			cancelled, err := h.gw.CancelFuturesOrder(ctx, symbol, o.OrderID)
			if err != nil {
				return BulkItem{}, err
			}
			return BulkItem{OrderID: cancelled.OrderID, Symbol: symbol, Status: "CANCELED"}, nil
		}, func(o domain.Order, _ error) BulkItem {
			return BulkItem{OrderID: o.OrderID, Symbol: symbol, Status: "FAILED"}
		}))

	case "binance_futures_close_position":
		return h.closePositions(ctx, a)

	default:
		return unknownInDomain(DomainFutures, name)
	}
}

func marginTypeArg(a Args, required bool) (string, Result, bool) {
	mt := a.upper("marginType")
	switch {
	case mt == "" && !required:
		return "", Result{}, true
	case mt == domain.MarginIsolated, mt == domain.MarginCrossed:
		return mt, Result{}, true
	default:
		return "", invalidf(fmt.Sprintf("marginType must be ISOLATED or CROSSED, current value: %q", a.str("marginType")),
			"ISOLATED: risk is limited to the position margin",
			"CROSSED: the whole futures balance backs the position",
		), false
	}
}

// leverageArg validates a leverage argument that must be a whole number.
func leverageArg(a Args) (int, []string, Result, bool) {
	n, err := a.number("leverage")
	if err != nil {
		return 0, nil, invalidf(err.Error()), false
	}
	o := validation.Leverage(n)
	if !o.Valid {
		return 0, nil, invalid(o), false
	}
	l := o.Number()
	if l != float64(int(l)) {
		return 0, nil, invalidf(fmt.Sprintf("Leverage must be a whole number, current value: %v", l)), false
	}
	return int(l), o.Warnings, Result{}, true
}

// setMarginType reports false when the margin type was already active.
func (h *Handlers) setMarginType(ctx context.Context, symbol, marginType string) (bool, error) {
	err := h.gw.SetMarginType(ctx, symbol, marginType)
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Code == codeMarginTypeUnchanged {
		return false, nil
	}
	return err == nil, err
}

func (h *Handlers) changeLeverage(ctx context.Context, a Args) Result {
	symbol, res, valid := symbolArg(a, true)
	if !valid {
		return res
	}
	if !a.has("leverage") {
		return invalidf("Leverage is required for this tool",
			"Beginners: 1-5x",
			"Experienced traders: 5-20x",
		)
	}
	leverage, warnings, res, valid := leverageArg(a)
	if !valid {
		return res
	}
	change, err := h.gw.ChangeLeverage(ctx, symbol, leverage)
	if err != nil {
		return fromError(err)
	}
	text := fmt.Sprintf("✅ Leverage updated\n\nSymbol: %s\nLeverage: %dx\nMax notional value: %s USDT",
		change.Symbol, change.Leverage, format.Number(change.MaxNotionalValue.InexactFloat64()))
	return ok(withWarnings(warnings, text))
}

// placeFuturesOrder makes exactly one state-changing call. Leverage and
// margin type belong to their own tools and are refused here.
func (h *Handlers) placeFuturesOrder(ctx context.Context, a Args) Result {
	for _, key := range []string{"leverage", "marginType"} {
		if a.has(key) {
			return invalidf(key+" cannot be set while placing an order",
				"Change leverage first with binance_futures_change_leverage",
				"Change margin type first with binance_futures_set_margin_type",
			)
		}
	}

	typeOutcome := validation.FuturesOrderType(a.str("type"))
	orderType := typeOutcome.Text()
	closePosition := a.boolean("closePosition")

	fields := []validation.Field{
		validation.Check("symbol", validation.Symbol(a.str("symbol"), true)),
		validation.Check("side", validation.Side(a.str("side"), true)),
		validation.Check("type", typeOutcome),
		validation.Check("quantity", numeric(a, "quantity", !closePosition, validation.Quantity)),
		validation.Check("price", numeric(a, "price", futuresPriceTypes[orderType], validation.Price)),
		validation.Check("stopPrice", numeric(a, "stopPrice", futuresTriggerTypes[orderType], validation.Price)),
	}
	checked := validation.All(fields...)
	if !checked.Valid {
		return invalid(checked)
	}

	positionSide := a.upper("positionSide")
	if positionSide == "" {
		positionSide = domain.PositionSideBoth
	}
	if !futuresPositionSides[positionSide] {
		return invalidf("positionSide must be BOTH, LONG or SHORT, current value: " + a.str("positionSide"))
	}
	callbackRate, err := a.optionalDecimal("callbackRate")
	if err != nil {
		return invalidf(err.Error())
	}
	if orderType == "TRAILING_STOP_MARKET" && !callbackRate.Valid {
		return invalidf("callbackRate is required for TRAILING_STOP_MARKET orders", "Use a value between 0.1 and 5 percent")
	}
	if closePosition && orderType != "STOP_MARKET" && orderType != "TAKE_PROFIT_MARKET" {
		return invalidf("closePosition only works with STOP_MARKET and TAKE_PROFIT_MARKET orders")
	}

	v := checked.Values()
	symbol := v["symbol"].(string)
	req := domain.FuturesOrderRequest{
		Symbol:        symbol,
		Side:          v["side"].(string),
		Type:          orderType,
		PositionSide:  positionSide,
		CallbackRate:  callbackRate,
		ReduceOnly:    a.boolean("reduceOnly"),
		ClosePosition: closePosition,
	}
	if q, isSet := v["quantity"].(float64); isSet && !closePosition {
		req.Quantity = decimal.NewFromFloat(q)
	}
	if p, isSet := v["price"].(float64); isSet && futuresPriceTypes[orderType] {
		req.Price = decimal.NewNullDecimal(decimal.NewFromFloat(p))
	}
	if sp, isSet := v["stopPrice"].(float64); isSet && futuresTriggerTypes[orderType] {
		req.StopPrice = decimal.NewNullDecimal(decimal.NewFromFloat(sp))
	}
	if futuresPriceTypes[orderType] {
		req.TimeInForce = a.upper("timeInForce")
		if req.TimeInForce == "" {
			req.TimeInForce = domain.TimeInForceGTC
		}
		if !futuresTimeInForces[req.TimeInForce] {
			return invalidf("timeInForce must be GTC, IOC, FOK or GTX, current value: " + req.TimeInForce)
		}
	}

	order, err := h.gw.PlaceFuturesOrder(ctx, req)
	if err != nil {
		res := fromError(err)
		res.Error = fmt.Sprintf("Futures order placement failed: %s%s", gateway.FormatError(err), orderFailureTips)
		return res
	}
	return ok(withWarnings(checked.Warnings, format.FuturesOrder(*order)))
}

// closePositions sends one MARKET order per open position. One-way
// positions close with reduceOnly; hedge-mode positions close through their
// position side, where reduceOnly is not accepted.
func (h *Handlers) closePositions(ctx context.Context, a Args) Result {
	symbol, res, valid := symbolArg(a, true)
	if !valid {
		return res
	}
	filter := a.upper("positionSide")
	if filter != "" && !futuresPositionSides[filter] {
		return invalidf("positionSide must be BOTH, LONG or SHORT, current value: " + a.str("positionSide"))
	}
	positions, err := h.gw.FuturesPositions(ctx, symbol)
	if err != nil {
		return fromError(err)
	}

	return ok(runBulk(positionsBySide(positions, filter), func(p domain.Position) (BulkItem, error) {
		side := domain.SideSell
		if !p.IsLong() {
			side = domain.SideBuy
		}
		req := domain.FuturesOrderRequest{
			Symbol:       p.Symbol,
			Side:         side,
			Type:         domain.OrderTypeMarket,
			PositionSide: p.PositionSide,
			Quantity:     p.PositionAmt.Abs(),
		}
		if p.PositionSide == "" || p.PositionSide == domain.PositionSideBoth {
			req.ReduceOnly = true
		}
		order, err := h.gw.PlaceFuturesOrder(ctx, req)
		if err != nil {
			return BulkItem{}, err
		}
		return BulkItem{
			OrderID:      order.OrderID,
			Symbol:       p.Symbol,
			PositionSide: p.PositionSide,
			Status:       "CLOSED",
			Amount:       p.PositionAmt.Abs().InexactFloat64(),
		}, nil
	}, func(p domain.Position, _ error) BulkItem {
		return BulkItem{Symbol: p.Symbol, PositionSide: p.PositionSide, Status: "FAILED"}
	}))
}

func positionsBySide(positions []domain.Position, side string) []domain.Position {
	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		if !p.IsOpen() {
			continue
		}
		if side != "" && side != domain.PositionSideBoth && p.PositionSide != side {
			continue
		}
		out = append(out, p)
	}
	return out
}
