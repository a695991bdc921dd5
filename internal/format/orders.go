package format

import (
	"fmt"
	"strings"

	"binance-mcp/internal/domain"
)

var quoteSuffixes = []string{"USDT", "BUSD", "BTC", "ETH", "BNB", "USD"}

// BaseAsset strips the first known quote suffix from a symbol.
func BaseAsset(symbol string) string {
	for _, q := range quoteSuffixes {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return strings.TrimSuffix(symbol, q)
		}
	}
	return symbol
}

func sideLabel(side string) string {
	if side == domain.SideBuy {
		return "Buy"
	}
	return "Sell"
}

func typeLabel(orderType string) string {
	switch orderType {
	case domain.OrderTypeMarket:
		return "Market order"
	case domain.OrderTypeLimit:
		return "Limit order"
	default:
		return strings.ReplaceAll(strings.ToLower(orderType), "_", " ") + " order"
	}
}

// spotHasLimitPrice reports whether a spot order type carries a limit price.
// Spot STOP_LOSS and TAKE_PROFIT execute at market once triggered.
func spotHasLimitPrice(orderType string) bool {
	return strings.Contains(orderType, "LIMIT")
}

// futuresHasLimitPrice reports whether a futures order type carries a limit
// price. Futures STOP and TAKE_PROFIT are the limit variants.
func futuresHasLimitPrice(orderType string) bool {
	return orderType == domain.OrderTypeLimit || orderType == "STOP" || orderType == "TAKE_PROFIT"
}

func orderID(o domain.Order) string {
	if o.OrderID == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", o.OrderID)
}

func createdAt(o domain.Order) string {
	if ts := o.CreatedAt(); ts > 0 {
		return Timestamp(ts)
	}
	return "N/A"
}

func joinLines(lines ...string) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l == skip {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// skip marks an omitted optional line for joinLines.
const skip = "\x00"

func lineIf(cond bool, line string) string {
	if cond {
		return line
	}
	return skip
}

// SpotOrder renders a spot order placement confirmation.
func SpotOrder(o domain.Order) string {
	base := BaseAsset(o.Symbol)
	quote := "other"
	if strings.Contains(o.Symbol, "USDT") {
		quote = "USDT"
	}
	direction := "open long"
	if o.Side != domain.SideBuy {
		direction = "close long"
	}
	limit := spotHasLimitPrice(o.Type)

	priceLine := "Market execution"
	if limit {
		priceLine = "Limit price: " + Price(o.Price.InexactFloat64(), o.Symbol)
	}
	validity := "Immediate execution"
	if limit {
		validity = "Valid until canceled (GTC)"
		if o.TimeInForce != "" && o.TimeInForce != domain.TimeInForceGTC {
			validity = "Time in force: " + o.TimeInForce
		}
	}
	fill := "⏳ Order is waiting to be filled"
	if o.Status == "FILLED" {
		fill = "✅ Order fully filled"
	}

	return joinLines(
		"✅ Spot order placed",
		"",
		"📋 Order details",
		"Order ID: #"+orderID(o),
		fmt.Sprintf("Symbol: %s (%s/%s spot)", o.Symbol, base, quote),
		fmt.Sprintf("Side: %s (%s)", sideLabel(o.Side), direction),
		"Type: "+typeLabel(o.Type),
		"",
		"💰 Trade information",
		priceLine,
		"Order quantity: "+Quantity(o.OrigQty.InexactFloat64(), base),
		lineIf(!o.ExecutedQty.IsZero(), "Executed quantity: "+Quantity(o.ExecutedQty.InexactFloat64(), base)),
		lineIf(!o.QuoteQty().IsZero(), "Executed amount: "+Price(o.QuoteQty().InexactFloat64(), o.Symbol)),
		"",
		"📊 Order status",
		"Status: "+OrderStatus(o.Status),
		"Created: "+createdAt(o),
		validity,
		"",
		"💡 Reminders",
		fill,
		lineIf(limit, "Track or cancel the order from order management"),
		"Watch the market and adjust your strategy as prices move",
	)
}

// FuturesOrder renders a USD-M futures order placement confirmation.
func FuturesOrder(o domain.Order) string {
	base := BaseAsset(o.Symbol)
	side := "Long"
	action := "buy to open"
	if o.Side != domain.SideBuy {
		side, action = "Short", "sell to open"
	}
	if o.ReduceOnly || o.ClosePosition {
		action = "reduce only"
	}
	limit := futuresHasLimitPrice(o.Type)

	priceLine := "Market execution"
	if limit {
		priceLine = "Limit price: " + Price(o.Price.InexactFloat64(), o.Symbol)
	}
	positionSide := o.PositionSide
	if positionSide == "" {
		positionSide = "both-way"
	}
	leverage := "N/A"
	if o.Leverage > 0 {
		leverage = fmt.Sprintf("%d", o.Leverage)
	}
	margin := "Cross"
	if strings.EqualFold(o.MarginType, "isolated") {
		margin = "Isolated"
	}
	fill := "⏳ Order is waiting to be filled"
	if o.Status == "FILLED" {
		fill = "✅ Order filled, watch your liquidation risk"
	}

	return joinLines(
		"🚀 Futures order placed",
		"",
		"📋 Order details",
		"Order ID: #"+orderID(o),
		fmt.Sprintf("Contract: %s perpetual", o.Symbol),
		fmt.Sprintf("Side: %s (%s)", side, action),
		"Type: "+typeLabel(o.Type),
		"",
		"💰 Trade information",
		priceLine,
		"Order quantity: "+Quantity(o.OrigQty.InexactFloat64(), base),
		lineIf(!o.ExecutedQty.IsZero(), "Executed quantity: "+Quantity(o.ExecutedQty.InexactFloat64(), base)),
		"Position side: "+positionSide,
		"",
		"⚖️ Risk information",
		"Leverage: "+leverage+"x",
		"Margin type: "+margin,
		lineIf(!o.StopPrice.IsZero(), "Trigger price: "+Price(o.StopPrice.InexactFloat64(), o.Symbol)),
		"",
		"📊 Order status",
		"Status: "+OrderStatus(o.Status),
		"Created: "+createdAt(o),
		"",
		"⚠️ Risk reminder",
		fill,
		"Futures trading is high risk, set stop-loss and take-profit levels",
		"Monitor your margin ratio to avoid forced liquidation",
	)
}
