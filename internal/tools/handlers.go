package tools

import (
	"fmt"
	"strings"
	"time"

	"binance-mcp/internal/domain"
	"binance-mcp/internal/format"
	"binance-mcp/internal/validation"

	"github.com/shopspring/decimal"
)

// Handlers holds the per-domain tool implementations. The gateway is passed
// in explicitly; nothing here reads global state.
type Handlers struct {
	gw  Gateway
	now func() time.Time
}

func NewHandlers(gw Gateway) *Handlers {
	return &Handlers{gw: gw, now: time.Now}
}

func unknownInDomain(d Domain, name string) Result {
	return failure(KindUnknownTool, fmt.Sprintf("unknown %s tool: %s", d, name))
}

// symbolArg validates the "symbol" argument. The returned Result is only
// meaningful when the bool is false.
func symbolArg(a Args, required bool) (string, Result, bool) {
	o := validation.Symbol(a.str("symbol"), required)
	if !o.Valid {
		return "", invalid(o), false
	}
	return o.Text(), Result{}, true
}

// historyArgs reads the shared order and trade history filters.
func historyArgs(a Args) (domain.HistoryQuery, Result, bool) {
	symbol, res, ok := symbolArg(a, true)
	if !ok {
		return domain.HistoryQuery{}, res, false
	}
	q := domain.HistoryQuery{Symbol: symbol}

	var errs []string
	read := func(key string, dst *int64) {
		v, err := a.integer(key)
		if err != nil {
			errs = append(errs, err.Error())
			return
		}
		*dst = v
	}
	read("orderId", &q.OrderID)
	read("fromId", &q.FromID)
	read("startTime", &q.StartTime)
	read("endTime", &q.EndTime)

	var limit int64
	read("limit", &limit)
	if limit < 0 || limit > 1000 {
		errs = append(errs, fmt.Sprintf("limit must be between 1 and 1000, current value: %d", limit))
	}
	q.Limit = int(limit)

	if msg := timeRangeError(q.StartTime, q.EndTime); msg != "" {
		errs = append(errs, msg)
	}
	if len(errs) > 0 {
		return domain.HistoryQuery{}, invalid(validation.Outcome{Error: strings.Join(errs, "\n")}), false
	}
	return q, Result{}, true
}

func timeRangeError(start, end int64) string {
	if start > 0 && end > 0 && start > end {
		return "startTime must not be after endTime"
	}
	return ""
}

func orderIDArg(a Args) (int64, Result, bool) {
	id, err := a.integer("orderId")
	if err != nil {
		return 0, invalidf(err.Error()), false
	}
	if id <= 0 {
		return 0, invalidf("orderId is required and must be a positive integer",
			"Look up the order ID with the open orders tool"), false
	}
	return id, Result{}, true
}

func marketArg(a Args) (domain.Market, Result, bool) {
	switch m := a.str("market"); m {
	case "", string(domain.MarketSpot):
		return domain.MarketSpot, Result{}, true
	case string(domain.MarketFutures):
		return domain.MarketFutures, Result{}, true
	default:
		return "", invalidf("market must be spot or futures, current value: "+m), false
	}
}

// numeric validates an optional or required numeric argument with check.
func numeric(a Args, key string, required bool, check func(*float64, bool) validation.Outcome) validation.Outcome {
	n, err := a.number(key)
	if err != nil {
		return validation.Outcome{Error: err.Error(), Suggestions: []string{"Pass the value as a JSON number"}}
	}
	return check(n, required)
}

func withWarnings(warnings []string, text string) string {
	if notice := validation.FormatWarnings(warnings); notice != "" {
		return notice + "\n\n" + text
	}
	return text
}

func nullablePrice(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d.InexactFloat64()
}

func orderView(o domain.Order) map[string]any {
	view := map[string]any{
		"orderId":       o.OrderID,
		"clientOrderId": o.ClientOrderID,
		"symbol":        o.Symbol,
		"side":          o.Side,
		"type":          o.Type,
		"quantity":      o.OrigQty.InexactFloat64(),
		"price":         nullablePrice(o.Price),
		"executedQty":   o.ExecutedQty.InexactFloat64(),
		"status":        o.Status,
		"statusLabel":   format.OrderStatus(o.Status),
		"timeInForce":   o.TimeInForce,
		"time":          o.CreatedAt(),
	}
	if q := o.QuoteQty(); !q.IsZero() {
		view["quoteQty"] = q.InexactFloat64()
	}
	if !o.StopPrice.IsZero() {
		view["stopPrice"] = o.StopPrice.InexactFloat64()
	}
	if o.PositionSide != "" {
		view["positionSide"] = o.PositionSide
		view["reduceOnly"] = o.ReduceOnly
		view["avgPrice"] = nullablePrice(o.AvgPrice)
	}
	return view
}

func orderViews(orders []domain.Order) []map[string]any {
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView(o))
	}
	return out
}

func tradeViews(trades []domain.Trade) []map[string]any {
	out := make([]map[string]any, 0, len(trades))
	for _, t := range trades {
		view := map[string]any{
			"id":              t.ID,
			"orderId":         t.OrderID,
			"symbol":          t.Symbol,
			"price":           t.Price.InexactFloat64(),
			"qty":             t.Qty.InexactFloat64(),
			"quoteQty":        t.QuoteQty.InexactFloat64(),
			"commission":      t.Commission.InexactFloat64(),
			"commissionAsset": t.CommissionAsset,
			"time":            t.Time,
			"isBuyer":         t.IsBuyer || t.Buyer,
			"isMaker":         t.IsMaker || t.Maker,
		}
		if t.Side != "" {
			view["side"] = t.Side
			view["positionSide"] = t.PositionSide
			view["realizedPnl"] = t.RealizedPnl.InexactFloat64()
		}
		out = append(out, view)
	}
	return out
}
