// Package validation checks and normalizes tool arguments before any
// exchange call is made. Every function is pure.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	maxPrice          = 10_000_000
	minQuantity       = 0.000001
	minLeverage       = 1
	maxLeverage       = 125
	highLeverage      = 20
	moderateLeverage  = 10
	defaultOrderType  = "MARKET"
	defaultInterval   = "1h"
	uppercasedWarning = "Automatically converted to uppercase"
)

var symbolPattern = regexp.MustCompile(`^[A-Z]{2,10}USDT?$|^[A-Z]{2,10}BTC$|^[A-Z]{2,10}ETH$|^[A-Z]{2,10}BNB$`)

// Outcome is the result of one validation. Valid outcomes carry the
// normalized value in Data (nil when an optional value was absent); invalid
// ones carry Error and optional Suggestions.
type Outcome struct {
	Valid       bool
	Data        any
	Error       string
	Warnings    []string
	Suggestions []string
}

// Present reports whether a valid outcome carries a value.
func (o Outcome) Present() bool {
	return o.Valid && o.Data != nil
}

func (o Outcome) Text() string {
	s, _ := o.Data.(string)
	return s
}

func (o Outcome) Number() float64 {
	f, _ := o.Data.(float64)
	return f
}

// Values returns the normalized map produced by All or Validate.
func (o Outcome) Values() map[string]any {
	m, _ := o.Data.(map[string]any)
	return m
}

func pass(data any, warnings ...string) Outcome {
	return Outcome{Valid: true, Data: data, Warnings: warnings}
}

func fail(msg string, suggestions ...string) Outcome {
	return Outcome{Error: msg, Suggestions: suggestions}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func Symbol(symbol string, required bool) Outcome {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		if required {
			return fail(`Trading pair is required. Provide a valid pair such as "BTCUSDT" or "ETHUSDT".`,
				"Major pairs: BTCUSDT, ETHUSDT, BNBBUSD",
				"Altcoin pairs: ADAUSDT, DOTUSDT, LINKUSDT",
				"Use the format base asset + quote asset",
			)
		}
		return pass(nil)
	}

	upper := strings.ToUpper(symbol)
	if !symbolPattern.MatchString(upper) {
		return fail(fmt.Sprintf(`Invalid trading pair format: "%s". Use the standard format, e.g. BTCUSDT.`, symbol),
			"Standard format: base asset + quote asset",
			"Common quote assets: USDT, BTC, ETH, BNB",
			"Examples: BTCUSDT (Bitcoin / USDT), ETHBTC (Ethereum / Bitcoin)",
		)
	}
	if upper != symbol {
		return pass(upper, uppercasedWarning)
	}
	return pass(upper)
}

func Price(price *float64, required bool) Outcome {
	if price == nil {
		if required {
			return fail("Price is required. Provide a valid numeric price.",
				"Price must be positive, e.g. 43250.50",
				"Decimals are allowed; precision depends on the trading pair",
				"Set a price close to the current market price",
			)
		}
		return pass(nil)
	}

	p := *price
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return fail(fmt.Sprintf("Price must be a positive number, current value: %s", formatFloat(p)),
			"Price must be greater than 0",
			"Check the number format",
			"Do not use zero or negative prices",
		)
	}
	if p > maxPrice {
		return fail(fmt.Sprintf("Price too high: %s, please verify this is correct.", formatFloat(p)),
			"The price is unusually high, double-check the value",
		)
	}
	return pass(p)
}

func Quantity(quantity *float64, required bool) Outcome {
	if quantity == nil {
		if required {
			return fail("Quantity is required. Provide a valid trade quantity.",
				"Quantity must be positive, e.g. 0.1, 1.5, 100",
				"Each trading pair has a minimum order size",
				"Check the trading pair rules for a suitable quantity",
			)
		}
		return pass(nil)
	}

	q := *quantity
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return fail(fmt.Sprintf("Quantity must be a positive number, current value: %s", formatFloat(q)),
			"Quantity must be greater than 0",
			"Check the number format",
			"Do not use zero or negative quantities",
		)
	}
	if q < minQuantity {
		return fail(fmt.Sprintf("Quantity too small: %s, it may be below the minimum trade size.", formatFloat(q)),
			"Check the minimum order size for the trading pair",
			"Use the binance_check_order_precision tool to verify",
		)
	}
	return pass(q)
}

// Leverage defaults to 1x when absent.
func Leverage(leverage *float64) Outcome {
	if leverage == nil {
		return pass(float64(1), "No leverage specified, defaulting to 1x (no leverage)")
	}

	l := *leverage
	if math.IsNaN(l) || l < minLeverage || l > maxLeverage {
		return fail(fmt.Sprintf("Leverage must be between 1 and 125, current value: %s", formatFloat(l)),
			"Beginners should use 1-5x leverage",
			"Experienced traders may use 10-20x",
			"Higher leverage requires strict risk control",
		)
	}

	switch {
	case l > highLeverage:
		return pass(l, "⚠️ High leverage risk: above 20x the risk is extreme, use with caution")
	case l > moderateLeverage:
		return pass(l, "⚠️ Moderate-high risk: above 10x, strengthen your risk management")
	}
	return pass(l)
}

type choice struct {
	value       string
	description string
}

var spotOrderTypes = []choice{
	{"MARKET", "market order (fills immediately)"},
	{"LIMIT", "limit order (at a specified price)"},
	{"STOP_LOSS", "stop-loss order"},
	{"STOP_LOSS_LIMIT", "stop-loss limit order"},
	{"TAKE_PROFIT", "take-profit order"},
	{"TAKE_PROFIT_LIMIT", "take-profit limit order"},
}

var futuresOrderTypes = []choice{
	{"MARKET", "market order (fills immediately)"},
	{"LIMIT", "limit order (at a specified price)"},
	{"STOP", "stop limit order"},
	{"STOP_MARKET", "stop market order"},
	{"TAKE_PROFIT", "take-profit limit order"},
	{"TAKE_PROFIT_MARKET", "take-profit market order"},
	{"TRAILING_STOP_MARKET", "trailing stop order"},
}

// OrderType validates a spot order type, defaulting to MARKET.
func OrderType(orderType string) Outcome {
	return orderTypeFrom(orderType, spotOrderTypes)
}

// FuturesOrderType validates a USD-M futures order type, defaulting to MARKET.
func FuturesOrderType(orderType string) Outcome {
	return orderTypeFrom(orderType, futuresOrderTypes)
}

func orderTypeFrom(orderType string, types []choice) Outcome {
	orderType = strings.TrimSpace(orderType)
	if orderType == "" {
		return pass(defaultOrderType, "No order type specified, defaulting to market order (MARKET)")
	}

	upper := strings.ToUpper(orderType)
	for _, c := range types {
		if c.value != upper {
			continue
		}
		if upper != orderType {
			return pass(upper, uppercasedWarning)
		}
		return pass(upper)
	}

	suggestions := make([]string, 0, len(types))
	for _, c := range types {
		suggestions = append(suggestions, c.value+": "+c.description)
	}
	return fail(fmt.Sprintf("Invalid order type: %s", orderType), suggestions...)
}

func Side(side string, required bool) Outcome {
	side = strings.TrimSpace(side)
	if side == "" {
		if required {
			return fail("Trade side is required, specify BUY or SELL.",
				"BUY: buy / go long",
				"SELL: sell / go short",
				"Spot: BUY to buy, SELL to sell",
				"Futures: BUY to open long, SELL to open short",
			)
		}
		return pass(nil)
	}

	upper := strings.ToUpper(side)
	if upper != "BUY" && upper != "SELL" {
		return fail(fmt.Sprintf("Invalid trade side: %s", side),
			"BUY: buy / go long",
			"SELL: sell / go short",
			"Check the spelling",
		)
	}
	if upper != side {
		return pass(upper, uppercasedWarning)
	}
	return pass(upper)
}

var intervals = []string{"1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d", "3d", "1w", "1M"}

// Interval is case-sensitive: 1m is a minute and 1M a month.
func Interval(interval string) Outcome {
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return pass(defaultInterval, "No interval specified, defaulting to 1 hour (1h)")
	}
	for _, i := range intervals {
		if i == interval {
			return pass(interval)
		}
	}
	return fail(fmt.Sprintf("Invalid interval: %s", interval),
		"Minutes: 1m, 3m, 5m, 15m, 30m",
		"Hours: 1h, 2h, 4h, 6h, 8h, 12h",
		"Days: 1d, 3d",
		"Weeks and months: 1w, 1M",
	)
}
