package tools

import (
	"context"
	"fmt"

	"binance-mcp/internal/domain"
	"binance-mcp/internal/format"
	"binance-mcp/internal/validation"
)

const (
	maxPriceRows      = 100
	maxTickerRows     = 50
	maxSymbolRows     = 20
	defaultBookLimit  = 100
	maxKlineLimit     = 1000
	defaultKlineLimit = 500
)

var orderBookLimits = []int{5, 10, 20, 50, 100, 500, 1000, 5000}

func klineProps() props {
	return props{
		"symbol":    symbolProp(),
		"interval":  enumProp("Candle interval (default 1h)", "1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d", "3d", "1w", "1M"),
		"limit":     between(integerProp("Number of candles, 1-1000 (default 500)"), 1, maxKlineLimit),
		"startTime": atLeast(integerProp(startTimeDescription), minEpochMillis),
		"endTime":   atLeast(integerProp(endTimeDescription), minEpochMillis),
	}
}

func MarketTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "binance_spot_price",
			Domain:      DomainMarket,
			Description: "Get the latest spot price of a symbol, or of up to 100 symbols when none is given.",
			InputSchema: object(props{"symbol": symbolProp()}),
			Example:     map[string]any{"symbol": "BTCUSDT"},
		},
		{
			Name:        "binance_futures_price",
			Domain:      DomainMarket,
			Description: "Get the latest USD-M futures price of a symbol, or of up to 100 symbols when none is given.",
			InputSchema: object(props{"symbol": symbolProp()}),
			Example:     map[string]any{"symbol": "ETHUSDT"},
		},
		{
			Name:        "binance_spot_orderbook",
			Domain:      DomainMarket,
			Description: "Get spot order book depth with bids and asks.",
			InputSchema: object(props{
				"symbol": symbolProp(),
				"limit":  intEnum(integerProp("Depth levels per side (default 100)"), orderBookLimits...),
			}, "symbol"),
			Example: map[string]any{"symbol": "BTCUSDT", "limit": 20},
		},
		{
			Name:        "binance_spot_klines",
			Domain:      DomainMarket,
			Description: "Get spot candlesticks (OHLCV) for a symbol and interval.",
			InputSchema: object(klineProps(), "symbol"),
			Example:     map[string]any{"symbol": "BTCUSDT", "interval": "4h", "limit": 100},
		},
		{
			Name:        "binance_futures_klines",
			Domain:      DomainMarket,
			Description: "Get USD-M futures candlesticks (OHLCV) for a symbol and interval.",
			InputSchema: object(klineProps(), "symbol"),
			Example:     map[string]any{"symbol": "BTCUSDT", "interval": "1d", "limit": 30},
		},
		{
			Name:        "binance_spot_24hr_ticker",
			Domain:      DomainMarket,
			Description: "Get 24 hour spot statistics for a symbol, or for up to 50 symbols when none is given.",
			InputSchema: object(props{"symbol": symbolProp()}),
			Example:     map[string]any{"symbol": "BTCUSDT"},
		},
		{
			Name:        "binance_futures_24hr_ticker",
			Domain:      DomainMarket,
			Description: "Get 24 hour USD-M futures statistics for a symbol, or for up to 50 symbols when none is given.",
			InputSchema: object(props{"symbol": symbolProp()}),
			Example:     map[string]any{"symbol": "BTCUSDT"},
		},
		{
			Name:        "binance_exchange_info",
			Domain:      DomainMarket,
			Description: "Get exchange trading rules: timezone, server time and the first 20 symbols with their status.",
			InputSchema: object(props{
				"market": enumProp("Market to describe (default spot)", string(domain.MarketSpot), string(domain.MarketFutures)),
			}),
			Example: map[string]any{"market": "futures"},
		},
		{
			Name:        "binance_server_time",
			Domain:      DomainMarket,
			Description: "Get the exchange server time and the offset from local time.",
			InputSchema: object(props{}),
			Example:     map[string]any{},
		},
	}
}

func (h *Handlers) HandleMarketTool(ctx context.Context, name string, a Args) Result {
	switch name {
	case "binance_spot_price":
		return h.price(ctx, domain.MarketSpot, a)
	case "binance_futures_price":
		return h.price(ctx, domain.MarketFutures, a)

	case "binance_spot_orderbook":
		symbol, res, valid := symbolArg(a, true)
		if !valid {
			return res
		}
		limit, err := a.integer("limit")
		if err != nil {
			return invalidf(err.Error())
		}
		if limit == 0 {
			limit = defaultBookLimit
		}
		if !validBookLimit(int(limit)) {
			return invalidf(fmt.Sprintf("limit must be one of %v, current value: %d", orderBookLimits, limit))
		}
		book, err := h.gw.SpotOrderBook(ctx, symbol, int(limit))
		if err != nil {
			return fromError(err)
		}
		return ok(map[string]any{
			"symbol":       symbol,
			"lastUpdateId": book.LastUpdateID,
			"bids":         levelViews(book.Bids),
			"asks":         levelViews(book.Asks),
			"summary":      format.OrderBook(*book),
		})

	case "binance_spot_klines":
		return h.klines(ctx, domain.MarketSpot, a)
	case "binance_futures_klines":
		return h.klines(ctx, domain.MarketFutures, a)

	case "binance_spot_24hr_ticker":
		return h.ticker(ctx, domain.MarketSpot, a)
	case "binance_futures_24hr_ticker":
		return h.ticker(ctx, domain.MarketFutures, a)

	case "binance_exchange_info":
		market, res, valid := marketArg(a)
		if !valid {
			return res
		}
		info, err := h.gw.ExchangeInfo(ctx, market)
		if err != nil {
			return fromError(err)
		}
		symbols := info.Symbols
		if len(symbols) > maxSymbolRows {
			symbols = symbols[:maxSymbolRows]
		}
		rows := make([]map[string]any, 0, len(symbols))
		for _, s := range symbols {
			rows = append(rows, map[string]any{
				"symbol":     s.Symbol,
				"status":     s.Status,
				"baseAsset":  s.BaseAsset,
				"quoteAsset": s.QuoteAsset,
				"orderTypes": s.OrderTypes,
			})
		}
		return ok(map[string]any{
			"market":      market,
			"timezone":    info.Timezone,
			"serverTime":  info.ServerTime,
			"symbolCount": len(info.Symbols),
			"symbols":     rows,
		})

	case "binance_server_time":
		serverTime, err := h.gw.ServerTime(ctx)
		if err != nil {
			return fromError(err)
		}
		local := h.now().UnixMilli()
		return ok(map[string]any{
			"serverTime":     serverTime,
			"serverTimeText": format.Timestamp(serverTime),
			"localTime":      local,
			"timeDifference": local - serverTime,
		})

	default:
		return unknownInDomain(DomainMarket, name)
	}
}

func validBookLimit(limit int) bool {
	for _, l := range orderBookLimits {
		if l == limit {
			return true
		}
	}
	return false
}

func (h *Handlers) price(ctx context.Context, market domain.Market, a Args) Result {
	symbol, res, valid := symbolArg(a, false)
	if !valid {
		return res
	}
	if symbol != "" {
		t, err := h.gw.Price(ctx, market, symbol)
		if err != nil {
			return fromError(err)
		}
		return ok(map[string]any{
			"symbol":  t.Symbol,
			"price":   t.Price.InexactFloat64(),
			"summary": format.PriceTicker(*t, h.now()),
		})
	}

	all, err := h.gw.Prices(ctx, market)
	if err != nil {
		return fromError(err)
	}
	if len(all) > maxPriceRows {
		all = all[:maxPriceRows]
	}
	rows := make([]map[string]any, 0, len(all))
	for _, t := range all {
		rows = append(rows, map[string]any{"symbol": t.Symbol, "price": t.Price.InexactFloat64()})
	}
	return ok(rows)
}

func (h *Handlers) klines(ctx context.Context, market domain.Market, a Args) Result {
	q := domain.KlineQuery{}
	var errs []string
	limit, err := a.integer("limit")
	if err != nil {
		errs = append(errs, err.Error())
	} else if limit < 0 || limit > maxKlineLimit {
		errs = append(errs, fmt.Sprintf("limit must be between 1 and %d, current value: %d", maxKlineLimit, limit))
	}
	if q.StartTime, err = a.integer("startTime"); err != nil {
		errs = append(errs, err.Error())
	}
	if q.EndTime, err = a.integer("endTime"); err != nil {
		errs = append(errs, err.Error())
	}
	if msg := timeRangeError(q.StartTime, q.EndTime); msg != "" {
		errs = append(errs, msg)
	}

	fields := []validation.Field{
		validation.Check("symbol", validation.Symbol(a.str("symbol"), true)),
		validation.Check("interval", validation.Interval(a.str("interval"))),
	}
	for _, e := range errs {
		fields = append(fields, validation.Check("range", validation.Outcome{Error: e}))
	}
	checked := validation.All(fields...)
	if !checked.Valid {
		return invalid(checked)
	}

	v := checked.Values()
	q.Symbol = v["symbol"].(string)
	q.Interval = v["interval"].(string)
	q.Limit = int(limit)
	if q.Limit == 0 {
		q.Limit = defaultKlineLimit
	}

	candles, err := h.gw.Klines(ctx, market, q)
	if err != nil {
		return fromError(err)
	}
	rows := make([]map[string]any, 0, len(candles))
	for _, k := range candles {
		rows = append(rows, map[string]any{
			"openTime":                 k.OpenTime,
			"open":                     k.Open.InexactFloat64(),
			"high":                     k.High.InexactFloat64(),
			"low":                      k.Low.InexactFloat64(),
			"close":                    k.Close.InexactFloat64(),
			"volume":                   k.Volume.InexactFloat64(),
			"closeTime":                k.CloseTime,
			"quoteAssetVolume":         k.QuoteVolume.InexactFloat64(),
			"numberOfTrades":           k.Trades,
			"takerBuyBaseAssetVolume":  k.TakerBuyBaseVolume.InexactFloat64(),
			"takerBuyQuoteAssetVolume": k.TakerBuyQuoteVolume.InexactFloat64(),
		})
	}
	if len(checked.Warnings) == 0 {
		return ok(rows)
	}
	return ok(map[string]any{"warnings": checked.Warnings, "klines": rows})
}

func (h *Handlers) ticker(ctx context.Context, market domain.Market, a Args) Result {
	symbol, res, valid := symbolArg(a, false)
	if !valid {
		return res
	}
	if symbol != "" {
		t, err := h.gw.Ticker24h(ctx, market, symbol)
		if err != nil {
			return fromError(err)
		}
		return ok(map[string]any{
			"symbol":             t.Symbol,
			"priceChange":        t.PriceChange.InexactFloat64(),
			"priceChangePercent": t.PriceChangePercent.InexactFloat64(),
			"weightedAvgPrice":   t.WeightedAvgPrice.InexactFloat64(),
			"lastPrice":          t.LastPrice.InexactFloat64(),
			"openPrice":          t.OpenPrice.InexactFloat64(),
			"highPrice":          t.HighPrice.InexactFloat64(),
			"lowPrice":           t.LowPrice.InexactFloat64(),
			"volume":             t.Volume.InexactFloat64(),
			"quoteVolume":        t.QuoteVolume.InexactFloat64(),
			"openTime":           t.OpenTime,
			"closeTime":          t.CloseTime,
			"count":              t.Count,
			"summary":            format.Ticker24h(*t, h.now()),
		})
	}

	all, err := h.gw.Tickers24h(ctx, market)
	if err != nil {
		return fromError(err)
	}
	if len(all) > maxTickerRows {
		all = all[:maxTickerRows]
	}
	rows := make([]map[string]any, 0, len(all))
	for _, t := range all {
		rows = append(rows, map[string]any{
			"symbol":             t.Symbol,
			"priceChange":        t.PriceChange.InexactFloat64(),
			"priceChangePercent": t.PriceChangePercent.InexactFloat64(),
			"lastPrice":          t.LastPrice.InexactFloat64(),
			"volume":             t.Volume.InexactFloat64(),
			"quoteVolume":        t.QuoteVolume.InexactFloat64(),
		})
	}
	return ok(rows)
}

func levelViews(levels []domain.BookLevel) []map[string]float64 {
	out := make([]map[string]float64, 0, len(levels))
	for _, l := range levels {
		out = append(out, map[string]float64{"price": l.Price.InexactFloat64(), "quantity": l.Quantity.InexactFloat64()})
	}
	return out
}
